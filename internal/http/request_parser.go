// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for reading the multipart bill form into
// the service layer types.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"billed/internal/attachments"
	"billed/internal/services"
)

// formFileField is the multipart field holding the proof.
const formFileField = "file"

// formOverhead is the room left for the text fields of a multipart body.
const formOverhead = 1 << 20

// billForm is a parsed bill form.
type billForm struct {
	Fields services.Fields
	// File is nil when no file was sent.
	File *attachments.File
}

// parseBillForm reads the multipart bill form. Bodies over maxFileBytes plus
// the form overhead fail with attachments.ErrFileTooLarge.
func parseBillForm(w http.ResponseWriter, r *http.Request, maxFileBytes int64) (billForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return billForm{}, attachments.ErrFileTooLarge
		}
		return billForm{}, fmt.Errorf("parse multipart form: %w", err)
	}

	file, err := readFormFile(r, formFileField, maxFileBytes)
	if err != nil {
		return billForm{}, err
	}

	return billForm{
		Fields: services.Fields{
			Type:       sanitizeInput(r.FormValue("type")),
			Name:       sanitizeInput(r.FormValue("name")),
			Date:       sanitizeInput(r.FormValue("date")),
			Amount:     sanitizeInput(r.FormValue("amount")),
			VAT:        sanitizeInput(r.FormValue("vat")),
			Pct:        sanitizeInput(r.FormValue("pct")),
			Commentary: sanitizeInput(r.FormValue("commentary")),
		},
		File: file,
	}, nil
}

// readFormFile loads the uploaded file of field, or nil when none was sent.
func readFormFile(r *http.Request, field string, maxBytes int64) (*attachments.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	if int64(len(content)) > maxBytes {
		return nil, attachments.ErrFileTooLarge
	}

	name := filepath.Base(hdr.Filename)
	return &attachments.File{
		Name:        name,
		ContentType: hdr.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
