// Package ui loads the page templates and renders the proof preview.
package ui

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"billed/internal/core"
)

// ErrEmptyURL is returned when a preview is requested without a proof.
var ErrEmptyURL = errors.New("empty proof url")

// ImagePreviewer shows the proof image of a bill.
type ImagePreviewer interface {
	Show(w io.Writer, fileURL string) error
}

// ProofTemplate names the modal template rendered by TemplatePreviewer.
const ProofTemplate = "proof_modal"

// DefaultProofWidth is the image width of the proof modal in pixels.
const DefaultProofWidth = 600

// Proof is the data handed to the proof modal template.
type Proof struct {
	URL   string
	Width int
}

// TemplatePreviewer renders the proof modal with html/template.
type TemplatePreviewer struct {
	tmpl  *template.Template
	width int
}

var _ ImagePreviewer = (*TemplatePreviewer)(nil)

func NewTemplatePreviewer(t *template.Template) *TemplatePreviewer {
	return &TemplatePreviewer{tmpl: t, width: DefaultProofWidth}
}

func (p *TemplatePreviewer) Show(w io.Writer, fileURL string) error {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return ErrEmptyURL
	}
	if err := p.tmpl.ExecuteTemplate(w, ProofTemplate, Proof{URL: fileURL, Width: p.width}); err != nil {
		return fmt.Errorf("render proof: %w", err)
	}
	return nil
}

// Funcs are the helpers available to every page template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"statusLabel":  func(s core.Status) string { return core.StatusLabel(s) },
		"formatAmount": core.FormatAmount,
	}
}

// Parse loads every templates/*.html file of fsys.
func Parse(fsys fs.FS) (*template.Template, error) {
	t, err := template.New("billed").Funcs(Funcs()).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}
