// Package attachments stores the proof files attached to bills.
package attachments

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"billed/internal/core"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile      = errors.New("empty file")
	ErrUnacceptable   = errors.New("file type not accepted")
	ErrFileTooLarge   = errors.New("file too large")
	unsafeNameChars   = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	defaultObjectName = "proof"
)

type (
	// File is a proof selected in the form, not yet uploaded.
	File struct {
		Name        string
		ContentType string
		Content     []byte
	}

	// Attachment is the stored location of an uploaded proof.
	Attachment struct {
		URL  string
		Name string
	}

	// Uploader persists a proof file and returns where it can be read back.
	Uploader interface {
		Upload(ctx context.Context, owner string, f File) (Attachment, error)
	}
)

// Check applies the same media type constraint as the bill form.
func (f File) Check() error {
	if len(f.Content) == 0 {
		return ErrEmptyFile
	}
	if !core.IsAcceptable(f.ContentType) {
		return ErrUnacceptable
	}
	return nil
}

// objectKey builds a collision-free key "<owner>/<uuid>-<name>".
func objectKey(owner, name string) string {
	base := unsafeNameChars.ReplaceAllString(filepath.Base(name), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = defaultObjectName
	}
	dir := unsafeNameChars.ReplaceAllString(strings.ToLower(owner), "_")
	if dir == "" {
		dir = "anonymous"
	}
	return dir + "/" + uuid.NewString() + "-" + base
}
