package attachments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader writes proofs under Dir and serves them from BaseURL.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &LocalUploader{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, owner string, f File) (Attachment, error) {
	if err := f.Check(); err != nil {
		return Attachment{}, err
	}
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	key := objectKey(owner, f.Name)
	path := filepath.Join(u.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Attachment{}, fmt.Errorf("create attachment dir: %w", err)
	}
	if err := os.WriteFile(path, f.Content, 0o644); err != nil {
		return Attachment{}, fmt.Errorf("write attachment: %w", err)
	}
	return Attachment{URL: u.BaseURL + "/" + key, Name: f.Name}, nil
}
