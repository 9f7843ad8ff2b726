package attachments

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func jpeg() File {
	return File{Name: "test.jpg", ContentType: "image/jpeg", Content: []byte("content")}
}

func TestFileCheck(t *testing.T) {
	if err := jpeg().Check(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	pdf := File{Name: "test.pdf", ContentType: "application/pdf", Content: []byte("content")}
	if err := pdf.Check(); !errors.Is(err, ErrUnacceptable) {
		t.Fatalf("expected ErrUnacceptable, got %v", err)
	}
	empty := File{Name: "test.jpg", ContentType: "image/jpeg"}
	if err := empty.Check(); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	k := objectKey("Test@Test.com", "../../etc/my proof.jpg")
	if !strings.HasPrefix(k, "test_test.com/") {
		t.Fatalf("unexpected owner dir in %q", k)
	}
	if !strings.HasSuffix(k, "-my_proof.jpg") {
		t.Fatalf("unexpected name in %q", k)
	}
	if strings.Contains(k, "..") {
		t.Fatalf("key escapes its directory: %q", k)
	}
	if objectKey("", "...") == "" {
		t.Fatalf("expected fallback key")
	}
}

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	att, err := u.Upload(context.Background(), "test@test.com", jpeg())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if att.Name != "test.jpg" || !strings.HasPrefix(att.URL, "http://localhost:8080/files/test_test.com/") {
		t.Fatalf("unexpected attachment %+v", att)
	}
	key := strings.TrimPrefix(att.URL, "http://localhost:8080/files/")
	got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil || string(got) != "content" {
		t.Fatalf("stored content mismatch: %q (err=%v)", got, err)
	}

	if _, err := u.Upload(context.Background(), "a", File{Name: "x.pdf", ContentType: "application/pdf", Content: []byte("x")}); !errors.Is(err, ErrUnacceptable) {
		t.Fatalf("expected ErrUnacceptable, got %v", err)
	}
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader(t *testing.T) {
	fp := &fakePutter{}
	u := newS3Uploader(fp, "bills", "https://cdn.example.com/")
	att, err := u.Upload(context.Background(), "test@test.com", jpeg())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if aws.ToString(fp.in.Bucket) != "bills" || aws.ToString(fp.in.ContentType) != "image/jpeg" {
		t.Fatalf("unexpected put input: bucket=%s type=%s", aws.ToString(fp.in.Bucket), aws.ToString(fp.in.ContentType))
	}
	if att.URL != "https://cdn.example.com/"+aws.ToString(fp.in.Key) {
		t.Fatalf("url %q does not match key %q", att.URL, aws.ToString(fp.in.Key))
	}

	fp.err = errors.New("boom")
	if _, err := u.Upload(context.Background(), "a", jpeg()); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
}
