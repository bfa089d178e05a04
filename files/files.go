// Package files keeps the artifacts (photos, reports, ...) uploaded for
// file fields. Survey data only stores the artifact descriptor.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mbolis/hvac-survey/config"
)

var (
	ErrNotFound = errors.New("artifact not found")
	ErrBadRef   = errors.New("malformed artifact reference")
)

// Metadata is what the uploader tells about a file.
type Metadata struct {
	Filename    string
	ContentType string
}

// Artifact describes a stored file. Its JSON form is the value kept in
// survey data for file fields.
type Artifact struct {
	Ref         string    `json:"ref"`
	Filename    string    `json:"filename,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists artifacts. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, r io.Reader, meta Metadata) (Artifact, error)
	// Open returns the artifact content, to be closed by the caller.
	Open(ctx context.Context, ref string) (io.ReadCloser, Artifact, error)
}

// New opens the backend selected by cfg.
func New(ctx context.Context, cfg config.Files) (Store, error) {
	switch cfg.Backend {
	case config.FilesLocal, "":
		return NewLocalStore(cfg.Dir)
	case config.FilesS3:
		return NewS3Store(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown files backend %q", cfg.Backend)
}

func newArtifact(meta Metadata) Artifact {
	a := Artifact{
		Ref:         uuid.NewString(),
		ContentType: meta.ContentType,
		CreatedAt:   time.Now().UTC(),
	}
	if a.ContentType == "" {
		a.ContentType = "application/octet-stream"
	}
	if meta.Filename != "" {
		a.Filename = filepath.Base(meta.Filename)
	}
	return a
}

func checkRef(ref string) error {
	if _, err := uuid.Parse(ref); err != nil {
		return fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Value is the artifact as kept in survey data, i.e. in its decoded JSON
// form.
func (a Artifact) Value() map[string]any {
	v := map[string]any{
		"ref":       a.Ref,
		"size":      float64(a.Size),
		"createdAt": a.CreatedAt.Format(time.RFC3339Nano),
	}
	if a.Filename != "" {
		v["filename"] = a.Filename
	}
	if a.ContentType != "" {
		v["contentType"] = a.ContentType
	}
	return v
}
