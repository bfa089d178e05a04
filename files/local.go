package files

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mbolis/hvac-survey/log"
)

// LocalStore keeps each artifact as a file named after its ref, next to a
// JSON sidecar holding its descriptor.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(ref string) string {
	return filepath.Join(s.dir, ref)
}

func (s *LocalStore) Put(ctx context.Context, r io.Reader, meta Metadata) (Artifact, error) {
	a := newArtifact(meta)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return a, err
	}
	defer os.Remove(tmp.Name())

	a.Size, err = io.Copy(tmp, readerWithContext(ctx, r))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return a, err
	}

	sidecar, err := json.Marshal(a)
	if err != nil {
		return a, err
	}
	if err = os.WriteFile(s.path(a.Ref)+".json", sidecar, 0o644); err != nil {
		return a, err
	}
	if err = os.Rename(tmp.Name(), s.path(a.Ref)); err != nil {
		os.Remove(s.path(a.Ref) + ".json")
		return a, err
	}

	log.Debugf("files.local: stored %s (%d bytes)", a.Ref, a.Size)
	return a, nil
}

func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, Artifact, error) {
	a := Artifact{}
	if err := checkRef(ref); err != nil {
		return nil, a, err
	}

	sidecar, err := os.ReadFile(s.path(ref) + ".json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, a, ErrNotFound
	}
	if err != nil {
		return nil, a, err
	}
	if err = json.Unmarshal(sidecar, &a); err != nil {
		return nil, a, err
	}

	f, err := os.Open(s.path(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, a, ErrNotFound
	}
	if err != nil {
		return nil, a, err
	}
	return f, a, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

// readerWithContext stops a copy once ctx is done.
func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx, r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
