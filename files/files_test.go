package files

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/mbolis/hvac-survey/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutOpen(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	a, err := s.Put(ctx, strings.NewReader("nameplate photo"), Metadata{
		Filename:    "/tmp/uploads/nameplate.jpg",
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, "nameplate.jpg", a.Filename)
	assert.Equal(t, int64(15), a.Size)

	rc, got, err := s.Open(ctx, a.Ref)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "nameplate photo", string(body))
	assert.Equal(t, a.Ref, got.Ref)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, a.Size, got.Size)
}

func TestLocalStore_DefaultContentType(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	a, err := s.Put(context.Background(), strings.NewReader(""), Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", a.ContentType)
	assert.Empty(t, a.Filename)
}

func TestLocalStore_OpenErrors(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = s.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrBadRef)

	_, _, err = s.Open(ctx, "2f1d7a50-7f38-4a55-9b0c-1b4f0c39e6a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_CanceledUpload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, strings.NewReader("data"), Metadata{Filename: "x.txt"})
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.Files{Backend: "ftp"})
	assert.Error(t, err)
}

// Runs against a live endpoint, e.g. MinIO:
// HVAC_S3_ENDPOINT=http://localhost:9000 AWS_ACCESS_KEY_ID=minioadmin AWS_SECRET_ACCESS_KEY=minioadmin
func TestS3Store_PutOpen(t *testing.T) {
	endpoint := os.Getenv("HVAC_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("HVAC_S3_ENDPOINT not set")
	}
	ctx := context.Background()

	s, err := NewS3Store(ctx, config.Files{
		S3Bucket:    "hvac-survey-test",
		S3Region:    "us-east-1",
		S3Endpoint:  endpoint,
		S3AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	})
	require.NoError(t, err)

	a, err := s.Put(ctx, strings.NewReader("report"), Metadata{Filename: "report.pdf", ContentType: "application/pdf"})
	require.NoError(t, err)

	rc, got, err := s.Open(ctx, a.Ref)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "report", string(body))
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, int64(6), got.Size)
}

func TestCreateBucketInput(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Files
		want string
	}{
		{name: "us-east-1", cfg: config.Files{S3Bucket: "b", S3Region: "us-east-1"}},
		{name: "other region", cfg: config.Files{S3Bucket: "b", S3Region: "eu-south-1"}, want: "eu-south-1"},
		{name: "custom endpoint", cfg: config.Files{S3Bucket: "b", S3Region: "eu-south-1", S3Endpoint: "http://localhost:9000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createBucketInput(tt.cfg)
			assert.Equal(t, "b", *in.Bucket)
			if tt.want == "" {
				assert.Nil(t, in.CreateBucketConfiguration)
				return
			}
			require.NotNil(t, in.CreateBucketConfiguration)
			assert.Equal(t, tt.want, string(in.CreateBucketConfiguration.LocationConstraint))
		})
	}
}

func TestFilenameMetadata(t *testing.T) {
	for _, name := range []string{"report.pdf", "targa unità 3.jpg", "Ölkühler – Übersicht.png", "100%.txt"} {
		enc := encodeFilename(name)
		for _, r := range enc {
			assert.Less(t, r, rune(0x80), enc)
		}
		assert.Equal(t, name, decodeFilename(enc))
	}
	// metadata written before encoding, or by other tools
	assert.Equal(t, "50%off.txt", decodeFilename("50%off.txt"))
}

func TestArtifact_Value(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	a, err := s.Put(context.Background(), strings.NewReader("abc"), Metadata{Filename: "a.txt", ContentType: "text/plain"})
	require.NoError(t, err)

	b, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, decoded, a.Value())
}
