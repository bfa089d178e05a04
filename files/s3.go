package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/log"
)

const s3Prefix = "artifacts"

// S3Store keeps artifacts in an S3 (or S3 compatible, e.g. MinIO) bucket.
// The descriptor travels as object metadata.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3Store connects to the bucket, creating it when missing.
func NewS3Store(ctx context.Context, cfg config.Files) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	if cfg.S3Endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithBaseEndpoint(cfg.S3Endpoint))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3Endpoint != ""
	})
	s := &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
	}
	if err = s.ensureBucket(ctx, createBucketInput(cfg)); err != nil {
		return nil, err
	}
	return s, nil
}

// createBucketInput asks AWS for the bucket in the configured region; us-east-1
// and custom endpoints take no location constraint.
func createBucketInput(cfg config.Files) *s3.CreateBucketInput {
	in := &s3.CreateBucketInput{Bucket: aws.String(cfg.S3Bucket)}
	if cfg.S3Endpoint == "" && cfg.S3Region != "" && cfg.S3Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(cfg.S3Region),
		}
	}
	return in
}

func (s *S3Store) ensureBucket(ctx context.Context, create *s3.CreateBucketInput) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, create)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	log.Infof("files.s3: created bucket %s", s.bucket)
	return nil
}

// Object metadata travels as HTTP headers, which only carry ASCII.
func encodeFilename(name string) string {
	return url.PathEscape(name)
}

func decodeFilename(v string) string {
	name, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return name
}

func (s *S3Store) key(ref string) string {
	return path.Join(s3Prefix, ref)
}

func (s *S3Store) Put(ctx context.Context, r io.Reader, meta Metadata) (Artifact, error) {
	a := newArtifact(meta)
	body := &countingReader{r: r}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(a.Ref)),
		Body:        body,
		ContentType: aws.String(a.ContentType),
		Metadata: map[string]string{
			"filename":   encodeFilename(a.Filename),
			"created-at": a.CreatedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return a, fmt.Errorf("s3 upload: %w", err)
	}
	a.Size = body.n

	log.Debugf("files.s3: stored %s (%d bytes)", a.Ref, a.Size)
	return a, nil
}

func (s *S3Store) Open(ctx context.Context, ref string) (io.ReadCloser, Artifact, error) {
	a := Artifact{Ref: ref}
	if err := checkRef(ref); err != nil {
		return nil, a, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return nil, a, ErrNotFound
	}
	if err != nil {
		return nil, a, fmt.Errorf("s3 get: %w", err)
	}

	a.Filename = decodeFilename(out.Metadata["filename"])
	a.ContentType = aws.ToString(out.ContentType)
	a.Size = aws.ToInt64(out.ContentLength)
	a.CreatedAt, err = time.Parse(time.RFC3339, out.Metadata["created-at"])
	if err != nil {
		a.CreatedAt = aws.ToTime(out.LastModified)
	}
	return out.Body, a, nil
}
