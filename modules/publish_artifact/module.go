package publish_artifact

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vk/forecastgrid/internal/artifact"
	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/registry"
)

// Name is the component name pipelines use.
const Name = "publish_artifact"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Target describes where an artifact is uploaded.
type Target struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Region       string
	Secure       bool
	Bucket       string
	ObjectKey    string
	CreateBucket bool
}

// Validate checks the target before any connection is made.
func (t Target) Validate() error {
	if strings.TrimSpace(t.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if strings.Contains(t.Endpoint, "://") {
		return fmt.Errorf("endpoint must be host[:port] without scheme, got %q", t.Endpoint)
	}
	if t.AccessKey == "" || t.SecretKey == "" {
		return fmt.Errorf("access_key and secret_key are required")
	}
	if t.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if t.ObjectKey == "" {
		return fmt.Errorf("object_key is required")
	}
	return nil
}

// Receipt is the artifact recording a completed upload.
type Receipt struct {
	Endpoint    string    `json:"endpoint"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	ETag        string    `json:"etag"`
	VersionID   string    `json:"version_id,omitempty"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// contentType guesses the MIME type of a file from its extension.
func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Publish uploads a file to S3-compatible object storage.
func Publish(ctx context.Context, source string, t Target) (*Receipt, error) {
	logger := ctxlog.FromContext(ctx).With("bucket", t.Bucket, "key", t.ObjectKey)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("failed to stat source file '%s': %w", source, err)
	}

	client, err := minio.New(t.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(t.AccessKey, t.SecretKey, ""),
		Secure: t.Secure,
		Region: t.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, t.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket '%s': %w", t.Bucket, err)
	}
	if !exists {
		if !t.CreateBucket {
			return nil, fmt.Errorf("bucket '%s' does not exist", t.Bucket)
		}
		logger.Info("Creating bucket.")
		if err := client.MakeBucket(ctx, t.Bucket, minio.MakeBucketOptions{Region: t.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", t.Bucket, err)
		}
	}

	ct := contentType(source)
	logger.Info("Uploading artifact.", "source", source, "content_type", ct)
	info, err := client.FPutObject(ctx, t.Bucket, t.ObjectKey, source, minio.PutObjectOptions{ContentType: ct})
	if err != nil {
		return nil, fmt.Errorf("failed to upload '%s': %w", source, err)
	}
	logger.Info("Successfully uploaded artifact.", "size", info.Size, "etag", info.ETag)

	return &Receipt{
		Endpoint:    t.Endpoint,
		Bucket:      info.Bucket,
		Key:         info.Key,
		ETag:        info.ETag,
		VersionID:   info.VersionID,
		Size:        info.Size,
		ContentType: ct,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Run is the component entry point. Object keys may use {run_id} and
// {job} placeholders.
func Run(ctx context.Context, inv *component.Invocation) error {
	source, err := inv.String("source")
	if err != nil {
		return err
	}
	var t Target
	for _, in := range []struct {
		name string
		dst  *string
	}{
		{"endpoint", &t.Endpoint},
		{"access_key", &t.AccessKey},
		{"secret_key", &t.SecretKey},
		{"bucket", &t.Bucket},
		{"object_key", &t.ObjectKey},
	} {
		if *in.dst, err = inv.String(in.name); err != nil {
			return err
		}
	}
	if t.Region, err = inv.OptionalString("region", ""); err != nil {
		return err
	}
	if t.Secure, err = inv.Bool("secure", true); err != nil {
		return err
	}
	if t.CreateBucket, err = inv.Bool("create_bucket", true); err != nil {
		return err
	}
	out, err := inv.Output("receipt")
	if err != nil {
		return err
	}

	t.ObjectKey = strings.NewReplacer("{run_id}", inv.RunID, "{job}", inv.Job, "{pipeline}", inv.Pipeline).Replace(t.ObjectKey)
	receipt, err := Publish(ctx, source, t)
	if err != nil {
		return err
	}
	return artifact.WriteJSON(out, receipt)
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Registration{
		Name:        Name,
		Description: "Upload an artifact to S3-compatible object storage.",
		Inputs: []string{
			"source", "endpoint", "access_key", "secret_key", "bucket",
			"object_key", "region", "secure", "create_bucket",
		},
		Outputs:   []string{"receipt"},
		Component: component.Func(Run),
	})
}
