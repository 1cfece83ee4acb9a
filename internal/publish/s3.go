package publish

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
)

const defaultRegion = "us-east-1"

// ObjectStore is the subset of *minio.Client used by S3Publisher.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// S3Publisher mirrors the output tree into a bucket: every file is uploaded
// under the configured prefix and objects no longer present are removed.
// The output .git directory is never uploaded.
type S3Publisher struct {
	store  ObjectStore
	bucket string
	region string
	prefix string
	dryRun bool
	out    io.Writer
	logger *slog.Logger
}

// NewS3Publisher connects a minio client for cfg.
func NewS3Publisher(cfg config.S3Config) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.ConfigError("s3 endpoint is required").Build()
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.ConfigError("s3 bucket is required").Build()
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "init s3 client").WithContext("endpoint", endpoint).Build()
	}
	return NewS3PublisherWithStore(client, bucket, region, cfg.Prefix), nil
}

// NewS3PublisherWithStore builds a publisher over an existing store.
func NewS3PublisherWithStore(store ObjectStore, bucket, region, prefix string) *S3Publisher {
	if region == "" {
		region = defaultRegion
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Publisher{store: store, bucket: bucket, region: region, prefix: prefix, out: io.Discard, logger: slog.Default()}
}

// WithDryRun prints the planned uploads to out instead of performing them.
func (p *S3Publisher) WithDryRun(dryRun bool, out io.Writer) *S3Publisher {
	p.dryRun = dryRun
	if out != nil {
		p.out = out
	}
	return p
}

// WithLogger sets the logger (fluent helper).
func (p *S3Publisher) WithLogger(l *slog.Logger) *S3Publisher {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
}

// Publish uploads dir. The commit message is unused.
func (p *S3Publisher) Publish(ctx context.Context, dir, _ string) (Outcome, error) {
	keys, err := objectKeys(dir, p.prefix)
	if err != nil {
		return Outcome{}, errors.WrapError(err, errors.CategoryFileSystem, "list output tree").WithContext("dir", dir).Build()
	}
	if p.dryRun {
		for _, k := range keys {
			_, _ = fmt.Fprintf(p.out, "Upload %s to s3://%s/%s\n", k.rel, p.bucket, k.key)
		}
		return Outcome{}, nil
	}
	if err := p.ensureBucket(ctx); err != nil {
		return Outcome{}, p.wrap(err, "ensure bucket")
	}

	var res Outcome
	live := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if err := p.upload(ctx, filepath.Join(dir, filepath.FromSlash(k.rel)), k.key); err != nil {
			return res, p.wrap(err, "upload object").WithContext("key", k.key)
		}
		live[k.key] = struct{}{}
		res.Uploaded++
	}
	for obj := range p.store.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Prefix: p.prefix, Recursive: true}) {
		if obj.Err != nil {
			return res, p.wrap(obj.Err, "list objects")
		}
		if _, ok := live[obj.Key]; ok || obj.Key == "" {
			continue
		}
		if err := p.store.RemoveObject(ctx, p.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return res, p.wrap(err, "remove stale object").WithContext("key", obj.Key)
		}
		res.Removed++
	}
	p.logger.Info("Uploaded output", logfields.Bucket(p.bucket), logfields.Count(res.Uploaded), slog.Int("removed", res.Removed))
	return res, nil
}

func (p *S3Publisher) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = p.store.PutObject(ctx, p.bucket, key, f, st.Size(), minio.PutObjectOptions{ContentType: contentType(key)})
	return err
}

func (p *S3Publisher) wrap(err error, msg string) *errors.ClassifiedError {
	return errors.PublishError(msg).WithCause(err).WithContext("bucket", p.bucket).Build()
}

type objectKey struct {
	rel string // slash path relative to the output root
	key string
}

// objectKeys lists the regular files under dir, skipping the .git directory.
func objectKeys(dir, prefix string) ([]objectKey, error) {
	var keys []objectKey
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		keys = append(keys, objectKey{rel: rel, key: prefix + rel})
		return nil
	})
	return keys, err
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
