// Package s3 lands extracts from an S3 bucket onto local disk.
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"olympics/internal/datasource"
	"olympics/internal/logger"
)

// Client is the subset of the S3 API the lander needs.
type Client interface {
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

var _ Client = (*awss3.Client)(nil)

// Credentials are the static key pair and optional endpoint overrides used to
// build a real client.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	// Endpoint, when set, points the client at an S3-compatible store and
	// enables path-style addressing.
	Endpoint string
}

// NewClient builds an S3 client from explicit credentials. Nothing is read
// from shared config files or the environment beyond the SDK defaults for
// retries and transport.
func NewClient(ctx context.Context, c Credentials) (*awss3.Client, error) {
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Lander downloads every *.csv object under a prefix into a flat directory.
type Lander struct {
	client Client
	log    *logger.Logger

	// Concurrency bounds parallel downloads. Zero means 4.
	Concurrency int
}

var _ datasource.Lander = (*Lander)(nil)

// NewLander returns a Lander using client. A nil log discards output.
func NewLander(client Client, log *logger.Logger) *Lander {
	if log == nil {
		log = logger.Nop()
	}
	return &Lander{client: client, log: log}
}

// Land lists bucket/subfolder/ and writes each .csv object to dir under its
// base name, replacing existing files. Objects whose base names collide are
// rejected. It returns the landed paths in sorted order, or
// *datasource.NoFilesFoundError when nothing matched.
func (l *Lander) Land(ctx context.Context, bucket, subfolder, dir string) ([]string, error) {
	prefix := strings.Trim(subfolder, "/")
	if prefix != "" {
		prefix += "/"
	}

	keys, err := l.list(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &datasource.NoFilesFoundError{Location: "s3://" + bucket + "/" + prefix}
	}

	targets := make(map[string]string, len(keys))
	for _, k := range keys {
		base := path.Base(k)
		if prev, dup := targets[base]; dup {
			return nil, fmt.Errorf("s3: objects %q and %q land on the same file %s", prev, k, base)
		}
		targets[base] = k
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("s3: create %s: %w", dir, err)
	}

	limit := l.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	landed := make([]string, 0, len(targets))
	for base, key := range targets {
		dst := filepath.Join(dir, base)
		landed = append(landed, dst)
		key := key
		g.Go(func() error { return l.download(gctx, bucket, key, dst) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(landed)
	l.log.Info("landed extracts", "bucket", bucket, "prefix", prefix, "dir", dir, "files", len(landed))
	return landed, nil
}

func (l *Lander) list(ctx context.Context, bucket, prefix string) ([]string, error) {
	in := &awss3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	var keys []string
	pages := awss3.NewListObjectsV2Paginator(l.client, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			k := aws.ToString(obj.Key)
			if strings.HasSuffix(k, "/") || !strings.EqualFold(path.Ext(k), ".csv") {
				continue
			}
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// download writes the object to a temporary sibling of dst and renames it into
// place so a failed transfer never leaves a truncated extract behind.
func (l *Lander) download(ctx context.Context, bucket, key, dst string) error {
	out, err := l.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".landing-*")
	if err != nil {
		return fmt.Errorf("s3: create temp for %s: %w", dst, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, out.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("s3: write %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("s3: rename %s: %w", dst, err)
	}
	l.log.Debug("landed object", "key", key, "bytes", n)
	return nil
}
