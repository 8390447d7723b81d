// Package s3 provides an Amazon S3 backed Adapter.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hyphadb/hypha/backend"
)

// Adapter implements backend.Adapter for S3. Object paths map to keys
// under an optional root prefix (e.g. "my-db/").
type Adapter struct {
	client  *s3.Client
	bucket  string
	prefix  string
	profile backend.BatchProfile
}

var _ backend.Adapter = (*Adapter)(nil)

// New creates a new S3 adapter.
func New(client *s3.Client, bucket, rootPrefix string) *Adapter {
	return &Adapter{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		profile: backend.BatchProfile{
			MaxBatchSize:           100,
			BatchDelay:             10 * time.Millisecond,
			MaxConcurrent:          25,
			SupportsParallelWrites: true,
			RateLimit: backend.RateLimit{
				OperationsPerSecond: 3500,
				BurstCapacity:       500,
			},
		},
	}
}

func (a *Adapter) key(p string) string {
	return path.Join(a.prefix, p)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

// WriteObject stores value at path.
func (a *Adapter) WriteObject(ctx context.Context, p string, value []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(p)),
		Body:   bytes.NewReader(value),
	})
	return err
}

// ReadObject returns the object at path, or backend.ErrNotFound.
func (a *Adapter) ReadObject(ctx context.Context, p string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// DeleteObject removes the object at path. S3 deletes are idempotent.
func (a *Adapter) DeleteObject(ctx context.Context, p string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(p)),
	})
	return err
}

// ListPaths returns all object paths with the given prefix, sorted,
// stripped of the adapter's root prefix.
func (a *Adapter) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := a.key(prefix)
	keys := make([]string, 0)

	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rel := aws.ToString(obj.Key)
			if a.prefix != "" {
				rel = strings.TrimPrefix(rel, a.prefix)
				rel = strings.TrimPrefix(rel, "/")
			}
			keys = append(keys, rel)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Profile declares the adapter's batch characteristics.
func (a *Adapter) Profile() backend.BatchProfile { return a.profile }
