// Package miniostore provides a MinIO / S3-compatible Adapter.
package miniostore

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/hyphadb/hypha/backend"
)

// Adapter implements backend.Adapter for MinIO and other S3-compatible
// object stores.
type Adapter struct {
	client  *minio.Client
	bucket  string
	prefix  string
	profile backend.BatchProfile
}

var _ backend.Adapter = (*Adapter)(nil)

// New creates a new MinIO adapter. rootPrefix is prepended to all keys.
func New(client *minio.Client, bucket, rootPrefix string) *Adapter {
	return &Adapter{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		profile: backend.BatchProfile{
			MaxBatchSize:           100,
			BatchDelay:             10 * time.Millisecond,
			MaxConcurrent:          16,
			SupportsParallelWrites: true,
			RateLimit: backend.RateLimit{
				OperationsPerSecond: 1000,
				BurstCapacity:       200,
			},
		},
	}
}

func (a *Adapter) key(p string) string {
	return path.Join(a.prefix, p)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

// WriteObject stores value at path.
func (a *Adapter) WriteObject(ctx context.Context, p string, value []byte) error {
	_, err := a.client.PutObject(ctx, a.bucket, a.key(p),
		bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
	return err
}

// ReadObject returns the object at path, or backend.ErrNotFound.
func (a *Adapter) ReadObject(ctx context.Context, p string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, a.key(p), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; missing keys surface on first read.
		if isNotFound(err) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// DeleteObject removes the object at path.
func (a *Adapter) DeleteObject(ctx context.Context, p string) error {
	err := a.client.RemoveObject(ctx, a.bucket, a.key(p), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// ListPaths returns all object paths with the given prefix, sorted,
// stripped of the adapter's root prefix.
func (a *Adapter) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := a.key(prefix)
	keys := make([]string, 0)

	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		rel := obj.Key
		if a.prefix != "" {
			rel = strings.TrimPrefix(rel, a.prefix)
			rel = strings.TrimPrefix(rel, "/")
		}
		keys = append(keys, rel)
	}

	sort.Strings(keys)
	return keys, nil
}

// Profile declares the adapter's batch characteristics.
func (a *Adapter) Profile() backend.BatchProfile { return a.profile }
