package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyphadb/hypha/backend"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	require.Equal(t, "", cfg.Backend.Kind)

	adapter, err := cfg.BuildAdapter(context.Background())
	require.NoError(t, err)
	require.IsType(t, &backend.MemoryAdapter{}, adapter)
}

func TestParse_Local(t *testing.T) {
	cfg, err := Parse([]byte(`
backend:
  kind: local
  path: /tmp/hypha-data
branch: experiments
compression: lz4
`))
	require.NoError(t, err)
	require.Equal(t, KindLocal, cfg.Backend.Kind)
	require.Equal(t, "/tmp/hypha-data", cfg.Backend.Path)
	require.Equal(t, "experiments", cfg.Branch)
	require.Equal(t, "lz4", cfg.Compression)
}

func TestParse_MissingPath(t *testing.T) {
	_, err := Parse([]byte("backend:\n  kind: sqlite\n"))
	require.ErrorContains(t, err, "requires path")
}

func TestParse_MissingBucket(t *testing.T) {
	_, err := Parse([]byte("backend:\n  kind: s3\n"))
	require.ErrorContains(t, err, "requires bucket")
}

func TestParse_UnknownKind(t *testing.T) {
	_, err := Parse([]byte("backend:\n  kind: floppy\n"))
	require.ErrorContains(t, err, "unknown backend kind")
}

func TestParse_MinIORequiresEndpoint(t *testing.T) {
	_, err := Parse([]byte("backend:\n  kind: minio\n  bucket: b\n"))
	require.ErrorContains(t, err, "requires endpoint")
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hypha.yaml")
	writeFile(t, path, "backend:\n  kind: badger\n  path: "+filepath.Join(dir, "db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, KindBadger, cfg.Backend.Kind)
}

func TestBuildAdapter_SQLite(t *testing.T) {
	cfg, err := Parse([]byte("backend:\n  kind: sqlite\n  path: " +
		filepath.Join(t.TempDir(), "db.sqlite") + "\n"))
	require.NoError(t, err)

	adapter, err := cfg.BuildAdapter(context.Background())
	require.NoError(t, err)
	require.NotNil(t, adapter)

	require.NoError(t, adapter.WriteObject(context.Background(), "k", []byte("v")))
	got, err := adapter.ReadObject(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}
