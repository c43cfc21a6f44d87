package kapowarr

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comicbridge/comicbridge/internal/domain"
	domainerrors "github.com/comicbridge/comicbridge/internal/errors"
)

// trackingBody records whether it was read or closed.
type trackingBody struct {
	io.Reader
	read   bool
	closed bool
}

func (b *trackingBody) Read(p []byte) (int, error) {
	b.read = true
	return b.Reader.Read(p)
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func newFile(name, content string) (*domain.File, *trackingBody) {
	body := &trackingBody{Reader: strings.NewReader(content)}
	return &domain.File{Name: name, Size: int64(len(content)), Body: body}, body
}

func newStoreClient(t *testing.T, opts ...Option) (*Client, string) {
	t.Helper()
	root := t.TempDir()
	client := New(Config{Root: root}, testLogger(), opts...)
	client.rememberFolder("1", "/comics-1/Image/Saga")
	return client, root
}

func TestClient_StoreFile(t *testing.T) {
	client, root := newStoreClient(t)
	file, body := newFile("Saga 001 (2012).cbz", "comic-bytes")

	path, err := client.StoreFile(context.Background(), "1", "1", file)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "Image", "Saga", "Saga 001 (2012) #001.cbz"), path)
	assert.True(t, body.closed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "comic-bytes", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClient_StoreFile_AlreadyExists(t *testing.T) {
	client, root := newStoreClient(t)
	target := filepath.Join(root, "Image", "Saga", "Saga #001.cbz")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644))

	file, body := newFile("Saga #001.cbz", "replacement")
	path, err := client.StoreFile(context.Background(), "1", "1", file)

	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	assert.Equal(t, target, path)
	assert.False(t, body.read)
	assert.True(t, body.closed)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestClient_StoreFile_ReplacesEmptyFile(t *testing.T) {
	client, root := newStoreClient(t)
	target := filepath.Join(root, "Image", "Saga", "Saga #002.cbz")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	file, _ := newFile("Saga #002.cbz", "full")
	_, err := client.StoreFile(context.Background(), "1", "2", file)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "full", string(data))
}

func TestClient_StoreFile_EmptyDownload(t *testing.T) {
	client, root := newStoreClient(t)
	file, _ := newFile("Saga #003.cbz", "")

	_, err := client.StoreFile(context.Background(), "1", "3", file)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, statErr := os.Stat(filepath.Join(root, "Image", "Saga", "Saga #003.cbz"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestClient_StoreFile_DryRun(t *testing.T) {
	client, root := newStoreClient(t, WithDryRun(true))
	file, body := newFile("Saga.cbz", "bytes")

	path, err := client.StoreFile(context.Background(), "1", "4", file)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "Image", "Saga", "Saga #004.cbz"), path)
	assert.True(t, body.closed)
	_, statErr := os.Stat(filepath.Join(root, "Image"))
	assert.True(t, os.IsNotExist(statErr), "dry run must not create folders")
}

func TestClient_StoreFile_NoFolder(t *testing.T) {
	client, _ := newStoreClient(t)
	client.rememberFolder("dryrun-x", "")

	file, _ := newFile("a.cbz", "x")
	_, err := client.StoreFile(context.Background(), "dryrun-x", "1", file)
	assert.ErrorIs(t, err, ErrNoFolder)
}

func TestClient_StoreFile_InterruptedWriteLeavesNoFile(t *testing.T) {
	client, root := newStoreClient(t)
	body := io.MultiReader(strings.NewReader("half"), iotest.ErrReader(context.Canceled))
	file := &domain.File{Name: "Saga #005.cbz", Size: -1, Body: io.NopCloser(body)}

	_, err := client.StoreFile(context.Background(), "1", "5", file)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(filepath.Join(root, "Image", "Saga"))
	require.NoError(t, err)
	assert.Empty(t, entries, "neither the target nor a .part file may remain")
}

func TestClient_FileExists(t *testing.T) {
	client, root := newStoreClient(t)
	ctx := context.Background()

	path, exists, err := client.FileExists(ctx, "1", "1", "Saga 001 (2012).cbz")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(root, "Image", "Saga", "Saga 001 (2012) #001.cbz"), path)

	file, _ := newFile("Saga 001 (2012).cbz", "comic-bytes")
	stored, err := client.StoreFile(ctx, "1", "1", file)
	require.NoError(t, err)

	// Source locations may be full paths in either separator style.
	for _, name := range []string{
		"Saga 001 (2012).cbz",
		"/comics/Saga/Saga 001 (2012).cbz",
		`C:\comics\Saga\Saga 001 (2012).cbz`,
	} {
		path, exists, err = client.FileExists(ctx, "1", "1", name)
		require.NoError(t, err, name)
		assert.True(t, exists, name)
		assert.Equal(t, stored, path, name)
	}
}

func TestClient_FileExists_EmptyFileDoesNotCount(t *testing.T) {
	client, root := newStoreClient(t)
	target := filepath.Join(root, "Image", "Saga", "Saga #002.cbz")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	_, exists, err := client.FileExists(context.Background(), "1", "2", "Saga #002.cbz")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_FileExists_NoName(t *testing.T) {
	client, _ := newStoreClient(t)

	path, exists, err := client.FileExists(context.Background(), "1", "1", "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, path)
}

func TestClient_FileExists_NoFolder(t *testing.T) {
	client, _ := newStoreClient(t)
	client.rememberFolder("dryrun-x", "")

	_, _, err := client.FileExists(context.Background(), "dryrun-x", "1", "a.cbz")
	assert.ErrorIs(t, err, ErrNoFolder)
}

func TestClient_HostPath(t *testing.T) {
	client := New(Config{Root: "/mnt/kapowarr"}, testLogger())

	tests := []struct {
		folder string
		want   string
	}{
		{"/comics-1/Image/Saga", "/mnt/kapowarr/Image/Saga"},
		{"/comics-1", "/mnt/kapowarr"},
		{"Image/Saga", "/mnt/kapowarr/Image/Saga"},
		{"/comics-10/Saga", "/mnt/kapowarr/comics-10/Saga"},
		{"/comics-1/../../etc", "/mnt/kapowarr/etc"},
	}

	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), client.HostPath(tt.folder))
		})
	}
}

func TestIssueFilename(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{"Saga 001.cbz", "1", "Saga 001 #001.cbz"},
		{"Saga #1.cbz", "1", "Saga #1.cbz"},
		{"Saga # 12.cbr", "12", "Saga # 12.cbr"},
		{"Saga.cbz", "1.5", "Saga #1.5.cbz"},
		{"Saga.cbz", "", "Saga.cbz"},
		{"../escape.cbz", "2", "escape #002.cbz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, issueFilename(tt.name, tt.number))
		})
	}
}
