package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates/fs"
)

func TestFilesystemSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "flatblocks"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flatblocks", "custom.html"), []byte("custom"), 0644))

	src, err := fs.New(fs.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	data, err := src.ReadTemplate(ctx, "flatblocks/custom.html")
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data))

	_, err = src.ReadTemplate(ctx, "flatblocks/missing.html")
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)

	_, err = src.ReadTemplate(ctx, "../outside.html")
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)

	require.NoError(t, src.PutTemplate(ctx, "new/dir/page.html", []byte("new")))
	data, err = src.ReadTemplate(ctx, "new/dir/page.html")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	assert.Error(t, src.PutTemplate(ctx, "../escape.html", []byte("x")))
}

func TestFilesystemSource_InvalidConfig(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)

	_, err = fs.New(fs.Config{BaseDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = fs.New(fs.Config{BaseDir: file})
	assert.Error(t, err)
}
