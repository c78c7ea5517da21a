package maintenance

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/uniwork-be/internal/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticImages struct {
	paths []string
	err   error
}

func (s staticImages) ListPostImages(context.Context) ([]string, error) {
	return s.paths, s.err
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func saveImage(t *testing.T, storage *uploads.Storage, age time.Duration) string {
	t.Helper()
	public, err := storage.Save(bytes.NewReader(pngHeader), "image/png")
	require.NoError(t, err)
	disk, ok := storage.DiskPath(public)
	require.True(t, ok)
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(disk, mod, mod))
	return public
}

func TestSweep(t *testing.T) {
	storage, err := uploads.New(filepath.Join(t.TempDir(), "images"), 1024)
	require.NoError(t, err)

	referenced := saveImage(t, storage, 2*time.Hour)
	orphan := saveImage(t, storage, 2*time.Hour)
	fresh := saveImage(t, storage, time.Minute)

	s := NewSweeper(staticImages{paths: []string{referenced}}, storage, time.Hour)
	removed, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	files, err := storage.List()
	require.NoError(t, err)
	var left []string
	for _, f := range files {
		left = append(left, f.PublicPath)
	}
	assert.ElementsMatch(t, []string{referenced, fresh}, left)
	assert.NotContains(t, left, orphan)
}

func TestSweep_ListError(t *testing.T) {
	storage, err := uploads.New(filepath.Join(t.TempDir(), "images"), 1024)
	require.NoError(t, err)
	orphan := saveImage(t, storage, 2*time.Hour)

	s := NewSweeper(staticImages{err: errors.New("db down")}, storage, time.Hour)
	_, err = s.Sweep(context.Background())
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(storage.Dir(), filepath.Base(orphan)))
	assert.NoError(t, statErr, "nothing is removed when references are unknown")
}

func TestStart_InvalidSchedule(t *testing.T) {
	storage, err := uploads.New(t.TempDir(), 1024)
	require.NoError(t, err)
	s := NewSweeper(staticImages{}, storage, time.Hour)
	assert.Error(t, s.Start("not a schedule"))
}
