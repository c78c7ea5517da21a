// Package uploads stores post images on local disk and maps them to the
// public path they are served under.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path (without leading slash) images are served
// under. Post.Image values start with it.
const PublicPrefix = "uploads/images"

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds size limit")
)

// mimeExtensions maps accepted content types to the stored file extension.
var mimeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

// Storage writes images into a single directory.
type Storage struct {
	dir      string
	maxBytes int64
}

// New creates the directory if needed and returns a Storage rooted there.
func New(dir string, maxBytes int64) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Storage{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory images are stored in.
func (s *Storage) Dir() string { return s.dir }

// MaxBytes returns the size limit for a single image.
func (s *Storage) MaxBytes() int64 { return s.maxBytes }

// Save writes the image read from r and returns its public path. The
// declared content type must be an accepted image type and must agree with
// the sniffed content.
func (s *Storage) Save(r io.Reader, contentType string) (string, error) {
	ext, ok := mimeExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading image: %w", err)
	}
	head = head[:n]
	if _, ok := mimeExtensions[http.DetectContentType(head)]; !ok {
		return "", fmt.Errorf("%w: content is %s", ErrUnsupportedType, http.DetectContentType(head))
	}

	name := uuid.New().String() + "." + ext
	diskPath := filepath.Join(s.dir, name)

	f, err := os.OpenFile(diskPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}

	src := io.MultiReader(strings.NewReader(string(head)), r)
	written, err := io.Copy(f, io.LimitReader(src, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(diskPath) // Clean up partial file
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("writing image file: %w", err)
	}

	return path.Join(PublicPrefix, name), nil
}

// DiskPath maps a public image path to its location on disk. It returns
// false for paths outside PublicPrefix.
func (s *Storage) DiskPath(publicPath string) (string, bool) {
	name, ok := strings.CutPrefix(publicPath, PublicPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

// Remove deletes the image at publicPath. A missing file is not an error.
func (s *Storage) Remove(publicPath string) error {
	diskPath, ok := s.DiskPath(publicPath)
	if !ok {
		return fmt.Errorf("refusing to remove %q: not an upload path", publicPath)
	}
	if err := os.Remove(diskPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// File describes a stored image.
type File struct {
	PublicPath string
	ModTime    time.Time
}

// List returns every regular file in the upload directory.
func (s *Storage) List() ([]File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		files = append(files, File{PublicPath: path.Join(PublicPrefix, e.Name()), ModTime: info.ModTime()})
	}
	return files, nil
}
