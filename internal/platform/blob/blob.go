// Package blob stores attachment content outside the database. Callers keep
// only the opaque locator returned by Put.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/takeatask-api/internal/platform/logger"
)

var (
	// ErrNotFound is returned when no content exists for a locator.
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidLocator is returned for locators that are empty or point
	// outside the store.
	ErrInvalidLocator = errors.New("invalid blob locator")

	// ErrTooLarge is returned by Put when the content exceeds the size limit.
	ErrTooLarge = errors.New("blob exceeds size limit")
)

// DefaultExtension is used when Put receives no extension.
const DefaultExtension = "dat"

// Store persists opaque binary content.
type Store interface {
	// Put writes r and returns its locator and size in bytes.
	Put(ctx context.Context, r io.Reader, ext string) (string, int64, error)
	// Open returns the content stored under locator. The caller closes it.
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	// Delete removes the content. Deleting a missing locator is not an error.
	Delete(ctx context.Context, locator string) error
}

// LocalStore keeps blobs as files named <uuid>.<ext> in one directory.
type LocalStore struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates the root directory if needed. maxBytes <= 0 disables
// the size limit.
func NewLocalStore(root string, maxBytes int64, logger *slog.Logger) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob root %q: %w", abs, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{
		root:     abs,
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "blob_store")),
	}, nil
}

// Root returns the absolute directory holding the blobs.
func (s *LocalStore) Root() string {
	return s.root
}

// Put implements Store.
func (s *LocalStore) Put(ctx context.Context, r io.Reader, ext string) (string, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	locator := uuid.New().String() + "." + cleanExt(ext)
	path := filepath.Join(s.root, locator)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create blob: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("failed to write blob: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close blob: %w", closeErr)
	case s.maxBytes > 0 && n > s.maxBytes:
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		log.Warn("blob write failed", slog.String("error", err.Error()))
		return "", 0, err
	}

	log.Debug("blob stored", slog.String("locator", locator), slog.Int64("size", n))
	return locator, n, nil
}

// Open implements Store.
func (s *LocalStore) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Delete implements Store.
func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	path, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("blob deleted", slog.String("locator", locator))
	return nil
}

// resolve maps a locator to a path directly inside root.
func (s *LocalStore) resolve(locator string) (string, error) {
	if locator == "" || locator != filepath.Base(locator) || locator == "." || locator == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return filepath.Join(s.root, locator), nil
}

// cleanExt keeps the alphanumeric characters of ext, lower-cased.
func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 || b.Len() > 10 {
		return DefaultExtension
	}
	return b.String()
}

// ExtFromFilename returns the extension of name without the dot.
func ExtFromFilename(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}
