// Package blob stores complaint evidence under path-addressed keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// PublicPrefix is the only top-level folder uploads may target.
	PublicPrefix = "public/"
	// AllowedExtension is the only extension the bucket accepts.
	AllowedExtension = ".jpg"
)

var (
	ErrPolicyViolation = errors.New("upload rejected by storage policy")
	ErrTooLarge        = errors.New("upload exceeds size limit")
	ErrExists          = errors.New("object already exists")
	ErrNotFound        = errors.New("object not found")
)

type Object struct {
	Key  string
	Size int64
}

type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// DiskStore keeps objects as files below a root directory and applies the
// same prefix and extension policy as the hosted evidence bucket.
type DiskStore struct {
	root     string
	baseURL  string
	maxBytes int64
}

func NewDiskStore(root, baseURL string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

// CheckPolicy validates a key against the bucket policy without touching disk.
func CheckPolicy(key string) error {
	if key == "" || path.Clean(key) != key || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: malformed key %q", ErrPolicyViolation, key)
	}
	if !strings.HasPrefix(key, PublicPrefix) {
		return fmt.Errorf("%w: key must be under %s", ErrPolicyViolation, PublicPrefix)
	}
	if strings.ToLower(path.Ext(key)) != AllowedExtension {
		return fmt.Errorf("%w: only %s objects are accepted", ErrPolicyViolation, AllowedExtension)
	}
	return nil
}

func (s *DiskStore) pathFor(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := CheckPolicy(key); err != nil {
		return Object{}, err
	}

	dst := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return Object{}, fmt.Errorf("failed to create object directory: %w", err)
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return Object{}, ErrExists
		}
		return Object{}, fmt.Errorf("failed to create object: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		os.Remove(dst)
		return Object{}, fmt.Errorf("failed to write object: %w", copyErr)
	case closeErr != nil:
		os.Remove(dst)
		return Object{}, fmt.Errorf("failed to write object: %w", closeErr)
	case s.maxBytes > 0 && n > s.maxBytes:
		os.Remove(dst)
		return Object{}, ErrTooLarge
	}
	return Object{Key: key, Size: n}, nil
}

func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckPolicy(key); err != nil {
		return nil, err
	}
	f, err := os.Open(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	if err := CheckPolicy(key); err != nil {
		return err
	}
	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public address of key, or "" when no base URL is configured.
func (s *DiskStore) URL(key string) string {
	if s.baseURL == "" {
		return ""
	}
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}
