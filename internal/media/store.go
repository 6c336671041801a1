// Package media stores uploaded images under a root directory and removes
// files once the database no longer references them.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Upload directories, relative to the media root.
const (
	DirEventCards  = "events/cards"
	DirEventCovers = "events/covers"
	DirTourCards   = "tours/cards"
	DirTourCovers  = "tours/covers"
	DirBanners     = "banners"
)

var (
	ErrNotImage    = errors.New("file is not a supported image")
	ErrInvalidPath = errors.New("invalid media path")
)

var imageExt = regexp.MustCompile(`\.(jpg|jpeg|png|gif|webp|svg)$`)

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	return imageExt.MatchString(strings.ToLower(name))
}

// Store is the file side of a record with images.
type Store interface {
	Save(dir, originalName string, r io.Reader) (string, error)
	Copy(rel, dir string) (string, error)
	Remove(rel string) error
}

// LocalStore keeps files on the local filesystem. Returned paths are
// slash-separated and relative to the root, which is what the database holds.
type LocalStore struct {
	root string
	log  zerolog.Logger
}

func NewLocalStore(root string, log zerolog.Logger) *LocalStore {
	return &LocalStore{root: root, log: log}
}

// Root returns the directory files are stored under.
func (s *LocalStore) Root() string { return s.root }

// abs maps a relative media path to a filesystem path inside root.
func (s *LocalStore) abs(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

func newName(dir, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	return path.Join(dir, strings.ReplaceAll(uuid.NewString(), "-", "")+ext)
}

// Save writes r under dir with a random file name that keeps the
// extension of originalName.
func (s *LocalStore) Save(dir, originalName string, r io.Reader) (string, error) {
	if !IsImage(originalName) {
		return "", fmt.Errorf("%w: %q", ErrNotImage, originalName)
	}
	rel := newName(dir, originalName)
	dst, err := s.abs(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return rel, nil
}

// Copy duplicates the file at rel into dir under a new random name. An empty
// rel or a missing source yields an empty path and no error, so a duplicated
// record simply has no image.
func (s *LocalStore) Copy(rel, dir string) (string, error) {
	if rel == "" {
		return "", nil
	}
	src, err := s.abs(rel)
	if err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Str("path", rel).Msg("media copy source missing")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer in.Close()
	return s.Save(dir, path.Base(rel), in)
}

// Remove deletes the file at rel. Missing files are not an error.
func (s *LocalStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	p, err := s.abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// Change groups the file operations of one record mutation. Files saved
// through it are removed by Abort; files passed to Release are removed by
// Commit. Call exactly one of them after the database change settles.
type Change struct {
	store    Store
	log      zerolog.Logger
	created  []string
	released []string
}

// Begin starts a change against store.
func Begin(store Store, log zerolog.Logger) *Change {
	return &Change{store: store, log: log}
}

// Save stores a new file and remembers it for Abort.
func (c *Change) Save(dir, originalName string, r io.Reader) (string, error) {
	rel, err := c.store.Save(dir, originalName, r)
	if err != nil {
		return "", err
	}
	c.created = append(c.created, rel)
	return rel, nil
}

// Copy duplicates a file and remembers the copy for Abort.
func (c *Change) Copy(rel, dir string) (string, error) {
	out, err := c.store.Copy(rel, dir)
	if err != nil {
		return "", err
	}
	if out != "" {
		c.created = append(c.created, out)
	}
	return out, nil
}

// Release marks files that become unreferenced once the change commits.
func (c *Change) Release(paths ...string) {
	for _, p := range paths {
		if p != "" {
			c.released = append(c.released, p)
		}
	}
}

// Commit removes released files. Failures are logged; the record is already
// saved and a leftover file is collected by the unused media sweep.
func (c *Change) Commit() {
	c.remove(c.released, "release")
	c.created, c.released = nil, nil
}

// Abort removes the files created during the change.
func (c *Change) Abort() {
	c.remove(c.created, "abort")
	c.created, c.released = nil, nil
}

func (c *Change) remove(paths []string, op string) {
	for _, p := range paths {
		if err := c.store.Remove(p); err != nil {
			c.log.Warn().Err(err).Str("path", p).Str("op", op).Msg("media remove failed")
		}
	}
}
