package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	return NewLocalStore(t.TempDir(), zerolog.Nop())
}

func TestSaveCopyRemove(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	rel, err := s.Save(DirEventCards, "Poster.JPG", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(rel, DirEventCards+"/") || !strings.HasSuffix(rel, ".jpg") {
		t.Fatalf("unexpected path %q", rel)
	}

	cp, err := s.Copy(rel, DirEventCovers)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if cp == rel || !strings.HasPrefix(cp, DirEventCovers+"/") {
		t.Fatalf("copy path %q", cp)
	}
	b, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(cp)))
	if err != nil || string(b) != "img" {
		t.Fatalf("copy content = %q, %v", b, err)
	}

	if err := s.Remove(rel); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(rel); err != nil {
		t.Fatalf("second Remove must be a no-op: %v", err)
	}
	if got, err := s.Copy(rel, DirEventCovers); err != nil || got != "" {
		t.Fatalf("copy of missing file = %q, %v", got, err)
	}
}

func TestSaveRejects(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	if _, err := s.Save(DirBanners, "script.sh", strings.NewReader("x")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Remove("../etc/passwd"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("err = %v", err)
	}
}

func TestChangeCommitAndAbort(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	old, err := s.Save(DirTourCards, "a.png", strings.NewReader("old"))
	if err != nil {
		t.Fatal(err)
	}

	ch := Begin(s, zerolog.Nop())
	fresh, err := ch.Save(DirTourCards, "b.png", strings.NewReader("new"))
	if err != nil {
		t.Fatal(err)
	}
	ch.Release(old)
	ch.Commit()
	if exists(s, old) || !exists(s, fresh) {
		t.Fatal("commit must drop the old file and keep the new one")
	}

	ch = Begin(s, zerolog.Nop())
	failed, err := ch.Save(DirTourCards, "c.png", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	ch.Release(fresh)
	ch.Abort()
	if exists(s, failed) || !exists(s, fresh) {
		t.Fatal("abort must drop the new file and keep the released one")
	}
}

func exists(s *LocalStore, rel string) bool {
	_, err := os.Stat(filepath.Join(s.Root(), filepath.FromSlash(rel)))
	return err == nil
}

type usage []string

func (u usage) UsedMedia(context.Context) ([]string, error) { return u, nil }

func TestSweep(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	keep, _ := s.Save(DirBanners, "keep.webp", strings.NewReader("k"))
	drop, _ := s.Save(DirBanners, "drop.gif", strings.NewReader("d"))
	if err := os.WriteFile(filepath.Join(s.Root(), ".gitignore.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Root(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sw := NewSweeper(s, usage{keep, ""}, 0, zerolog.Nop())

	dry, err := sw.Run(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if dry.Images != 2 || dry.Used != 1 || !slices.Equal(dry.Unused, []string{drop}) || dry.Removed != 0 {
		t.Fatalf("dry run = %+v", dry)
	}
	if !exists(s, drop) {
		t.Fatal("dry run must not delete")
	}

	res, err := sw.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 1 || exists(s, drop) || !exists(s, keep) {
		t.Fatalf("sweep = %+v", res)
	}
}

func TestSweepMissingRoot(t *testing.T) {
	t.Parallel()
	s := NewLocalStore(filepath.Join(t.TempDir(), "absent"), zerolog.Nop())
	res, err := NewSweeper(s, usage{}, DefaultMinAge, zerolog.Nop()).Run(context.Background(), false)
	if err != nil || res.Images != 0 {
		t.Fatalf("sweep over missing root = %+v, %v", res, err)
	}
}

func TestSweepKeepsRecentUploads(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	old, _ := s.Save(DirBanners, "old.png", strings.NewReader("o"))
	past := time.Now().Add(-2 * DefaultMinAge)
	if err := os.Chtimes(filepath.Join(s.Root(), filepath.FromSlash(old)), past, past); err != nil {
		t.Fatal(err)
	}

	// upload written, record not yet saved
	ch := Begin(s, zerolog.Nop())
	fresh, err := ch.Save(DirEventCards, "poster.jpg", strings.NewReader("p"))
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewSweeper(s, usage{}, DefaultMinAge, zerolog.Nop()).Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	ch.Commit()

	if res.Removed != 1 || res.Recent != 1 || !slices.Equal(res.Unused, []string{old}) {
		t.Fatalf("sweep = %+v", res)
	}
	if !exists(s, fresh) {
		t.Fatal("pending upload was removed")
	}
	if exists(s, old) {
		t.Fatal("stale unreferenced file was kept")
	}
}
