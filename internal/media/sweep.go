package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// UsageSource lists every media path referenced by the database.
type UsageSource interface {
	UsedMedia(ctx context.Context) ([]string, error)
}

// SweepResult describes one sweep over the media root.
type SweepResult struct {
	Images  int      // image files found
	Used    int      // distinct paths referenced by the database
	Unused  []string // unreferenced image paths, relative to root
	Recent  int      // unreferenced but younger than the minimum age, kept
	Removed int
	Failed  int
	DryRun  bool
}

// Sweeper removes image files that no record references.
type Sweeper struct {
	store  *LocalStore
	usage  UsageSource
	minAge time.Duration
	log    zerolog.Logger
}

// DefaultMinAge protects uploads whose record has not been written yet.
const DefaultMinAge = time.Hour

// NewSweeper returns a sweeper that leaves files modified within minAge
// alone. Zero disables the check.
func NewSweeper(store *LocalStore, usage UsageSource, minAge time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, usage: usage, minAge: minAge, log: log}
}

// Run walks the media root. Dot files and non-image files are ignored. With
// dryRun set nothing is deleted.
func (s *Sweeper) Run(ctx context.Context, dryRun bool) (SweepResult, error) {
	res := SweepResult{DryRun: dryRun, Unused: []string{}}

	paths, err := s.usage.UsedMedia(ctx)
	if err != nil {
		return res, fmt.Errorf("list used media: %w", err)
	}
	used := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p != "" {
			used[filepath.ToSlash(filepath.Clean(p))] = struct{}{}
		}
	}
	res.Used = len(used)
	cutoff := time.Now().Add(-s.minAge)

	root := s.store.Root()
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || !IsImage(d.Name()) {
			return nil
		}
		res.Images++
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, ok := used[rel]; ok {
			return nil
		}
		if s.minAge > 0 {
			info, err := d.Info()
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			if info.ModTime().After(cutoff) {
				res.Recent++
				return nil
			}
		}
		res.Unused = append(res.Unused, rel)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk media root: %w", err)
	}

	if dryRun {
		for _, rel := range res.Unused {
			s.log.Info().Str("path", rel).Msg("unused media (dry run)")
		}
		return res, nil
	}
	for _, rel := range res.Unused {
		if err := s.store.Remove(rel); err != nil {
			res.Failed++
			s.log.Error().Err(err).Str("path", rel).Msg("remove unused media")
			continue
		}
		res.Removed++
		s.log.Info().Str("path", rel).Msg("removed unused media")
	}
	return res, nil
}
