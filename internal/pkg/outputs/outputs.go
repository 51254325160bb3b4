// Package outputs guards the shared output directory and purges stale results.
//
// Generations hold a shared lock on the directory; a purge holds the exclusive lock, so
// it never removes files that are still being written.
package outputs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

// LockFileName is the lock file kept at the root of the output directory.
const LockFileName = ".vrewgen.lock"

const retryDelay = 50 * time.Millisecond

// ErrLocked is returned by TryExclusive when the directory is in use.
var ErrLocked = errors.New("output directory is in use")

// Lock is a held lock on an output directory.
type Lock struct {
	f *flock.Flock
}

// Release unlocks the directory.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Unlock()
}

func newFlock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return flock.New(filepath.Join(dir, LockFileName)), nil
}

// Shared waits for a shared lock on dir, creating dir if needed.
func Shared(ctx context.Context, dir string) (*Lock, error) {
	f, err := newFlock(dir)
	if err != nil {
		return nil, err
	}
	ok, err := f.TryRLockContext(ctx, retryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire shared lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{f: f}, nil
}

// Exclusive waits for the exclusive lock on dir.
func Exclusive(ctx context.Context, dir string) (*Lock, error) {
	f, err := newFlock(dir)
	if err != nil {
		return nil, err
	}
	ok, err := f.TryLockContext(ctx, retryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire exclusive lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{f: f}, nil
}

// TryExclusive takes the exclusive lock without waiting.
func TryExclusive(dir string) (*Lock, error) {
	f, err := newFlock(dir)
	if err != nil {
		return nil, err
	}
	ok, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire exclusive lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{f: f}, nil
}

// Failure is an entry that could not be removed.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report lists what a purge did.
type Report struct {
	Removed []string  `json:"removed"`
	Failed  []Failure `json:"failed,omitempty"`
}

// Cleanup removes top-level entries of dir last modified more than olderThan ago.
// Removal failures are collected in the report and do not stop the purge.
// A missing dir is not an error.
func Cleanup(ctx context.Context, dir string, olderThan time.Duration) (*Report, error) {
	report := &Report{}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return report, nil
	}

	lock, err := Exclusive(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("release output lock failed")
		}
	}()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if e.Name() == LockFileName {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			report.Failed = append(report.Failed, Failure{Path: path, Err: err.Error()})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			report.Failed = append(report.Failed, Failure{Path: path, Err: err.Error()})
			continue
		}
		report.Removed = append(report.Removed, path)
	}

	if len(report.Removed) > 0 || len(report.Failed) > 0 {
		log.Info().
			Str("dir", dir).
			Int("removed", len(report.Removed)).
			Int("failed", len(report.Failed)).
			Msg("stale outputs purged")
	}
	return report, nil
}
