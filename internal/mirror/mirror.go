// Package mirror keeps a destination directory in sync with a source
// directory: new and changed files are copied, entries which no longer exist
// at the source (or are excluded by the policy) are removed from the
// destination.
package mirror

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/exclude"
	rfs "github.com/repobak/repobak/internal/fs"
)

// Action describes what happened to an item during a sync.
type Action int

const (
	ActionCopied Action = iota
	ActionUnchanged
	ActionExcluded
	ActionRemoved
)

func (a Action) String() string {
	switch a {
	case ActionCopied:
		return "copied"
	case ActionUnchanged:
		return "unchanged"
	case ActionExcluded:
		return "excluded"
	case ActionRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ErrorFunc is called when an error occurs for item during a sync. If it
// returns nil, the item is skipped and the sync continues, otherwise the sync
// is aborted and the error is returned.
type ErrorFunc func(item string, err error) error

// CompleteFunc is called for every item once it has been dealt with.
type CompleteFunc func(item string, action Action)

// Stats summarise a sync.
type Stats struct {
	// Files is the number of regular files found at the source, excluded
	// ones included.
	Files     uint
	Excluded  uint
	Unchanged uint
	Copied    uint
	Failed    uint
	// Removed counts entries deleted from the destination.
	Removed uint
	// Bytes is the amount of data copied.
	Bytes   uint64
	Elapsed time.Duration
}

// Add adds the counters of other to s.
func (s *Stats) Add(other Stats) {
	s.Files += other.Files
	s.Excluded += other.Excluded
	s.Unchanged += other.Unchanged
	s.Copied += other.Copied
	s.Failed += other.Failed
	s.Removed += other.Removed
	s.Bytes += other.Bytes
	s.Elapsed += other.Elapsed
}

// Options change how unchanged files are detected.
type Options struct {
	// Checksum compares the content of files with equal size but a different
	// modification time instead of copying them right away.
	Checksum bool
}

// Mirror copies source trees to destination trees, filtered by a policy. A
// Mirror does not keep state between calls to Sync and can be used
// concurrently for disjoint destinations.
type Mirror struct {
	Policy *exclude.Policy
	Options

	Error    ErrorFunc
	Complete CompleteFunc
}

// New returns a Mirror which applies policy, which may be nil.
func New(policy *exclude.Policy, opts Options) *Mirror {
	return &Mirror{
		Policy:   policy,
		Options:  opts,
		Error:    func(_ string, _ error) error { return nil },
		Complete: func(_ string, _ Action) {},
	}
}

func (m *Mirror) error(item string, err error) error {
	if m.Error == nil {
		return nil
	}
	return m.Error(item, err)
}

func (m *Mirror) complete(item string, action Action) {
	if m.Complete != nil {
		m.Complete(item, action)
	}
}

// Sync makes dst a mirror of src. If src does not exist or is not a
// directory, nothing happens. If clean is set, dst is removed first; failing
// to do so aborts the sync.
//
// Errors for single files are passed to m.Error and do not abort the sync
// unless m.Error returns an error.
func (m *Mirror) Sync(ctx context.Context, src, dst string, clean bool) (Stats, error) {
	start := time.Now()

	src, err := filepath.Abs(src)
	if err != nil {
		return Stats{}, errors.Wrap(err, "Abs")
	}
	dst, err = filepath.Abs(dst)
	if err != nil {
		return Stats{}, errors.Wrap(err, "Abs")
	}
	if rfs.HasPathPrefix(dst, src) {
		return Stats{}, errors.Errorf("source %v lies inside the destination %v", src, dst)
	}

	fi, err := rfs.Stat(src)
	switch {
	case err != nil:
		debug.Log("source %v unavailable: %v", src, err)
		return Stats{}, nil
	case !fi.IsDir():
		debug.Log("source %v is not a directory", src)
		return Stats{}, nil
	}

	if clean {
		debug.Log("removing %v before copy", dst)
		if err := rfs.RemoveAll(dst); err != nil {
			return Stats{}, errors.Wrap(err, "RemoveAll")
		}
	}

	if err := rfs.MkdirAll(dst, 0755); err != nil {
		return Stats{}, errors.Wrap(err, "MkdirAll")
	}

	var stats Stats
	if err := m.copyTree(ctx, src, dst, &stats); err != nil {
		stats.Elapsed = time.Since(start)
		return stats, err
	}

	if err := m.cleanup(ctx, src, dst, &stats); err != nil {
		stats.Elapsed = time.Since(start)
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	debug.Log("sync %v -> %v done: %+v", src, dst, stats)
	return stats, nil
}

// relItem returns the slash-separated path of path relative to root.
func relItem(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// containsDestination returns true if the source directory path holds dst,
// which must not be copied into itself.
func containsDestination(path, dst string) bool {
	return rfs.HasPathPrefix(path, dst)
}

// copyTree copies all included regular files below src to dst. A directory
// below src which contains dst is skipped.
func (m *Mirror) copyTree(ctx context.Context, src, dst string, stats *Stats) error {
	return rfs.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == src {
			return err
		}

		item, rerr := relItem(src, path)
		if rerr != nil {
			return rerr
		}

		if err != nil {
			debug.Log("error walking %v: %v", path, err)
			if d != nil && d.IsDir() {
				// the directory is left as it is at the destination
				return skipDir(m.error(item, err))
			}
			stats.Failed++
			return m.error(item, err)
		}

		if d.IsDir() && containsDestination(path, dst) {
			debug.Log("skipping %v, it contains the destination %v", path, dst)
			return filepath.SkipDir
		}

		fi, err := d.Info()
		if err != nil {
			stats.Failed++
			return m.error(item, err)
		}

		if !m.Policy.Include(item, fi) {
			if !d.IsDir() {
				stats.Files++
			}
			stats.Excluded++
			m.complete(item, ActionExcluded)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, filepath.FromSlash(item))

		switch {
		case d.IsDir():
			if err := ensureDir(target); err != nil {
				return skipDir(m.error(item, err))
			}
			return nil
		case !fi.Mode().IsRegular():
			debug.Log("skipping %v with mode %v", path, fi.Mode())
			return nil
		}

		stats.Files++

		unchanged, err := m.unchanged(path, target, fi)
		if err != nil {
			debug.Log("comparing %v failed: %v", item, err)
		}
		if unchanged {
			stats.Unchanged++
			m.complete(item, ActionUnchanged)
			return nil
		}

		n, err := copyFile(path, target, fi)
		if err != nil {
			stats.Failed++
			return m.error(item, err)
		}

		stats.Copied++
		stats.Bytes += uint64(n)
		m.complete(item, ActionCopied)
		return nil
	})
}

// skipDir turns a nil result of an ErrorFunc for a directory into SkipDir.
func skipDir(err error) error {
	if err == nil {
		return filepath.SkipDir
	}
	return err
}

// ensureDir creates dir, replacing a non-directory at that path.
func ensureDir(dir string) error {
	fi, err := rfs.Lstat(dir)
	switch {
	case err == nil && fi.IsDir():
		return nil
	case err == nil:
		if err := rfs.Remove(dir); err != nil {
			return errors.Wrap(err, "Remove")
		}
	case !os.IsNotExist(err):
		return errors.WithStack(err)
	}

	return errors.Wrap(rfs.MkdirAll(dir, 0755), "MkdirAll")
}

// unchanged returns true if target already has the content of the source
// file described by fi.
func (m *Mirror) unchanged(source, target string, fi os.FileInfo) (bool, error) {
	tfi, err := rfs.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if !tfi.Mode().IsRegular() || tfi.Size() != fi.Size() {
		return false, nil
	}

	if tfi.ModTime().Equal(fi.ModTime()) {
		return true, nil
	}

	if !m.Checksum {
		return false, nil
	}

	same, err := sameContent(source, target)
	if err != nil || !same {
		return false, err
	}

	// fix the modification time so the next run can skip the comparison
	return true, rfs.Chtimes(target, fi.ModTime(), fi.ModTime())
}

// cleanup removes everything below dst which does not exist below src any
// more, or which is now excluded by the policy.
func (m *Mirror) cleanup(ctx context.Context, src, dst string, stats *Stats) error {
	return rfs.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == dst {
			return err
		}

		item, rerr := relItem(dst, path)
		if rerr != nil {
			return rerr
		}

		if err != nil {
			if d != nil && d.IsDir() {
				return skipDir(m.error(item, err))
			}
			return m.error(item, err)
		}

		keep, err := m.keep(filepath.Join(src, filepath.FromSlash(item)), dst, item, d)
		if err != nil {
			return m.error(item, err)
		}
		if keep {
			return nil
		}

		debug.Log("removing %v, it is gone from %v or excluded", path, src)
		if d.IsDir() {
			err = rfs.RemoveAll(path)
		} else {
			err = rfs.Remove(path)
		}
		if err != nil {
			return m.error(item, errors.WithStack(err))
		}

		stats.Removed++
		m.complete(item, ActionRemoved)
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
}

// keep returns true if the destination entry d for item still has a
// counterpart at source that is included by the policy and of the same kind.
func (m *Mirror) keep(source, dst, item string, d fs.DirEntry) (bool, error) {
	fi, err := rfs.Lstat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	if !m.Policy.Include(item, fi) {
		return false, nil
	}
	if fi.IsDir() && containsDestination(source, dst) {
		return false, nil
	}

	if d.IsDir() {
		return fi.IsDir(), nil
	}
	return fi.Mode().IsRegular(), nil
}
