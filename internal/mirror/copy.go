package mirror

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/fs"
)

// copyFile replaces target with a copy of source and sets its mode and
// modification time to those in fi. On error, a partially written target is
// removed.
func copyFile(source, target string, fi os.FileInfo) (n int64, err error) {
	if tfi, lerr := fs.Lstat(target); lerr == nil && tfi.IsDir() {
		if err := fs.RemoveAll(target); err != nil {
			return 0, errors.Wrap(err, "RemoveAll")
		}
	} else if err := fs.RemoveIfExists(target); err != nil {
		return 0, errors.Wrap(err, "Remove")
	}

	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, errors.Wrap(err, "MkdirAll")
	}

	in, err := fs.Open(source)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rerr := fs.RemoveIfExists(target); rerr != nil {
			debug.Log("unable to remove partial file %v: %v", target, rerr)
		}
	}()

	n, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.Wrapf(err, "copy %v", source)
	}

	if err = fs.Chmod(target, fi.Mode().Perm()); err != nil {
		return n, errors.WithStack(err)
	}

	if err = fs.Chtimes(target, fi.ModTime(), fi.ModTime()); err != nil {
		return n, errors.WithStack(err)
	}

	return n, nil
}

func hashFile(name string) (uint64, error) {
	f, err := fs.Open(name)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, errors.Wrapf(err, "read %v", name)
	}
	return h.Sum64(), nil
}

// sameContent compares the xxhash digests of two files.
func sameContent(a, b string) (bool, error) {
	ha, err := hashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := hashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
