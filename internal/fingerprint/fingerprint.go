// Package fingerprint computes content digests of directory trees, used to
// detect whether a repository changed since it was last mirrored.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/errors"
	rfs "github.com/repobak/repobak/internal/fs"
)

// DefaultLargeFileThreshold is the size from which files are left out of the
// digest.
const DefaultLargeFileThreshold = 10 * 1024 * 1024

// seed for the second half of the digest
const seed = 0x72_65_70_6f_62_61_6b // "repobak"

// Digest is a 128 bit content digest.
type Digest [16]byte

// String returns the digest in hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Str returns the first eight hex characters, for log messages.
func (d Digest) Str() string {
	return d.String()[:8]
}

// IsNull returns true if d is the zero digest.
func (d Digest) IsNull() bool {
	return d == Digest{}
}

// ParseDigest decodes a digest in hex form.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	buf, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, errors.Wrap(err, "hex.DecodeString")
	}
	if len(buf) != len(d) {
		return Digest{}, errors.Errorf("invalid length for digest %q", s)
	}
	copy(d[:], buf)
	return d, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	v, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// IncludeFunc reports whether an entry takes part in the digest. item is the
// slash-separated path relative to the root.
type IncludeFunc func(item string, fi os.FileInfo) bool

// Options configure Compute.
type Options struct {
	// LargeFileThreshold, DefaultLargeFileThreshold if zero.
	LargeFileThreshold int64
	// Include is optional, rejected directories are not traversed.
	Include IncludeFunc
}

func (opts Options) threshold() int64 {
	if opts.LargeFileThreshold <= 0 {
		return DefaultLargeFileThreshold
	}
	return opts.LargeFileThreshold
}

type hasher struct {
	lo, hi *xxhash.Digest
	w      io.Writer
	buf    [8]byte
}

func newHasher() *hasher {
	h := &hasher{lo: xxhash.New(), hi: xxhash.NewWithSeed(seed)}
	h.w = io.MultiWriter(h.lo, h.hi)
	return h
}

// header separates files from each other so that moving bytes from one file
// to the next, renaming a file or adding an empty file changes the digest.
func (h *hasher) header(item string, size int64) {
	binary.LittleEndian.PutUint64(h.buf[:], uint64(len(item)))
	_, _ = h.w.Write(h.buf[:])
	_, _ = io.WriteString(h.w, item)
	binary.LittleEndian.PutUint64(h.buf[:], uint64(size))
	_, _ = h.w.Write(h.buf[:])
}

func (h *hasher) sum() Digest {
	var d Digest
	binary.BigEndian.PutUint64(d[:8], h.lo.Sum64())
	binary.BigEndian.PutUint64(d[8:], h.hi.Sum64())
	return d
}

// Compute returns the digest over all regular files below root, visited in
// lexical order. Files of at least the large file threshold are left out.
//
// Files or directories which cannot be read are skipped. In that case the
// digest of everything else is returned together with an error listing all
// failures. If root itself cannot be read, the null digest and an error are
// returned.
func Compute(root string, opts Options) (Digest, error) {
	fi, err := rfs.Lstat(root)
	if err != nil {
		return Digest{}, errors.WithStack(err)
	}
	if !fi.IsDir() {
		return Digest{}, errors.Errorf("%v is not a directory", root)
	}

	h := newHasher()
	threshold := opts.threshold()
	var errs []error

	err = rfs.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			debug.Log("unable to fingerprint %v: %v", path, err)
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			errs = append(errs, err)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		item := filepath.ToSlash(rel)

		if opts.Include != nil && !opts.Include(item, fi) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if fi.Size() >= threshold {
			debug.Log("%v is too large (%d bytes), not part of the fingerprint", path, fi.Size())
			return nil
		}

		if err := h.file(path, item, fi.Size()); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		return Digest{}, errors.Wrap(err, "WalkDir")
	}

	return h.sum(), errors.Join(errs...)
}

func (h *hasher) file(path, item string, size int64) error {
	f, err := rfs.Open(path)
	if err != nil {
		return err
	}

	h.header(item, size)
	_, err = io.Copy(h.w, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "read %v", path)
}
