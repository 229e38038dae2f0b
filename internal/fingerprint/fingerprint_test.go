package fingerprint

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/repobak/repobak/internal/errors"
	rtest "github.com/repobak/repobak/internal/test"
)

var testTree = rtest.TestDir{
	"README.md": rtest.TestFile{Content: "readme"},
	"main.go":   rtest.TestFile{Content: "package main"},
	"pkg": rtest.TestDir{
		"util.go": rtest.TestFile{Content: "package pkg"},
		"data": rtest.TestDir{
			"table.csv": rtest.TestFile{Content: "a,b,c"},
		},
	},
	".git": rtest.TestDir{
		"HEAD": rtest.TestFile{Content: "ref: refs/heads/main"},
	},
}

func compute(t testing.TB, root string, opts Options) Digest {
	t.Helper()
	d, err := Compute(root, opts)
	rtest.OK(t, err)
	rtest.Assert(t, !d.IsNull(), "null digest for %v", root)
	return d
}

func TestComputeStable(t *testing.T) {
	root := rtest.TempDir(t)
	rtest.TestCreateFiles(t, root, testTree)

	first := compute(t, root, Options{})
	second := compute(t, root, Options{})
	rtest.Equals(t, first, second)

	// the same content at a different location has the same digest
	other := rtest.TempDir(t)
	rtest.TestCreateFiles(t, other, testTree)
	rtest.Equals(t, first, compute(t, other, Options{}))
}

func TestComputeDetectsChanges(t *testing.T) {
	var tests = []struct {
		name   string
		modify func(t testing.TB, root string)
	}{
		{
			name: "modify",
			modify: func(t testing.TB, root string) {
				rtest.OK(t, os.WriteFile(filepath.Join(root, "pkg", "util.go"), []byte("package pkg2"), 0644))
			},
		},
		{
			name: "add",
			modify: func(t testing.TB, root string) {
				rtest.OK(t, os.WriteFile(filepath.Join(root, "pkg", "new.go"), []byte("package pkg"), 0644))
			},
		},
		{
			name: "add-empty",
			modify: func(t testing.TB, root string) {
				rtest.OK(t, os.WriteFile(filepath.Join(root, "empty"), nil, 0644))
			},
		},
		{
			name: "remove",
			modify: func(t testing.TB, root string) {
				rtest.OK(t, os.Remove(filepath.Join(root, "README.md")))
			},
		},
		{
			name: "rename",
			modify: func(t testing.TB, root string) {
				rtest.OK(t, os.Rename(filepath.Join(root, "main.go"), filepath.Join(root, "main2.go")))
			},
		},
		{
			name: "move-bytes-between-files",
			modify: func(t testing.TB, root string) {
				rtest.OK(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("readmepackage main"), 0644))
				rtest.OK(t, os.WriteFile(filepath.Join(root, "main.go"), nil, 0644))
			},
		},
		{
			name: "signifier",
			modify: func(t testing.TB, root string) {
				rtest.OK(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/dev"), 0644))
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			root := rtest.TempDir(t)
			rtest.TestCreateFiles(t, root, testTree)

			before := compute(t, root, Options{})
			test.modify(t, root)
			after := compute(t, root, Options{})

			rtest.Assert(t, before != after, "digest %v did not change", before)
		})
	}
}

func TestComputeIgnoresLargeFiles(t *testing.T) {
	root := rtest.TempDir(t)
	rtest.TestCreateFiles(t, root, testTree)

	large := filepath.Join(root, "pkg", "data", "blob.bin")
	rtest.OK(t, os.WriteFile(large, rtest.Random(1, DefaultLargeFileThreshold), 0644))

	before := compute(t, root, Options{})

	rtest.OK(t, os.WriteFile(large, rtest.Random(2, DefaultLargeFileThreshold+100), 0644))
	rtest.Equals(t, before, compute(t, root, Options{}))

	// just below the threshold the file counts
	rtest.OK(t, os.WriteFile(large, rtest.Random(2, DefaultLargeFileThreshold-1), 0644))
	rtest.Assert(t, before != compute(t, root, Options{}), "file below the threshold was ignored")
}

func TestComputeThresholdOption(t *testing.T) {
	root := rtest.TempDir(t)
	rtest.TestCreateFiles(t, root, testTree)

	opts := Options{LargeFileThreshold: 16}
	before := compute(t, root, opts)

	// "ref: refs/heads/main" is 20 bytes long and already ignored
	rtest.OK(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte(strings.Repeat("x", 30)), 0644))
	rtest.Equals(t, before, compute(t, root, opts))
}

func TestComputeInclude(t *testing.T) {
	root := rtest.TempDir(t)
	rtest.TestCreateFiles(t, root, testTree)

	var seen []string
	opts := Options{
		Include: func(item string, fi os.FileInfo) bool {
			seen = append(seen, item)
			return item != "pkg/data"
		},
	}

	before := compute(t, root, opts)
	rtest.Equals(t, []string{".git", ".git/HEAD", "README.md", "main.go", "pkg", "pkg/data", "pkg/util.go"}, seen)

	rtest.OK(t, os.WriteFile(filepath.Join(root, "pkg", "data", "table.csv"), []byte("changed"), 0644))
	rtest.Equals(t, before, compute(t, root, opts))
}

func TestComputeUnreadableFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("file permissions are not enforced")
	}

	root := rtest.TempDir(t)
	rtest.TestCreateFiles(t, root, testTree)

	secret := filepath.Join(root, "pkg", "util.go")
	rtest.OK(t, os.Chmod(secret, 0))

	d, err := Compute(root, Options{})
	rtest.Assert(t, err != nil, "expected error for unreadable file")
	rtest.Assert(t, strings.Contains(err.Error(), "util.go"), "error %q does not name the file", err)
	rtest.Assert(t, !d.IsNull(), "digest of the remaining files is missing")

	rtest.OK(t, os.Chmod(secret, 0644))
}

func TestComputeNotADirectory(t *testing.T) {
	root := rtest.TempDir(t)
	file := filepath.Join(root, "file")
	rtest.OK(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := Compute(file, Options{})
	rtest.Assert(t, err != nil, "expected error")

	_, err = Compute(filepath.Join(root, "missing"), Options{})
	rtest.Assert(t, errors.Is(err, os.ErrNotExist), "expected not-exist error, got %v", err)
}

func TestParseDigest(t *testing.T) {
	root := rtest.TempDir(t)
	rtest.TestCreateFiles(t, root, testTree)
	d := compute(t, root, Options{})

	parsed, err := ParseDigest(d.String())
	rtest.OK(t, err)
	rtest.Equals(t, d, parsed)
	rtest.Equals(t, 32, len(d.String()))

	_, err = ParseDigest("abcd")
	rtest.Assert(t, err != nil, "expected error for short digest")
	_, err = ParseDigest("not hex")
	rtest.Assert(t, err != nil, "expected error for invalid digest")
}
