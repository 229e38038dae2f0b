package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/repobak/repobak/internal/fs"
	rtest "github.com/repobak/repobak/internal/test"
)

func TestRemoveIfExists(t *testing.T) {
	tempdir := rtest.TempDir(t)
	filename := filepath.Join(tempdir, "file")

	rtest.OK(t, fs.RemoveIfExists(filename))

	rtest.OK(t, os.WriteFile(filename, []byte("content"), 0600))
	rtest.OK(t, fs.RemoveIfExists(filename))

	_, err := os.Lstat(filename)
	rtest.Assert(t, os.IsNotExist(err), "file %v still exists after removal", filename)
}

func TestIsDir(t *testing.T) {
	tempdir := rtest.TempDir(t)
	rtest.TestCreateFiles(t, tempdir, rtest.TestDir{
		"dir":  rtest.TestDir{},
		"file": rtest.TestFile{Content: "foo"},
	})

	for _, test := range []struct {
		name string
		want bool
	}{
		{"dir", true},
		{"file", false},
		{"missing", false},
	} {
		ok, err := fs.IsDir(filepath.Join(tempdir, test.name))
		rtest.OK(t, err)
		rtest.Equals(t, test.want, ok)
	}
}
