package test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestFile describes a regular file created by TestCreateFiles.
type TestFile struct {
	Content string
	Mode    os.FileMode
	ModTime time.Time
}

// TestDir describes a directory tree, values are TestFile or TestDir.
type TestDir map[string]interface{}

// TestCreateFiles creates the tree described by dir below target.
func TestCreateFiles(t testing.TB, target string, dir TestDir) {
	t.Helper()

	for name, item := range dir {
		targetPath := filepath.Join(target, filepath.FromSlash(name))

		switch it := item.(type) {
		case TestFile:
			OK(t, os.MkdirAll(filepath.Dir(targetPath), 0755))

			mode := it.Mode
			if mode == 0 {
				mode = 0644
			}
			OK(t, os.WriteFile(targetPath, []byte(it.Content), mode))

			if !it.ModTime.IsZero() {
				OK(t, os.Chtimes(targetPath, it.ModTime, it.ModTime))
			}
		case TestDir:
			OK(t, os.MkdirAll(targetPath, 0755))
			TestCreateFiles(t, targetPath, it)
		default:
			t.Fatalf("unknown item type %T for %v", item, name)
		}
	}
}

// TestListFiles returns the content of all regular files below root, keyed by
// the slash-separated path relative to root.
func TestListFiles(t testing.TB, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		buf, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(buf)
		return nil
	})
	OK(t, err)

	return files
}

// TestListDirs returns the slash-separated relative paths of all directories
// below root, root itself excluded.
func TestListDirs(t testing.TB, root string) []string {
	t.Helper()

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		dirs = append(dirs, filepath.ToSlash(rel))
		return nil
	})
	OK(t, err)

	return dirs
}
