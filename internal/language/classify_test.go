package language

import (
	"fmt"
	"path/filepath"
	"testing"

	rtest "github.com/repobak/repobak/internal/test"
)

func files(ext string, n int) rtest.TestDir {
	dir := rtest.TestDir{}
	for i := 0; i < n; i++ {
		dir[fmt.Sprintf("f%03d%s", i, ext)] = rtest.TestFile{Content: "x"}
	}
	return dir
}

func TestClassify(t *testing.T) {
	var tests = []struct {
		name string
		src  rtest.TestDir
		want Language
	}{
		{
			name: "empty",
			src:  rtest.TestDir{},
			want: Unknown,
		},
		{
			name: "setup-py-decides",
			src: rtest.TestDir{
				"a":        files(".go", 10),
				"setup.py": rtest.TestFile{Content: "from setuptools import setup"},
			},
			want: Python,
		},
		{
			name: "nested-go-mod-decides",
			src: rtest.TestDir{
				"lib": files(".java", 5),
				"tools": rtest.TestDir{
					"go.mod": rtest.TestFile{Content: "module tools"},
				},
			},
			want: Go,
		},
		{
			name: "venv-decides",
			src: rtest.TestDir{
				"src":  files(".go", 3),
				"venv": rtest.TestDir{"pyvenv.cfg": rtest.TestFile{Content: "home = /usr"}},
			},
			want: Python,
		},
		{
			name: "vendor-decides",
			src: rtest.TestDir{
				"vendor": rtest.TestDir{"x.txt": rtest.TestFile{}},
			},
			want: Go,
		},
		{
			name: "extension-majority",
			src: rtest.TestDir{
				"pkg":  files(".py", 10),
				"tool": files(".go", 4),
			},
			want: Python,
		},
		{
			name: "no-dominant-language",
			src: rtest.TestDir{
				"pkg":  files(".py", 10),
				"tool": files(".go", 6),
			},
			want: Unknown,
		},
		{
			name: "signifier-not-sampled",
			src: rtest.TestDir{
				".git": rtest.TestDir{
					"hooks": files(".py", 20),
				},
				"src": files(".c", 2),
			},
			want: C,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			root := rtest.TempDir(t)
			rtest.TestCreateFiles(t, root, test.src)

			got, err := NewClassifier(".git").Classify(root)
			rtest.OK(t, err)
			if got != test.want {
				t.Fatalf("Classify() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestClassifySamplingCadence(t *testing.T) {
	root := rtest.TempDir(t)
	// in lexical order two Python files are counted before three Go files
	rtest.TestCreateFiles(t, root, rtest.TestDir{
		"a.py": rtest.TestFile{},
		"b.py": rtest.TestFile{},
		"c.go": rtest.TestFile{},
		"d.go": rtest.TestFile{},
		"e.go": rtest.TestFile{},
	})

	early := &Classifier{MinSampleSize: 2}
	got, err := early.Classify(root)
	rtest.OK(t, err)
	rtest.Equals(t, Python, got)

	// with the default cadence only the final tally {py: 2, go: 3} counts
	got, err = NewClassifier(".git").Classify(root)
	rtest.OK(t, err)
	rtest.Equals(t, Unknown, got)
}

func TestClassifyPrune(t *testing.T) {
	root := rtest.TempDir(t)
	rtest.TestCreateFiles(t, root, rtest.TestDir{
		"main.go": rtest.TestFile{},
		"bak": rtest.TestDir{
			"py": rtest.TestDir{
				"a.py": rtest.TestFile{},
				"b.py": rtest.TestFile{},
				"c.py": rtest.TestFile{},
				"venv": rtest.TestDir{},
			},
		},
	})

	got, err := NewClassifier(".git").Classify(root)
	rtest.OK(t, err)
	rtest.Equals(t, Python, got)

	c := NewClassifier(".git")
	c.Prune = []string{filepath.Join(root, "bak")}
	got, err = c.Classify(root)
	rtest.OK(t, err)
	rtest.Equals(t, Go, got)
}

func TestClassifyMissingRoot(t *testing.T) {
	_, err := NewClassifier(".git").Classify(filepath.Join(rtest.TempDir(t), "missing"))
	rtest.Assert(t, err != nil, "expected error for missing root")
}
