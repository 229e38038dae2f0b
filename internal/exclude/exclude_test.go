package exclude

import (
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/repobak/repobak/internal/language"
	rtest "github.com/repobak/repobak/internal/test"
)

type fakeInfo struct {
	name string
	dir  bool
}

func (fi fakeInfo) Name() string { return fi.name }
func (fi fakeInfo) Size() int64  { return 0 }
func (fi fakeInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (fi fakeInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeInfo) IsDir() bool        { return fi.dir }
func (fi fakeInfo) Sys() interface{}   { return nil }

func file(name string) os.FileInfo { return fakeInfo{name: name} }
func dir(name string) os.FileInfo  { return fakeInfo{name: name, dir: true} }

func TestPolicies(t *testing.T) {
	blacklist := []string{"secret", ""}

	var tests = []struct {
		policy *Policy
		item   string
		fi     os.FileInfo
		want   bool
	}{
		{Base(nil), "main.go", file("main.go"), true},
		{Base(nil), ".idea", dir(".idea"), false},
		{Base(nil), "sub/.idea/workspace.xml", file("workspace.xml"), false},
		{Base(nil), "my.idea.txt", file("my.idea.txt"), true},
		{Base(blacklist), "config/secret.yaml", file("secret.yaml"), false},
		{Base(blacklist), "topsecrets", dir("topsecrets"), false},
		{Base(blacklist), "public.yaml", file("public.yaml"), true},

		{Python(PythonOptions{IgnoreVenv: true, IgnoreBytecode: true}, nil), "venv", dir("venv"), false},
		{Python(PythonOptions{IgnoreVenv: true, IgnoreBytecode: true}, nil), "app/.venv/bin/python", file("python"), false},
		{Python(PythonOptions{IgnoreVenv: true, IgnoreBytecode: true}, nil), "app/__pycache__", dir("__pycache__"), false},
		{Python(PythonOptions{IgnoreVenv: true, IgnoreBytecode: true}, nil), "app/mod.pyc", file("mod.pyc"), false},
		{Python(PythonOptions{IgnoreVenv: true, IgnoreBytecode: true}, nil), "app/mod.py", file("mod.py"), true},
		{Python(PythonOptions{IgnoreVenv: true, IgnoreBytecode: true}, nil), "app/venvironment.py", file("venvironment.py"), true},
		{Python(PythonOptions{}, nil), "venv/lib/site.py", file("site.py"), true},
		{Python(PythonOptions{}, nil), "mod.pyc", file("mod.pyc"), true},
		{Python(PythonOptions{}, nil), ".idea", dir(".idea"), false},
		{Python(PythonOptions{}, blacklist), "secret.py", file("secret.py"), false},

		{Go(GoOptions{IgnoreVendor: true, IgnoreBinaries: true}, nil), "vendor/github.com/x/y.go", file("y.go"), false},
		{Go(GoOptions{IgnoreVendor: true, IgnoreBinaries: true}, nil), "cmd/tool.exe", file("tool.exe"), false},
		{Go(GoOptions{IgnoreVendor: true, IgnoreBinaries: true}, nil), "pkg.test", file("pkg.test"), false},
		{Go(GoOptions{IgnoreVendor: true, IgnoreBinaries: true}, nil), "bin", dir("bin"), false},
		{Go(GoOptions{IgnoreVendor: true, IgnoreBinaries: true}, nil), "cmd/tool/main.go", file("main.go"), true},
		{Go(GoOptions{IgnoreVendor: true, IgnoreBinaries: true}, nil), "testdata.exe", dir("testdata.exe"), true},
		{Go(GoOptions{IgnoreBinaries: true}, nil), "vendor/modules.txt", file("modules.txt"), true},
		{Go(GoOptions{}, nil), "bin/tool", file("tool"), true},
		{Go(GoOptions{}, nil), ".idea/misc.xml", file("misc.xml"), false},
		{Go(GoOptions{}, blacklist), "internal/secret/key.go", file("key.go"), false},
	}

	for _, test := range tests {
		t.Run(test.policy.Name()+"/"+test.item, func(t *testing.T) {
			got := test.policy.Include(test.item, test.fi)
			if got != test.want {
				t.Fatalf("%v.Include(%q) = %v, want %v", test.policy.Name(), test.item, got, test.want)
			}
		})
	}
}

func TestRefinementOnlyExcludesMore(t *testing.T) {
	parent := New("parent", RejectSubstring("tmp"))
	child := parent.With("child", RejectFileSuffix(".log"))

	rtest.Assert(t, !child.Include("tmp/file.txt", file("file.txt")), "child re-included an item rejected by its parent")
	rtest.Assert(t, !child.Include("out.log", file("out.log")), "child did not apply its own rejection")
	rtest.Assert(t, parent.Include("out.log", file("out.log")), "refinement modified the parent")
}

func TestRejectSubtree(t *testing.T) {
	var tests = []struct {
		dir, item string
		reject    bool
	}{
		{"bak", "bak", true},
		{"bak", "bak/go/tool/main.go", true},
		{"bak/", "bak/go", true},
		{"bak", "bakery/main.go", false},
		{"bak", "cmd/bak", false},
		{"out/bak", "out/bak/py/x", true},
		{"out/bak", "out", false},
		{"data[1]", "data[1]/x", true},
		{"data[1]", "data1/x", false},
	}

	for _, test := range tests {
		reject := RejectSubtree(test.dir)
		if got := reject(test.item, nil); got != test.reject {
			t.Errorf("RejectSubtree(%q)(%q) = %v, want %v", test.dir, test.item, got, test.reject)
		}
	}
}

func TestNilPolicy(t *testing.T) {
	var p *Policy
	rtest.Assert(t, p.Include(".idea", dir(".idea")), "nil policy must include everything")
	rtest.Equals(t, "all", p.Name())
}

func TestForLanguage(t *testing.T) {
	cfg := DefaultConfig()
	for _, lang := range language.All {
		p, ok := ForLanguage(lang, cfg)
		mirrored := lang == language.Python || lang == language.Go
		rtest.Equals(t, mirrored, ok)
		rtest.Equals(t, mirrored, p != nil)
	}

	p, _ := ForLanguage(language.Go, cfg)
	rtest.Assert(t, p.Include("vendor/modules.txt", file("modules.txt")), "vendor is kept by default")
	rtest.Assert(t, !p.Include("tool.exe", file("tool.exe")), "binaries are dropped by default")

	_, ok := ForLanguage(language.Unknown, cfg)
	rtest.Assert(t, !ok, "unknown repositories are not mirrored")
}
