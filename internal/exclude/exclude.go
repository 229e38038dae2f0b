// Package exclude decides which entries of a repository take part in a
// mirror. A Policy is an ordered list of reject functions; an entry is
// included if none of them rejects it.
package exclude

import (
	"os"
	"path"
	"strings"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/language"
)

// RejectFunc returns true if the entry should be left out of a mirror. item is
// the slash-separated path relative to the repository root, fi describes the
// entry and may be nil if only the name is known.
type RejectFunc func(item string, fi os.FileInfo) bool

// Policy is an immutable chain of reject functions. The zero value includes
// everything.
type Policy struct {
	name    string
	rejects []RejectFunc
}

// New returns a policy evaluating rejects in order.
func New(name string, rejects ...RejectFunc) *Policy {
	return &Policy{name: name, rejects: append([]RejectFunc(nil), rejects...)}
}

// With returns a refined copy of p which evaluates the reject functions of p
// first and rejects afterwards. A refinement can only exclude more.
func (p *Policy) With(name string, rejects ...RejectFunc) *Policy {
	funcs := make([]RejectFunc, 0, len(p.rejects)+len(rejects))
	funcs = append(funcs, p.rejects...)
	funcs = append(funcs, rejects...)
	return &Policy{name: name, rejects: funcs}
}

// Name returns the name the policy was created with.
func (p *Policy) Name() string {
	if p == nil || p.name == "" {
		return "all"
	}
	return p.name
}

// Include returns true if no reject function rejects item. A nil policy
// includes everything.
func (p *Policy) Include(item string, fi os.FileInfo) bool {
	if p == nil {
		return true
	}
	for _, reject := range p.rejects {
		if reject(item, fi) {
			debug.Log("%v: %q rejected", p.name, item)
			return false
		}
	}
	return true
}

// RejectComponent rejects items that have one of names as a path component,
// which excludes a matching directory and everything below it.
func RejectComponent(names ...string) RejectFunc {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return func(item string, _ os.FileInfo) bool {
		for _, c := range strings.Split(item, "/") {
			if _, ok := set[c]; ok {
				return true
			}
		}
		return false
	}
}

// RejectSubtree rejects the slash-separated relative path dir and everything
// below it. Unlike patterns, dir is matched literally.
func RejectSubtree(dir string) RejectFunc {
	dir = strings.Trim(path.Clean(dir), "/")
	return func(item string, _ os.FileInfo) bool {
		return item == dir || strings.HasPrefix(item, dir+"/")
	}
}

// RejectSubstring rejects items containing one of keywords. Empty keywords are
// ignored.
func RejectSubstring(keywords ...string) RejectFunc {
	var kws []string
	for _, kw := range keywords {
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return func(item string, _ os.FileInfo) bool {
		for _, kw := range kws {
			if strings.Contains(item, kw) {
				return true
			}
		}
		return false
	}
}

// RejectFileSuffix rejects non-directory items whose name ends with one of
// suffixes.
func RejectFileSuffix(suffixes ...string) RejectFunc {
	return func(item string, fi os.FileInfo) bool {
		if fi != nil && fi.IsDir() {
			return false
		}
		base := path.Base(item)
		for _, suffix := range suffixes {
			if strings.HasSuffix(base, suffix) {
				return true
			}
		}
		return false
	}
}

// Config holds the settings for all language policies.
type Config struct {
	// Blacklist contains keywords, any item containing one is rejected
	// regardless of the language.
	Blacklist []string
	Python    PythonOptions
	Go        GoOptions

	// Patterns are applied to every language after the language rules.
	Patterns []Pattern
}

// PythonOptions toggle the Python specific rejections.
type PythonOptions struct {
	IgnoreVenv     bool
	IgnoreBytecode bool
}

// GoOptions toggle the Go specific rejections.
type GoOptions struct {
	IgnoreVendor   bool
	IgnoreBinaries bool
}

// DefaultConfig returns the settings repobak uses unless told otherwise. The
// vendor directory of Go repositories is kept.
func DefaultConfig() Config {
	return Config{
		Python: PythonOptions{IgnoreVenv: true, IgnoreBytecode: true},
		Go:     GoOptions{IgnoreVendor: false, IgnoreBinaries: true},
	}
}

// Base rejects IDE metadata directories and every item containing a
// blacklisted keyword.
func Base(blacklist []string) *Policy {
	return New("base",
		RejectComponent(".idea", ".vscode"),
		RejectSubstring(blacklist...),
	)
}

// Python refines Base with virtual environments and compiled bytecode.
func Python(opts PythonOptions, blacklist []string) *Policy {
	var rejects []RejectFunc
	if opts.IgnoreVenv {
		rejects = append(rejects, RejectComponent("venv", ".venv"))
	}
	if opts.IgnoreBytecode {
		rejects = append(rejects,
			RejectComponent("__pycache__"),
			RejectFileSuffix(".pyc", ".pyo"),
		)
	}
	return Base(blacklist).With("python", rejects...)
}

// Go refines Base with vendored dependencies and build output.
func Go(opts GoOptions, blacklist []string) *Policy {
	var rejects []RejectFunc
	if opts.IgnoreVendor {
		rejects = append(rejects, RejectComponent("vendor"))
	}
	if opts.IgnoreBinaries {
		rejects = append(rejects,
			RejectComponent("bin"),
			RejectFileSuffix(".exe", ".test"),
		)
	}
	return Base(blacklist).With("go", rejects...)
}

// ForLanguage returns the policy configured for lang. The second result is
// false for languages repobak does not mirror.
func ForLanguage(lang language.Language, cfg Config) (*Policy, bool) {
	var p *Policy
	switch lang {
	case language.Python:
		p = Python(cfg.Python, cfg.Blacklist)
	case language.Go:
		p = Go(cfg.Go, cfg.Blacklist)
	default:
		return nil, false
	}

	if len(cfg.Patterns) > 0 {
		p = p.With(p.Name(), RejectPatterns(cfg.Patterns...))
	}
	return p, true
}
