package exclude

import (
	"bufio"
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/errors"
)

// Pattern is a parsed exclude pattern. Components are matched with
// path.Match, the component "**" matches any number of components. A pattern
// starting with a slash only matches at the repository root, others match at
// any depth. A matching directory excludes everything below it.
type Pattern struct {
	anchored bool
	parts    []string
}

// ParsePattern parses s, which may use the native path separator.
func ParsePattern(s string) (Pattern, error) {
	s = path.Clean(filepath.ToSlash(strings.TrimSpace(s)))
	if s == "." || s == "/" {
		return Pattern{}, errors.Errorf("empty pattern")
	}

	p := Pattern{anchored: strings.HasPrefix(s, "/")}
	p.parts = strings.Split(strings.TrimPrefix(s, "/"), "/")
	for _, part := range p.parts {
		if _, err := path.Match(part, ""); err != nil {
			return Pattern{}, errors.Errorf("invalid pattern %q: %v", s, err)
		}
	}
	return p, nil
}

// ParsePatterns parses all patterns, empty ones are skipped. The error lists
// all invalid patterns.
func ParsePatterns(patterns []string) ([]Pattern, error) {
	var (
		list    []Pattern
		invalid []string
	)
	for _, s := range patterns {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p, err := ParsePattern(s)
		if err != nil {
			invalid = append(invalid, s)
			continue
		}
		list = append(list, p)
	}

	if len(invalid) > 0 {
		return nil, errors.Errorf("invalid patterns: %q", invalid)
	}
	return list, nil
}

func (p Pattern) String() string {
	s := strings.Join(p.parts, "/")
	if p.anchored {
		return "/" + s
	}
	return s
}

// Match returns true if the slash-separated relative path item or one of its
// parent directories matches p.
func (p Pattern) Match(item string) bool {
	components := strings.Split(item, "/")
	if p.anchored {
		return matchPrefix(p.parts, components)
	}
	for offset := range components {
		if matchPrefix(p.parts, components[offset:]) {
			return true
		}
	}
	return false
}

// matchPrefix returns true if the pattern components match the first
// components of item.
func matchPrefix(pattern, item []string) bool {
	if len(pattern) == 0 {
		return true
	}

	if pattern[0] == "**" {
		for n := 0; n <= len(item); n++ {
			if matchPrefix(pattern[1:], item[n:]) {
				return true
			}
		}
		return false
	}

	if len(item) == 0 {
		return false
	}
	// patterns are validated when parsed
	if ok, _ := path.Match(pattern[0], item[0]); !ok {
		return false
	}
	return matchPrefix(pattern[1:], item[1:])
}

// RejectPatterns rejects items matching any of the patterns.
func RejectPatterns(patterns ...Pattern) RejectFunc {
	return func(item string, _ os.FileInfo) bool {
		for _, p := range patterns {
			if p.Match(item) {
				debug.Log("%q excluded by pattern %v", item, p)
				return true
			}
		}
		return false
	}
}

// ReadPatternFiles reads patterns from files, one per line. Empty lines and
// lines starting with # are ignored, environment variables are expanded ($$
// is a literal dollar sign).
func ReadPatternFiles(files ...string) ([]string, error) {
	getenvOrDollar := func(s string) string {
		if s == "$" {
			return "$"
		}
		return os.Getenv(s)
	}

	var patterns []string
	for _, filename := range files {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "read patterns from %v", filename)
		}

		// strip UTF-8 byte order mark
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, os.Expand(line, getenvOrDollar))
		}
		if err := sc.Err(); err != nil {
			return nil, errors.Wrapf(err, "read patterns from %v", filename)
		}
	}
	return patterns, nil
}
