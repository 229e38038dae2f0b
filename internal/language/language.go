// Package language determines the dominant programming language of a source
// tree.
package language

import (
	"path/filepath"
	"strings"

	"github.com/repobak/repobak/internal/errors"
)

// Language is one of the languages repobak can recognise.
type Language uint8

const (
	Unknown Language = iota
	Python
	Go
	Java
	C
	CPP

	numLanguages
)

// All lists the recognised languages, Unknown excluded, in tally order.
var All = []Language{Python, Go, Java, C, CPP}

var (
	short = [numLanguages]string{
		Unknown: "unknown",
		Python:  "py",
		Go:      "go",
		Java:    "java",
		C:       "c",
		CPP:     "cpp",
	}
	names = [numLanguages]string{
		Unknown: "Unknown",
		Python:  "Python",
		Go:      "Go",
		Java:    "Java",
		C:       "C",
		CPP:     "C++",
	}
	extensions = map[string]Language{
		".py":   Python,
		".go":   Go,
		".java": Java,
		".c":    C,
		".cpp":  CPP,
	}
)

// String returns the short form of l, which is also the name of the bucket
// directory below the backup location.
func (l Language) String() string {
	if l >= numLanguages {
		return short[Unknown]
	}
	return short[l]
}

// Name returns the human readable name of l.
func (l Language) Name() string {
	if l >= numLanguages {
		return names[Unknown]
	}
	return names[l]
}

// Extension returns the file name extension counted for l, or the empty
// string for Unknown.
func (l Language) Extension() string {
	for ext, lang := range extensions {
		if lang == l {
			return ext
		}
	}
	return ""
}

// Parse accepts both the short form ("py") and the name ("Python") of a
// language, ignoring case.
func Parse(s string) (Language, error) {
	for l := Unknown; l < numLanguages; l++ {
		if strings.EqualFold(s, short[l]) || strings.EqualFold(s, names[l]) {
			return l, nil
		}
	}
	return Unknown, errors.Errorf("unknown language %q", s)
}

// ForFile returns the language a file name counts towards.
func ForFile(name string) (Language, bool) {
	l, ok := extensions[filepath.Ext(name)]
	return l, ok
}

// Set implements pflag.Value.
func (l *Language) Set(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Type implements pflag.Value.
func (l *Language) Type() string {
	return "language"
}

// MarshalText encodes l in its short form.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes either form accepted by Parse.
func (l *Language) UnmarshalText(text []byte) error {
	return l.Set(string(text))
}
