package language

import (
	"path/filepath"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/fs"
)

// DefaultMinSampleSize is the number of counted files after which the
// dominance rule is first evaluated, and again after each further multiple.
const DefaultMinSampleSize = 50

// Files and directories whose presence decides the language at once.
var (
	markerFiles = map[string]Language{
		"setup.py":       Python,
		"pyproject.toml": Python,
		"go.mod":         Go,
	}
	markerDirs = map[string]Language{
		"venv":   Python,
		".venv":  Python,
		"vendor": Go,
	}
)

// Classifier walks a source tree and guesses its dominant language.
type Classifier struct {
	// MinSampleSize is the sampling cadence, DefaultMinSampleSize if zero.
	MinSampleSize int

	// Skip contains directory names that are not sampled, e.g. ".git".
	Skip []string

	// Prune contains absolute paths of directories that are not sampled.
	Prune []string
}

// NewClassifier returns a Classifier with the default cadence that does not
// look into the directory named signifier.
func NewClassifier(signifier string) *Classifier {
	return &Classifier{
		MinSampleSize: DefaultMinSampleSize,
		Skip:          []string{signifier},
	}
}

// verdict is the result of walking part of a tree: either decided, which ends
// the walk, or not decided yet.
type verdict struct {
	lang    Language
	decided bool
}

func decided(l Language) verdict {
	return verdict{lang: l, decided: true}
}

// sample is the accumulator threaded through the walk.
type sample struct {
	tally Tally
	// next is the total at which the dominance rule is evaluated again.
	next int
}

// Classify returns the dominant language of the tree at root. Marker files
// (setup.py, go.mod, ...) and marker directories (venv, vendor) decide as soon
// as they are found; otherwise file extensions are counted and the dominance
// rule is evaluated every MinSampleSize files and once more at the end.
func (c *Classifier) Classify(root string) (Language, error) {
	cadence := c.MinSampleSize
	if cadence <= 0 {
		cadence = DefaultMinSampleSize
	}

	acc, v, err := c.walk(root, sample{next: cadence}, cadence)
	if err != nil {
		return Unknown, err
	}
	if v.decided {
		debug.Log("%v: decided on %v after %d samples", root, v.lang, acc.tally.Total())
		return v.lang, nil
	}

	l := acc.tally.Dominant()
	debug.Log("%v: %v from final tally %v", root, l, acc.tally)
	return l, nil
}

// walk visits the files of dir first and then its subdirectories, both in
// lexical order. Unreadable subdirectories are skipped.
func (c *Classifier) walk(dir string, acc sample, cadence int) (sample, verdict, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return acc, verdict{}, errors.Wrap(err, "ReadDir")
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			subdirs = append(subdirs, name)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		if l, ok := markerFiles[name]; ok {
			return acc, decided(l), nil
		}

		if !acc.tally.Add(name) {
			continue
		}

		if acc.tally.Total() >= acc.next {
			acc.next += cadence
			if l := acc.tally.Dominant(); l != Unknown {
				return acc, decided(l), nil
			}
		}
	}

	for _, name := range subdirs {
		if c.skip(name) || c.prune(filepath.Join(dir, name)) {
			continue
		}
		if l, ok := markerDirs[name]; ok {
			return acc, decided(l), nil
		}

		var v verdict
		acc, v, err = c.walk(filepath.Join(dir, name), acc, cadence)
		if err != nil {
			debug.Log("skipping %v: %v", filepath.Join(dir, name), err)
			continue
		}
		if v.decided {
			return acc, v, nil
		}
	}

	return acc, verdict{}, nil
}

func (c *Classifier) skip(name string) bool {
	for _, s := range c.Skip {
		if s == name {
			return true
		}
	}
	return false
}

func (c *Classifier) prune(dir string) bool {
	for _, p := range c.Prune {
		if fs.HasPathPrefix(p, dir) {
			return true
		}
	}
	return false
}
