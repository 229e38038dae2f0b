// Package discover finds repositories below a directory and describes each
// one by name, language and content fingerprint.
package discover

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/exclude"
	"github.com/repobak/repobak/internal/fingerprint"
	"github.com/repobak/repobak/internal/fs"
	"github.com/repobak/repobak/internal/language"
)

// Signifier is the name of the directory that marks a repository root.
const Signifier = ".git"

// Repository describes a repository found by a Scanner. FingerprintErr is set
// if some files could not be read, the fingerprint then only covers the
// remaining files.
type Repository struct {
	Name           string             `json:"name"`
	Path           string             `json:"path"`
	Language       language.Language  `json:"language"`
	Fingerprint    fingerprint.Digest `json:"fingerprint"`
	FingerprintErr error              `json:"-"`
}

func (r Repository) String() string {
	return fmt.Sprintf("%v/%v", r.Language, r.Name)
}

// ErrorFunc is called when an error occurs for a directory or repository. If
// it returns nil, the item is skipped, otherwise the scan is aborted.
type ErrorFunc func(item string, err error) error

// Scanner walks directory trees looking for repositories.
type Scanner struct {
	// Signifier marks repository roots, Signifier if empty.
	Signifier  string
	Classifier *language.Classifier

	// LargeFileThreshold is passed on to the fingerprint.
	LargeFileThreshold int64

	// Policy returns the policy that selects the files which are
	// fingerprinted for the repository of lang at dir. If it is nil or
	// returns nil, all files are used.
	Policy func(dir string, lang language.Language) *exclude.Policy

	// Language, if set, may decide the language of the repository at dir
	// without classifying it.
	Language func(dir string) (language.Language, bool)

	// Skip lists directories which are neither searched nor reported. They
	// are not sampled when classifying a repository containing them either.
	Skip []string

	Error ErrorFunc
}

// NewScanner returns a Scanner for .git repositories with the default
// classifier.
func NewScanner() *Scanner {
	return &Scanner{
		Signifier:  Signifier,
		Classifier: language.NewClassifier(Signifier),
		Error:      func(_ string, err error) error { return nil },
	}
}

func (s *Scanner) signifier() string {
	if s.Signifier == "" {
		return Signifier
	}
	return s.Signifier
}

func (s *Scanner) error(item string, err error) error {
	if s.Error == nil {
		return nil
	}
	return s.Error(item, err)
}

func (s *Scanner) skip(dir string) bool {
	for _, p := range s.Skip {
		if fs.HasPathPrefix(p, dir) {
			return true
		}
	}
	return false
}

// IsRepository returns true if dir directly contains the signifier directory.
func (s *Scanner) IsRepository(dir string) (bool, error) {
	return fs.IsDir(filepath.Join(dir, s.signifier()))
}

// Discover walks the tree at root in lexical order and calls fn for every
// repository. The walk does not descend into repositories, so repositories
// nested in other repositories are not reported. Errors returned by fn abort
// the walk. Discover can be called any number of times.
func (s *Scanner) Discover(ctx context.Context, root string, fn func(Repository) error) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrap(err, "Abs")
	}

	fi, err := fs.Stat(root)
	if err != nil {
		return errors.WithStack(err)
	}
	if !fi.IsDir() {
		return errors.Errorf("%v is not a directory", root)
	}

	debug.Log("start discovery below %v", root)
	return s.walk(ctx, root, fn)
}

func (s *Scanner) walk(ctx context.Context, dir string, fn func(Repository) error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.skip(dir) {
		debug.Log("skipping %v", dir)
		return nil
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return s.error(dir, errors.WithStack(err))
	}

	var subdirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() == s.signifier() {
			repo, err := s.Inspect(dir)
			if err != nil {
				return s.error(dir, err)
			}
			return fn(repo)
		}
		subdirs = append(subdirs, entry.Name())
	}

	for _, name := range subdirs {
		if err := s.walk(ctx, filepath.Join(dir, name), fn); err != nil {
			return err
		}
	}
	return nil
}

// Inspect classifies and fingerprints the repository at dir. An error is only
// returned if the repository could not be classified; fingerprint failures
// are stored in the result.
func (s *Scanner) Inspect(dir string) (Repository, error) {
	repo := Repository{
		Name: filepath.Base(dir),
		Path: dir,
	}

	lang, ok := language.Unknown, false
	if s.Language != nil {
		lang, ok = s.Language(dir)
	}
	if !ok {
		classifier := s.Classifier
		if classifier == nil {
			classifier = language.NewClassifier(s.signifier())
		}

		if len(s.Skip) > 0 {
			c := *classifier
			c.Prune = s.Skip
			classifier = &c
		}

		var err error
		lang, err = classifier.Classify(dir)
		if err != nil {
			return Repository{}, errors.Wrap(err, "Classify")
		}
	}
	repo.Language = lang

	opts := fingerprint.Options{LargeFileThreshold: s.LargeFileThreshold}
	if s.Policy != nil {
		if policy := s.Policy(dir, lang); policy != nil {
			opts.Include = policy.Include
		}
	}

	repo.Fingerprint, repo.FingerprintErr = fingerprint.Compute(dir, opts)
	debug.Log("found %v at %v, fingerprint %v", repo, dir, repo.Fingerprint.Str())
	return repo, nil
}

var errStop = errors.New("iteration stopped")

// All returns an iterator over the repositories below root. A failed scan is
// reported as a final pair with a non-nil error.
func (s *Scanner) All(ctx context.Context, root string) iter.Seq2[Repository, error] {
	return func(yield func(Repository, error) bool) {
		err := s.Discover(ctx, root, func(repo Repository) error {
			if !yield(repo, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(Repository{}, err)
		}
	}
}
