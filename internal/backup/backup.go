// Package backup mirrors the repositories below a source directory into a
// backup location laid out as <root>/<language>/<name>. Repositories whose
// fingerprint matches the stored copy are skipped.
package backup

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/discover"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/exclude"
	"github.com/repobak/repobak/internal/fs"
	"github.com/repobak/repobak/internal/language"
	"github.com/repobak/repobak/internal/mirror"
	"github.com/repobak/repobak/internal/ui/progress"
)

// Options configure a Backup.
type Options struct {
	// Workers is the number of repositories mirrored concurrently,
	// GOMAXPROCS if zero.
	Workers int

	// Clean removes the destination of a repository before mirroring it.
	Clean bool
	// Checksum compares file contents when only the modification time
	// differs.
	Checksum bool
	// DryRun only reports which repositories would be mirrored.
	DryRun bool

	Policies           exclude.Config
	MinSampleSize      int
	LargeFileThreshold int64
}

// DefaultOptions returns the options used unless configured otherwise.
func DefaultOptions() Options {
	return Options{
		Policies:      exclude.DefaultConfig(),
		MinSampleSize: language.DefaultMinSampleSize,
	}
}

// Result describes one mirrored repository.
type Result struct {
	Repository  discover.Repository `json:"repository"`
	Destination string              `json:"destination"`
	Stats       mirror.Stats        `json:"stats"`
	Err         error               `json:"-"`
}

// Summary describes a run.
type Summary struct {
	// Repositories lists every repository found in the source.
	Repositories []discover.Repository
	// Matched lists repositories whose stored copy is up to date.
	Matched []discover.Repository
	// Unsupported lists repositories in a language that is not mirrored.
	Unsupported []discover.Repository
	// Duplicates lists repositories which share language and name with an
	// earlier repository of the same run.
	Duplicates []discover.Repository
	// Mirrored contains one result per dispatched repository, sorted by
	// destination. In a dry run, nothing is copied and the stats are empty.
	Mirrored []Result

	Elapsed time.Duration
}

// Failed returns the results with an error.
func (s Summary) Failed() []Result {
	var failed []Result
	for _, res := range s.Mirrored {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Stats returns the sum of the stats of all mirrored repositories.
func (s Summary) Stats() mirror.Stats {
	var total mirror.Stats
	for _, res := range s.Mirrored {
		total.Add(res.Stats)
	}
	return total
}

// Backup mirrors repositories into the backup location at root.
type Backup struct {
	root    string
	opts    Options
	printer progress.Printer
}

// New prepares the backup location at root, creating it if necessary. A
// location which cannot be used results in a fatal error.
func New(root string, opts Options, printer progress.Printer) (*Backup, error) {
	if root == "" {
		return nil, errors.Fatal("no backup location specified")
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Fatalf("unable to prepare backup location: %v", err)
	}

	fi, err := fs.Stat(root)
	switch {
	case err == nil && !fi.IsDir():
		return nil, errors.Fatalf("backup location %v is not a directory", root)
	case err != nil:
		debug.Log("creating backup location %v", root)
		if err := fs.MkdirAll(root, 0755); err != nil {
			return nil, errors.Fatalf("unable to prepare backup location: %v", err)
		}
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if printer == nil {
		printer = &progress.NoopPrinter{}
	}

	return &Backup{root: root, opts: opts, printer: printer}, nil
}

// Root returns the absolute path of the backup location.
func (b *Backup) Root() string {
	return b.root
}

// Destination returns where repo is mirrored to.
func (b *Backup) Destination(repo discover.Repository) string {
	return filepath.Join(b.root, repo.Language.String(), repo.Name)
}

// Policy returns the policy for the repository of lang at dir, nil if lang
// is not mirrored. If the backup location root lies inside the repository, it
// is excluded as well. An empty root is ignored.
func Policy(cfg exclude.Config, root, dir string, lang language.Language) *exclude.Policy {
	p, ok := exclude.ForLanguage(lang, cfg)
	if !ok {
		return nil
	}
	if root == "" || dir == root || !fs.HasPathPrefix(dir, root) {
		return p
	}

	rel, err := filepath.Rel(dir, root)
	if err != nil {
		debug.Log("Rel(%v, %v): %v", dir, root, err)
		return p
	}
	return p.With(p.Name(), exclude.RejectSubtree(filepath.ToSlash(rel)))
}

// NewScanner returns a scanner which classifies and fingerprints
// repositories the way a backup to root does.
func NewScanner(root string, opts Options) *discover.Scanner {
	scanner := discover.NewScanner()
	scanner.Classifier.MinSampleSize = opts.MinSampleSize
	scanner.LargeFileThreshold = opts.LargeFileThreshold
	scanner.Policy = func(dir string, lang language.Language) *exclude.Policy {
		return Policy(opts.Policies, root, dir, lang)
	}
	return scanner
}

func (b *Backup) policy(dir string, lang language.Language) *exclude.Policy {
	return Policy(b.opts.Policies, b.root, dir, lang)
}

func (b *Backup) scanner() *discover.Scanner {
	scanner := NewScanner(b.root, b.opts)
	scanner.Error = func(item string, err error) error {
		b.printer.E("error: %v: %v", item, err)
		return nil
	}
	return scanner
}

// Run mirrors all repositories below source which are missing or outdated in
// the backup location. A source which does not exist is reported and
// skipped. Errors for single repositories are recorded in their Result; the
// returned error is only set if the run itself failed or was interrupted.
func (b *Backup) Run(ctx context.Context, source string) (Summary, error) {
	start := time.Now()
	var summary Summary

	source, err := filepath.Abs(source)
	if err != nil {
		return summary, errors.Wrap(err, "Abs")
	}

	if ok, err := fs.IsDir(source); err != nil || !ok {
		b.printer.E("source %v is not a directory, nothing to do", source)
		return summary, nil
	}

	idx, err := b.BuildIndex(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "BuildIndex")
	}
	b.printer.V("found %d repositories in %v", idx.Len(), b.root)
	for _, key := range idx.Keys() {
		b.printer.VV("stored: %v", key)
	}

	scanner := b.scanner()
	if fs.HasPathPrefix(source, b.root) {
		scanner.Skip = append(scanner.Skip, b.root)
	}

	var (
		m          sync.Mutex
		dispatched = make(map[Key]struct{})
	)

	wg, wgCtx := errgroup.WithContext(ctx)
	wg.SetLimit(b.opts.Workers)

	err = scanner.Discover(ctx, source, func(repo discover.Repository) error {
		summary.Repositories = append(summary.Repositories, repo)

		if repo.FingerprintErr != nil {
			b.printer.E("%v: fingerprint incomplete: %v", repo.Path, repo.FingerprintErr)
		}

		key := KeyOf(repo)
		switch {
		case idx.Matches(repo):
			b.printer.VV("%v is up to date", key)
			summary.Matched = append(summary.Matched, repo)
			return nil
		case b.policy(repo.Path, repo.Language) == nil:
			b.printer.V("skipping %v, language %v is not supported", repo.Path, repo.Language.Name())
			summary.Unsupported = append(summary.Unsupported, repo)
			return nil
		}

		if _, ok := dispatched[key]; ok {
			b.printer.E("skipping %v, %v was already mirrored in this run", repo.Path, key)
			summary.Duplicates = append(summary.Duplicates, repo)
			return nil
		}
		dispatched[key] = struct{}{}

		res := Result{Repository: repo, Destination: b.Destination(repo)}
		if b.opts.DryRun {
			b.printer.P("would mirror %v to %v", repo.Path, res.Destination)
			summary.Mirrored = append(summary.Mirrored, res)
			return nil
		}

		b.printer.P("mirroring %v to %v", repo.Path, res.Destination)
		wg.Go(func() error {
			res.Stats, res.Err = b.mirror(wgCtx, repo, res.Destination)
			if res.Err != nil {
				b.printer.E("mirroring %v failed: %v", repo.Path, res.Err)
			}

			m.Lock()
			summary.Mirrored = append(summary.Mirrored, res)
			m.Unlock()
			return nil
		})
		return nil
	})

	// the workers never return an error
	_ = wg.Wait()

	sort.Slice(summary.Mirrored, func(i, j int) bool {
		return summary.Mirrored[i].Destination < summary.Mirrored[j].Destination
	})
	summary.Elapsed = time.Since(start)

	if err != nil {
		return summary, errors.Wrap(err, "Discover")
	}
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (b *Backup) mirror(ctx context.Context, repo discover.Repository, dst string) (mirror.Stats, error) {
	m := mirror.New(b.policy(repo.Path, repo.Language), mirror.Options{Checksum: b.opts.Checksum})
	m.Error = func(item string, err error) error {
		b.printer.E("%v: %v: %v", repo.Name, item, err)
		return nil
	}
	m.Complete = func(item string, action mirror.Action) {
		b.printer.VV("%v %v/%v", action, repo.Name, item)
	}

	stats, err := m.Sync(ctx, repo.Path, dst, b.opts.Clean)
	if err == nil && stats.Failed > 0 {
		err = errors.Errorf("%d files could not be mirrored", stats.Failed)
	}
	return stats, err
}
