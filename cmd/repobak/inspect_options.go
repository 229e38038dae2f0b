package main

import (
	"github.com/spf13/pflag"

	"github.com/repobak/repobak/internal/backup"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/exclude"
	"github.com/repobak/repobak/internal/fingerprint"
	"github.com/repobak/repobak/internal/language"
	"github.com/repobak/repobak/internal/ui"
)

// InspectOptions decide how repositories are classified and which files are
// fingerprinted and mirrored. backup and scan share them so that both report
// the same fingerprints.
type InspectOptions struct {
	KeepVendor         bool
	KeepVenv           bool
	KeepBytecode       bool
	KeepBinaries       bool
	MinSamples         int
	LargeFileThreshold string
	Excludes           []string
	ExcludeFiles       []string
}

func (opts *InspectOptions) AddFlags(f *pflag.FlagSet) {
	f.BoolVar(&opts.KeepVendor, "keep-vendor", true, "mirror the vendor directory of Go repositories")
	f.BoolVar(&opts.KeepVenv, "keep-venv", false, "mirror virtual environments of Python repositories")
	f.BoolVar(&opts.KeepBytecode, "keep-bytecode", false, "mirror compiled Python bytecode")
	f.BoolVar(&opts.KeepBinaries, "keep-binaries", false, "mirror build output of Go repositories")
	f.IntVar(&opts.MinSamples, "min-samples", language.DefaultMinSampleSize, "evaluate the dominant language every `n` files")
	f.StringVar(&opts.LargeFileThreshold, "large-file-threshold", "10M", "files of at least `size` are not fingerprinted (allowed suffixes: k/K, m/M, g/G, t/T)")
	f.StringArrayVarP(&opts.Excludes, "exclude", "e", nil, "exclude a `pattern` from every repository (can be specified multiple times)")
	f.StringArrayVar(&opts.ExcludeFiles, "exclude-file", nil, "read exclude patterns from a `file` (can be specified multiple times)")
}

// patterns collects the exclude patterns from the command line and from
// pattern files.
func (opts InspectOptions) patterns() ([]exclude.Pattern, error) {
	list := append([]string{}, opts.Excludes...)
	if len(opts.ExcludeFiles) > 0 {
		fromFiles, err := exclude.ReadPatternFiles(opts.ExcludeFiles...)
		if err != nil {
			return nil, errors.Fatalf("--exclude-file: %v", err)
		}
		list = append(list, fromFiles...)
	}

	patterns, err := exclude.ParsePatterns(list)
	if err != nil {
		return nil, errors.Fatalf("--exclude: %v", err)
	}
	return patterns, nil
}

// backupOptions converts the options, Workers and the flags controlling the
// run itself are left unset.
func (opts InspectOptions) backupOptions(gopts GlobalOptions) (backup.Options, error) {
	threshold, err := ui.ParseBytes(opts.LargeFileThreshold)
	if err != nil {
		return backup.Options{}, errors.Fatalf("invalid --large-file-threshold: %v", err)
	}
	if threshold <= 0 {
		threshold = fingerprint.DefaultLargeFileThreshold
	}
	if opts.MinSamples <= 0 {
		return backup.Options{}, errors.Fatal("--min-samples must be positive")
	}
	patterns, err := opts.patterns()
	if err != nil {
		return backup.Options{}, err
	}

	return backup.Options{
		Policies: exclude.Config{
			Blacklist: gopts.Blacklist,
			Python: exclude.PythonOptions{
				IgnoreVenv:     !opts.KeepVenv,
				IgnoreBytecode: !opts.KeepBytecode,
			},
			Go: exclude.GoOptions{
				IgnoreVendor:   !opts.KeepVendor,
				IgnoreBinaries: !opts.KeepBinaries,
			},
			Patterns: patterns,
		},
		MinSampleSize:      opts.MinSamples,
		LargeFileThreshold: threshold,
	}, nil
}
