package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/ui/progress"
)

var version = "0.1.0-dev (compiled manually)"

// GlobalOptions hold all global options for repobak.
type GlobalOptions struct {
	BackupDir string
	Blacklist []string
	Quiet     bool
	Verbose   int
	JSON      bool

	stdout io.Writer
	stderr io.Writer

	// verbosity is set as follows:
	//  0 means: don't print any messages except errors, this is used when --quiet is specified
	//  1 is the default: print essential messages
	//  2 means: print more messages, report minor things, this is used when --verbose is specified
	//  3 means: print very detailed messages, this is used when --verbose=2 is specified
	verbosity uint
}

// loadEnvFile reads variables from $REPOBAK_ENV_FILE or ./.env into the
// environment. Variables which are already set are not overwritten.
func loadEnvFile() {
	filename := os.Getenv("REPOBAK_ENV_FILE")
	if filename == "" {
		filename = ".env"
	}

	if err := godotenv.Load(filename); err != nil {
		debug.Log("not loading %v: %v", filename, err)
	}
}

func (opts *GlobalOptions) AddFlags(f *pflag.FlagSet) {
	f.StringVarP(&opts.BackupDir, "backup-dir", "b", "", "`directory` the repositories are mirrored to (default: $REPOBAK_BACKUP_DIR)")
	f.StringSliceVar(&opts.Blacklist, "blacklist", nil, "exclude paths containing `keyword` from every repository (can be specified multiple times, default: $REPOBAK_BLACKLIST)")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not output comprehensive progress report")
	// use empty parameter name as `-v, --verbose n` instead of the correct `--verbose=n` is confusing
	f.CountVarP(&opts.Verbose, "verbose", "v", "be verbose (specify multiple times or a level using --verbose=n``, max level/times is 2)")
	f.BoolVar(&opts.JSON, "json", false, "set output mode to JSON for commands that support it")

	opts.BackupDir = os.Getenv("REPOBAK_BACKUP_DIR")
	if s := os.Getenv("REPOBAK_BLACKLIST"); s != "" {
		opts.Blacklist = strings.Split(s, ",")
	}
}

func (opts *GlobalOptions) PreRun() error {
	// set verbosity, default is one
	opts.verbosity = 1
	if opts.Quiet && opts.Verbose > 0 {
		return errors.Fatal("--quiet and --verbose cannot be specified at the same time")
	}

	switch {
	case opts.Verbose >= 2:
		opts.verbosity = 3
	case opts.Verbose > 0:
		opts.verbosity = 2
	case opts.Quiet:
		opts.verbosity = 0
	}

	return nil
}

// printer returns a Printer for the configured verbosity. In JSON mode only
// errors are printed as text.
func (opts *GlobalOptions) printer() progress.Printer {
	verbosity := opts.verbosity
	if opts.JSON {
		verbosity = 0
	}
	return progress.NewWriterPrinter(opts.stdout, opts.stderr, verbosity)
}

// Warnf writes the message to the configured stderr stream.
func Warnf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(globalOptions.stderr, format, args...)
}
