package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/repobak/repobak/internal/backup"
	"github.com/repobak/repobak/internal/discover"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/fs"
	"github.com/repobak/repobak/internal/language"
	"github.com/repobak/repobak/internal/ui"
	"github.com/repobak/repobak/internal/ui/table"
)

func newScanCommand(gopts *GlobalOptions) *cobra.Command {
	var opts ScanOptions

	cmd := &cobra.Command{
		Use:   "scan [flags] DIR",
		Short: "List the repositories below DIR",
		Long: `
The "scan" command lists the repositories found below DIR together with their
language and fingerprint, without writing anything.

Fingerprints are computed like the "backup" command computes them: the
--keep-*, --exclude and --large-file-threshold flags and the backup directory
(if set) have the same effect, so a repository is up to date if its
fingerprint equals the one "scan" reports for its stored copy.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.FilterLanguage = cmd.Flags().Changed("language")
			return runScan(cmd.Context(), opts, *gopts, args)
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

// ScanOptions bundles all options for the scan command.
type ScanOptions struct {
	// Language is only used as a filter if FilterLanguage is set.
	Language       language.Language
	FilterLanguage bool
	InspectOptions
}

func (opts *ScanOptions) AddFlags(f *pflag.FlagSet) {
	f.Var(&opts.Language, "language", "only list repositories of `language` (py, go, java, c, cpp, unknown)")
	opts.InspectOptions.AddFlags(f)
}

func runScan(ctx context.Context, opts ScanOptions, gopts GlobalOptions, args []string) error {
	if len(args) != 1 {
		return errors.Fatal("exactly one directory must be specified")
	}

	bopts, err := opts.backupOptions(gopts)
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Wrap(err, "Abs")
	}

	var root string
	if gopts.BackupDir != "" {
		root, err = filepath.Abs(gopts.BackupDir)
		if err != nil {
			return errors.Wrap(err, "Abs")
		}
	}

	printer := gopts.printer()
	scanner := backup.NewScanner(root, bopts)
	if root != "" && root != dir && fs.HasPathPrefix(dir, root) {
		scanner.Skip = append(scanner.Skip, root)
	}
	scanner.Error = func(item string, err error) error {
		printer.E("error: %v: %v", item, err)
		return nil
	}

	var repos []discover.Repository
	for repo, err := range scanner.All(ctx, dir) {
		if err != nil {
			return err
		}
		if opts.FilterLanguage && repo.Language != opts.Language {
			continue
		}
		repos = append(repos, repo)
	}

	if gopts.JSON {
		for _, repo := range repos {
			_, _ = fmt.Fprint(gopts.stdout, ui.ToJSONString(repo))
		}
		return nil
	}

	if gopts.verbosity == 0 {
		return nil
	}

	tab := table.New()
	tab.AddColumn("Language", "{{ .Language.Name }}")
	tab.AddColumn("Name", "{{ .Name }}")
	tab.AddColumn("Fingerprint", "{{ .Fingerprint.Str }}")
	tab.AddColumn("Path", "{{ quote .Path }}")
	for _, repo := range repos {
		tab.AddRow(repo)
	}
	tab.AddFooter(fmt.Sprintf("%d repositories", len(repos)))

	return tab.Write(gopts.stdout)
}
