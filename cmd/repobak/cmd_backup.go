package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/repobak/repobak/internal/backup"
	"github.com/repobak/repobak/internal/errors"
	"github.com/repobak/repobak/internal/ui"
)

func newBackupCommand(gopts *GlobalOptions) *cobra.Command {
	var opts BackupOptions

	cmd := &cobra.Command{
		Use:   "backup [flags] SOURCE",
		Short: "Mirror the repositories below SOURCE into the backup directory",
		Long: `
The "backup" command searches SOURCE for repositories (directories containing
a .git directory), classifies each by its dominant language and mirrors Python
and Go repositories to <backup-dir>/<language>/<name>. Repositories whose
content did not change since the last run are skipped.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was a fatal error (nothing was mirrored).
Exit status is 3 if some repositories could not be mirrored completely.
Exit status is 130 if the command was interrupted.
`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd.Context(), opts, *gopts, args)
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

// BackupOptions bundles all options for the backup command.
type BackupOptions struct {
	Workers  int
	Clean    bool
	Checksum bool
	DryRun   bool
	InspectOptions
}

func (opts *BackupOptions) AddFlags(f *pflag.FlagSet) {
	f.IntVar(&opts.Workers, "workers", 0, "mirror `n` repositories concurrently (default: number of CPUs)")
	f.BoolVar(&opts.Clean, "clean", false, "remove the stored copy of a changed repository before mirroring it")
	f.BoolVar(&opts.Checksum, "checksum", false, "compare file contents if only the modification time differs")
	f.BoolVarP(&opts.DryRun, "dry-run", "n", false, "do not write any data, just show what would be done")
	opts.InspectOptions.AddFlags(f)
}

// backupOptions converts the command line options.
func (opts BackupOptions) backupOptions(gopts GlobalOptions) (backup.Options, error) {
	bopts, err := opts.InspectOptions.backupOptions(gopts)
	if err != nil {
		return backup.Options{}, err
	}

	bopts.Workers = opts.Workers
	bopts.Clean = opts.Clean
	bopts.Checksum = opts.Checksum
	bopts.DryRun = opts.DryRun
	return bopts, nil
}

type jsonBackupSummary struct {
	MessageType  string   `json:"message_type"` // summary
	DryRun       bool     `json:"dry_run,omitempty"`
	Repositories int      `json:"repositories"`
	Matched      int      `json:"matched"`
	Unsupported  int      `json:"unsupported"`
	Duplicates   int      `json:"duplicates"`
	Mirrored     []string `json:"mirrored"`
	Failed       []string `json:"failed,omitempty"`

	FilesCopied    uint    `json:"files_copied"`
	FilesUnchanged uint    `json:"files_unchanged"`
	FilesExcluded  uint    `json:"files_excluded"`
	FilesRemoved   uint    `json:"files_removed"`
	BytesCopied    uint64  `json:"bytes_copied"`
	TotalDuration  float64 `json:"total_duration"`
}

func printBackupSummary(gopts GlobalOptions, opts BackupOptions, summary backup.Summary) {
	stats := summary.Stats()
	failed := summary.Failed()

	if gopts.JSON {
		s := jsonBackupSummary{
			MessageType:    "summary",
			DryRun:         opts.DryRun,
			Repositories:   len(summary.Repositories),
			Matched:        len(summary.Matched),
			Unsupported:    len(summary.Unsupported),
			Duplicates:     len(summary.Duplicates),
			Mirrored:       []string{},
			FilesCopied:    stats.Copied,
			FilesUnchanged: stats.Unchanged,
			FilesExcluded:  stats.Excluded,
			FilesRemoved:   stats.Removed,
			BytesCopied:    stats.Bytes,
			TotalDuration:  summary.Elapsed.Seconds(),
		}
		for _, res := range summary.Mirrored {
			s.Mirrored = append(s.Mirrored, res.Destination)
		}
		for _, res := range failed {
			s.Failed = append(s.Failed, res.Destination)
		}
		_, _ = fmt.Fprint(gopts.stdout, ui.ToJSONString(s))
		return
	}

	p := gopts.printer()
	p.P("")
	p.P("Repositories: %5d found, %5d up to date, %5d unsupported",
		len(summary.Repositories), len(summary.Matched), len(summary.Unsupported))
	if opts.DryRun {
		p.P("Would mirror %d repositories", len(summary.Mirrored))
		return
	}
	p.P("Mirrored:     %5d repositories, %d failed", len(summary.Mirrored), len(failed))
	p.P("Files:        %5d copied, %5d unchanged, %5d excluded, %5d removed",
		stats.Copied, stats.Unchanged, stats.Excluded, stats.Removed)
	p.P("Added %v in %v", ui.FormatBytes(stats.Bytes), ui.FormatDuration(summary.Elapsed))
}

func runBackup(ctx context.Context, opts BackupOptions, gopts GlobalOptions, args []string) error {
	if len(args) != 1 {
		return errors.Fatal("exactly one source directory must be specified")
	}
	if gopts.BackupDir == "" {
		return errors.Fatal("please specify the backup directory (-b or $REPOBAK_BACKUP_DIR)")
	}

	bopts, err := opts.backupOptions(gopts)
	if err != nil {
		return err
	}

	b, err := backup.New(gopts.BackupDir, bopts, gopts.printer())
	if err != nil {
		return err
	}

	summary, err := b.Run(ctx, args[0])
	if err != nil {
		return err
	}

	printBackupSummary(gopts, opts, summary)

	if len(summary.Failed()) > 0 {
		return ErrPartialBackup
	}
	return nil
}
