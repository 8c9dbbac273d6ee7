package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/backup"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

func backupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import salon data",
	}
	cmd.AddCommand(
		backupExportCmd(a),
		backupImportCmd(a),
		backupPushCmd(a),
		backupPullCmd(a),
		backupListCmd(a),
	)
	return cmd
}

func backupExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a v1 backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.repo.ExportBackup(cmd.Context())
			if err != nil {
				return err
			}
			data, err := backup.Encode(b)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if out == "" {
				out = backup.FileName(a.clock())
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d clients, %d appointments, %d formulas)\n",
				out, len(b.Clients), len(b.Appointments), len(b.Formulas))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, - for stdout (default: dated file name)")
	return cmd
}

// restore imports data and records the outcome.
func (a *app) restore(cmd *cobra.Command, data []byte, merge bool) error {
	if err := a.repo.ImportBackup(cmd.Context(), data, repo.ImportOptions{Merge: merge}); err != nil {
		return err
	}
	a.audit.Dispatch(audit.Event{
		Action:   "backup_imported",
		Entity:   "backup",
		Metadata: map[string]any{"merge": merge},
	})
	mode := "replaced"
	if merge {
		mode = "merged"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backup %s\n", mode)
	return nil
}

func backupImportCmd(a *app) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a v1 backup file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			return a.restore(cmd, data, merge)
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Merge by id instead of replacing everything")
	return cmd
}

func backupPushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload a backup to the S3 archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.s3()
			if err != nil {
				return err
			}
			b, err := a.repo.ExportBackup(cmd.Context())
			if err != nil {
				return err
			}
			key, err := archive.Put(cmd.Context(), b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", key)
			return nil
		},
	}
}

func backupPullCmd(a *app) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "pull [key]",
		Short: "Import a backup from the S3 archive (default: the latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.s3()
			if err != nil {
				return err
			}

			var key string
			if len(args) == 1 {
				key = args[0]
			} else if key, err = archive.Latest(cmd.Context()); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("the archive has no backups")
				}
				return err
			}

			data, err := archive.Get(cmd.Context(), key)
			if err != nil {
				return err
			}
			return a.restore(cmd, data, merge)
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Merge by id instead of replacing everything")
	return cmd
}

func backupListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.s3()
			if err != nil {
				return err
			}
			keys, err := archive.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
