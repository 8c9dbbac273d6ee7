package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the backend's health and which store is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if a.probe == nil {
				fmt.Fprintf(out, "store: %s\n", a.repo.Mode())
				return nil
			}

			h, err := a.probe.Probe(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "backend: unreachable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "backend: mode=%s dbProbeOk=%t\n", h.ModeValue(), h.DBProbeOK)
				if h.Error != "" {
					fmt.Fprintf(out, "backend error: %s\n", h.Error)
				}
			}
			fmt.Fprintf(out, "store: %s\n", a.repo.Mode())
			return nil
		},
	}
}

func resetCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the local store; the next run starts from sample data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all local data, pass --yes to confirm")
			}
			if a.local == nil {
				return fmt.Errorf("no local store configured")
			}
			if err := a.local.ResetAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local store reset")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
