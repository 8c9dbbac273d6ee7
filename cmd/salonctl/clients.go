package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

func clientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"client"},
		Short:   "List and edit clients",
	}
	cmd.AddCommand(clientsListCmd(a), clientsGetCmd(a), clientsAddCmd(a), clientsDeleteCmd(a))
	return cmd
}

func clientsListCmd(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := a.repo.ListClients(cmd.Context())
			if err != nil {
				return err
			}

			query = strings.ToLower(strings.TrimSpace(query))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE")
			for _, c := range clients {
				if query != "" && !strings.Contains(strings.ToLower(c.DisplayName()+" "+c.Email), query) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.DisplayName(), c.Email, c.Phone)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by name or email")
	return cmd
}

func clientsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.repo.GetClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
}

func clientsAddCmd(a *app) *cobra.Command {
	var c models.Client

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a client, or update one when --id is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := a.repo.UpsertClient(cmd.Context(), c)
			if err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "client_saved", Entity: "client", EntityID: saved.ID})
			fmt.Fprintf(cmd.OutOrStdout(), "saved client %s (%s)\n", saved.ID, saved.DisplayName())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.ID, "id", "", "Existing client id")
	f.StringVar(&c.FirstName, "first", "", "First name")
	f.StringVar(&c.LastName, "last", "", "Last name")
	f.StringVar(&c.Pronouns, "pronouns", "", "Pronouns")
	f.StringVar(&c.Email, "email", "", "Email")
	f.StringVar(&c.Phone, "phone", "", "Phone")
	f.StringVar(&c.Notes, "notes", "", "Notes")
	f.StringSliceVar(&c.Tags, "tag", nil, "Tag (repeatable)")
	return cmd
}

func clientsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client and their appointments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.DeleteClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "client_deleted", Entity: "client", EntityID: args[0]})
			fmt.Fprintf(cmd.OutOrStdout(), "deleted client %s\n", args[0])
			return nil
		},
	}
}

// ======================================================
// Invites
// ======================================================

func inviteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Issue client portal invite tokens",
	}

	issue := func(use, short string, regenerate bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <client-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var inv models.Invite
				var err error
				if regenerate {
					inv, err = a.repo.RegenerateInvite(cmd.Context(), args[0])
				} else {
					inv, err = a.repo.EnsureInvite(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				a.audit.Dispatch(audit.Event{Action: "invite_" + use, Entity: "client", EntityID: args[0]})
				fmt.Fprintln(cmd.OutOrStdout(), inv.Token)
				return nil
			},
		}
	}

	cmd.AddCommand(
		issue("ensure", "Print the client's token, issuing one if missing", false),
		issue("regenerate", "Replace the client's token; the old one stops working", true),
	)
	return cmd
}
