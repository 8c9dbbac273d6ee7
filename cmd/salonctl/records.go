package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// ======================================================
// Formulas
// ======================================================

func formulasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "formulas",
		Aliases: []string{"formula"},
		Short:   "List and record color formulas",
	}
	cmd.AddCommand(formulasListCmd(a), formulasAddCmd(a), formulasDeleteCmd(a))
	return cmd
}

func formulasListCmd(a *app) *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List formulas, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formulas, err := a.repo.ListFormulas(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCLIENT\tTYPE\tTITLE\tSTEPS")
			for _, f := range formulas {
				if clientID != "" && f.ClientID != clientID {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", f.ID, f.ClientID, f.ServiceType, f.Title, len(f.Steps))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "Only this client's formulas")
	return cmd
}

func formulasAddCmd(a *app) *cobra.Command {
	var f models.Formula
	var serviceType, product, developer string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a formula",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ServiceType = models.FormulaServiceType(serviceType)
			if product != "" {
				f.Steps = []models.FormulaStep{{StepName: "Step 1", Product: product, Developer: developer}}
			}
			saved, err := a.repo.UpsertFormula(cmd.Context(), f)
			if err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "formula_saved", Entity: "formula", EntityID: saved.ID})
			fmt.Fprintf(cmd.OutOrStdout(), "saved formula %s\n", saved.ID)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.ID, "id", "", "Existing formula id")
	fl.StringVar(&f.ClientID, "client", "", "Client id")
	fl.StringVar(&f.AppointmentID, "appointment", "", "Appointment id")
	fl.StringVar(&f.Title, "title", "", "Title")
	fl.StringVar(&serviceType, "type", "other", "color, lighten, tone, gloss or other")
	fl.StringVar(&f.ColorLine, "line", "", "Color line")
	fl.StringVar(&product, "product", "", "Product for a single-step formula")
	fl.StringVar(&developer, "developer", "", "Developer for a single-step formula")
	fl.StringVar(&f.Notes, "notes", "", "Notes")
	return cmd
}

func formulasDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.DeleteFormula(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "formula_deleted", Entity: "formula", EntityID: args[0]})
			fmt.Fprintf(cmd.OutOrStdout(), "deleted formula %s\n", args[0])
			return nil
		},
	}
}

// ======================================================
// Tasks
// ======================================================

func tasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Track salon to-dos",
	}
	cmd.AddCommand(tasksListCmd(a), tasksAddCmd(a), tasksDoneCmd(a), tasksDeleteCmd(a))
	return cmd
}

func tasksListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.repo.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tDUE\tTITLE")
			for _, t := range tasks {
				if !all && t.Status == models.TaskCompleted {
					continue
				}
				due := "-"
				if t.DueAt != nil {
					due = t.DueAt.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Status, due, t.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include completed tasks")
	return cmd
}

func tasksAddCmd(a *app) *cobra.Command {
	var t models.Task
	var due string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Title = args[0]
			if due != "" {
				at, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("due must be YYYY-MM-DD, got %q", due)
				}
				t.DueAt = &at
			}
			saved, err := a.repo.UpsertTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "task_saved", Entity: "task", EntityID: saved.ID})
			fmt.Fprintf(cmd.OutOrStdout(), "added task %s\n", saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&t.ClientID, "client", "", "Related client id")
	cmd.Flags().StringVar(&t.Notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&due, "due", "", "Due date as YYYY-MM-DD")
	return cmd
}

func tasksDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.repo.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t.Status = models.TaskCompleted
			if _, err := a.repo.UpsertTask(cmd.Context(), t); err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "task_saved", Entity: "task", EntityID: t.ID})
			fmt.Fprintf(cmd.OutOrStdout(), "completed task %s\n", t.ID)
			return nil
		},
	}
}

func tasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "task_deleted", Entity: "task", EntityID: args[0]})
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %s\n", args[0])
			return nil
		},
	}
}
