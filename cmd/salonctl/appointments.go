package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/calendar"
	"github.com/BruksfildServices01/salon-scheduler/internal/dto"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
	usecase "github.com/BruksfildServices01/salon-scheduler/internal/usecase/appointment"
)

func appointmentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "Work with the appointment calendar",
	}
	cmd.AddCommand(
		appointmentsListCmd(a),
		appointmentsAddCmd(a),
		appointmentsMoveCmd(a),
		appointmentsResizeCmd(a),
		appointmentsStatusCmd(a, "cancel"),
		appointmentsStatusCmd(a, "complete"),
	)
	return cmd
}

// parseMonthFlag reads YYYY-MM.
func parseMonthFlag(s string) (int, int, error) {
	year, month, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("month must be YYYY-MM, got %q", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be YYYY-MM, got %q", s)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be YYYY-MM, got %q", s)
	}
	return y, m, nil
}

func appointmentsListCmd(a *app) *cobra.Command {
	var month, day string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a month (default: current) or a single day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tz := a.timezone()
			ctx := cmd.Context()

			var events []dto.CalendarEventDTO
			var err error

			switch {
			case day != "":
				date, perr := time.ParseInLocation("2006-01-02", day, timezone.Location(tz))
				if perr != nil {
					return fmt.Errorf("day must be YYYY-MM-DD, got %q", day)
				}
				events, err = usecase.NewListAppointmentsByDate(a.repo, tz).Execute(ctx, date)

			default:
				now := a.clock().In(timezone.Location(tz))
				y, m := now.Year(), int(now.Month())
				if month != "" {
					if y, m, err = parseMonthFlag(month); err != nil {
						return err
					}
				}
				events, err = usecase.NewListAppointmentsByMonth(a.repo, tz).Execute(ctx, y, m)
			}
			if err != nil {
				return err
			}

			loc := timezone.Location(tz)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTART\tMIN\tCLIENT\tSERVICE\tSTATUS")
			for _, ev := range events {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					ev.ID,
					ev.StartAt.In(loc).Format("2006-01-02 15:04"),
					ev.DurationMin,
					ev.ClientName,
					ev.ServiceName,
					ev.Status,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM")
	cmd.Flags().StringVar(&day, "day", "", "Day as YYYY-MM-DD")
	return cmd
}

func appointmentsAddCmd(a *app) *cobra.Command {
	var ap models.Appointment
	var start string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Book an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := a.parseStart(start)
			if err != nil {
				return err
			}
			ap.StartAt = at

			saved, err := a.repo.UpsertAppointment(cmd.Context(), ap)
			if err != nil {
				return err
			}
			a.audit.Dispatch(audit.Event{Action: "appointment_saved", Entity: "appointment", EntityID: saved.ID})
			fmt.Fprintf(cmd.OutOrStdout(), "booked %s at %s\n", saved.ID, saved.StartAt.Format(time.RFC3339))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&ap.ClientID, "client", "", "Client id")
	f.StringVar(&ap.ServiceName, "service", "", "Service name")
	f.StringVar(&start, "start", "", "Start, RFC 3339 or YYYY-MM-DD HH:MM in the salon timezone")
	f.IntVar(&ap.DurationMin, "duration", 60, "Duration in minutes")
	f.StringVar(&ap.Notes, "notes", "", "Notes")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

// parseStart accepts RFC 3339 or a wall-clock time in the salon timezone.
func (a *app) parseStart(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, timezone.Location(a.timezone()))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t.UTC(), nil
}

// board loads the calendar with failures reported on stderr.
func (a *app) board(cmd *cobra.Command) (*calendar.Board, error) {
	timeout := calendar.DefaultConfirmTimeout
	if a.cfg != nil {
		timeout = a.cfg.CalendarConfirmTimeout
	}

	b := calendar.NewBoard(a.repo,
		calendar.WithConfirmTimeout(timeout),
		calendar.WithNotifier(func(msg string) {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
		}),
		calendar.WithLogger(a.log),
	)
	if err := b.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return b, nil
}

func appointmentsMoveCmd(a *app) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an appointment, keeping its duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := a.parseStart(start)
			if err != nil {
				return err
			}
			b, err := a.board(cmd)
			if err != nil {
				return err
			}
			if err := b.Move(cmd.Context(), args[0], at); err != nil {
				return err
			}
			ap, _ := b.Appointment(args[0])
			a.audit.Dispatch(audit.Event{Action: "appointment_rescheduled", Entity: "appointment", EntityID: args[0]})
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s\n", ap.ID, ap.StartAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "New start")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func appointmentsResizeCmd(a *app) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "resize <id>",
		Short: "Change an appointment's start and end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.board(cmd)
			if err != nil {
				return err
			}

			current, ok := b.Appointment(args[0])
			if !ok {
				return fmt.Errorf("appointment %s not found", args[0])
			}
			from := current.StartAt
			if start != "" {
				if from, err = a.parseStart(start); err != nil {
					return err
				}
			}
			to, err := a.parseStart(end)
			if err != nil {
				return err
			}

			if err := b.Resize(cmd.Context(), args[0], from, to); err != nil {
				return err
			}
			ap, _ := b.Appointment(args[0])
			a.audit.Dispatch(audit.Event{Action: "appointment_rescheduled", Entity: "appointment", EntityID: args[0]})
			fmt.Fprintf(cmd.OutOrStdout(), "resized %s to %d minutes\n", ap.ID, ap.DurationMin)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "New start (default: unchanged)")
	cmd.Flags().StringVar(&end, "end", "", "New end")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func appointmentsStatusCmd(a *app, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: strings.ToUpper(action[:1]) + action[1:] + " a scheduled appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ap *models.Appointment
			var err error
			if action == "cancel" {
				ap, err = usecase.NewCancelAppointment(a.repo, a.audit).Execute(cmd.Context(), args[0])
			} else {
				ap, err = usecase.NewCompleteAppointment(a.repo, a.audit).Execute(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", ap.ID, ap.Status)
			return nil
		},
	}
}
