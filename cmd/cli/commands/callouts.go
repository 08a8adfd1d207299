package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/core/callout"
	"github.com/jakechorley/timeshift/pkg/db"
)

// optionalFlag returns a pointer to a string flag's value when it was given
func optionalFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// OpenCalloutCmd creates the openCallout command
func OpenCalloutCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openCallout <shift_id>",
		Short: "Open a callout event for a scheduled shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := callout.OpenRequest{
				ScheduledShiftID: args[0],
				ClassificationID: optionalFlag(cmd, "classification"),
				OTReasonID:       optionalFlag(cmd, "reason"),
				ReasonText:       optionalFlag(cmd, "note"),
			}
			app.Logger.Debug("openCallout command", zap.String("shift_id", req.ScheduledShiftID))

			event, err := app.Service.OpenCallout(app.Ctx, app.Actor(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				return writeJSON(out, event)
			}
			fmt.Fprintf(out, "\n✓ Callout opened!\n\n")
			printEvent(out, event)
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().String("classification", "", "Restrict candidates to a classification id")
	cmd.Flags().String("reason", "", "Overtime reason id")
	cmd.Flags().String("note", "", "Free-text reason")

	return cmd
}

// ListCalloutsCmd creates the listCallouts command
func ListCalloutsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listCallouts",
		Short: "List callout events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			events, err := app.Service.ListEvents(app.Ctx, app.Actor(), db.NewPage(&limit, &offset))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				if events == nil {
					events = []db.CalloutEvent{}
				}
				return writeJSON(out, events)
			}
			printEvents(out, events)
			return nil
		},
	}

	cmd.Flags().Int("limit", db.DefaultPageLimit, "Maximum events to show")
	cmd.Flags().Int("offset", 0, "Number of events to skip")

	return cmd
}

// ShowCalloutCmd creates the showCallout command
func ShowCalloutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "showCallout <event_id>",
		Short: "Show a callout event and its attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := app.Service.GetEvent(app.Ctx, app.Actor(), args[0])
			if err != nil {
				return err
			}
			attempts, err := app.Service.ListAttempts(app.Ctx, app.Actor(), event.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				if attempts == nil {
					attempts = []db.CalloutAttempt{}
				}
				return writeJSON(out, map[string]any{"event": event, "attempts": attempts})
			}
			fmt.Fprintln(out)
			printEvent(out, event)
			fmt.Fprintf(out, "\nAttempts:\n")
			printAttempts(out, attempts)
			fmt.Fprintln(out)
			return nil
		},
	}
}

// CancelCalloutCmd creates the cancelCallout command
func CancelCalloutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancelCallout <event_id>",
		Short: "Cancel an open callout event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := app.Service.CancelEvent(app.Ctx, app.Actor(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				return writeJSON(out, event)
			}
			fmt.Fprintf(out, "\n✓ Callout %s cancelled\n\n", event.ID)
			return nil
		},
	}
}
