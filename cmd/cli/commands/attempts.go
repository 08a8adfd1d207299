package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/core/callout"
	"github.com/jakechorley/timeshift/pkg/db"
)

// CalloutListCmd creates the calloutList command
func CalloutListCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "calloutList <event_id>",
		Short: "Show the ranked callout list for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranked, err := app.Service.RankedList(app.Ctx, app.Actor(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				if ranked == nil {
					ranked = []callout.RankedCandidate{}
				}
				return writeJSON(out, ranked)
			}
			fmt.Fprintf(out, "\nCallout list for %s\n\n", args[0])
			printRankedList(out, ranked)
			fmt.Fprintln(out)
			return nil
		},
	}
}

// NextCandidateCmd creates the nextCandidate command
func NextCandidateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "nextCandidate <event_id>",
		Short: "Show the next available candidate who has not been contacted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := app.Service.NextCandidate(app.Ctx, app.Actor(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				return writeJSON(out, map[string]any{"candidate": next})
			}
			if next == nil {
				fmt.Fprintln(out, "No remaining candidates to contact.")
				return nil
			}
			fmt.Fprintf(out, "Next: #%d %s (%s) with %.1f OT hours\n", next.Position, candidateName(next), next.UserID, next.OTHours)
			return nil
		},
	}
}

// RecordAttemptCmd creates the recordAttempt command
func RecordAttemptCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordAttempt <event_id> <user_id> <accepted|declined|no_answer>",
		Short: "Record the outcome of contacting a candidate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := callout.AttemptRequest{
				UserID:   args[1],
				Response: args[2],
				Notes:    optionalFlag(cmd, "notes"),
			}
			app.Logger.Debug("recordAttempt command",
				zap.String("event_id", args[0]),
				zap.String("user_id", req.UserID),
				zap.String("response", req.Response))

			result, err := app.Service.RecordAttempt(app.Ctx, app.Actor(), args[0], req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				return writeJSON(out, result)
			}
			fmt.Fprintf(out, "\n✓ Recorded %s for %s at position %d\n", *result.Attempt.Response, result.Attempt.UserID, result.Attempt.ListPosition)
			if result.Warning != nil {
				fmt.Fprintf(out, "%s⚠️  Candidate was unavailable: %s%s\n", colorYellow, *result.Warning, colorReset)
			}
			if result.Event.Status == db.StatusFilled {
				fmt.Fprintf(out, "%sCallout filled.%s\n", colorGreen, colorReset)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Notes about the contact")

	return cmd
}

// ListAttemptsCmd creates the listAttempts command
func ListAttemptsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listAttempts <event_id>",
		Short: "List recorded attempts for an event in contact order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attempts, err := app.Service.ListAttempts(app.Ctx, app.Actor(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				if attempts == nil {
					attempts = []db.CalloutAttempt{}
				}
				return writeJSON(out, attempts)
			}
			printAttempts(out, attempts)
			return nil
		},
	}
}

// AttemptNotesCmd creates the attemptNotes command
func AttemptNotesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attemptNotes <attempt_id> [notes]",
		Short: "Replace or clear the notes on a recorded attempt",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearNotes, _ := cmd.Flags().GetBool("clear")

			var notes db.Field[string]
			switch {
			case clearNotes && len(args) == 2:
				return fmt.Errorf("pass either notes or --clear, not both")
			case clearNotes:
				notes = db.SetNull[string]()
			case len(args) == 2:
				notes = db.SetValue(args[1])
			default:
				return fmt.Errorf("notes are required unless --clear is set")
			}

			attempt, err := app.Service.UpdateAttemptNotes(app.Ctx, app.Actor(), args[0], notes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				return writeJSON(out, attempt)
			}
			fmt.Fprintf(out, "✓ Notes updated: %s\n", orDash(attempt.Notes))
			return nil
		},
	}

	cmd.Flags().Bool("clear", false, "Clear the notes")

	return cmd
}
