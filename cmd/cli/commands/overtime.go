package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// OvertimeCmd creates the overtime command
func OvertimeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overtime <user_id>",
		Short: "Show a user's overtime hours for a fiscal year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var year *int
			if cmd.Flags().Changed("year") {
				y, _ := cmd.Flags().GetInt("year")
				year = &y
			}

			entry, err := app.Service.OvertimeHours(app.Ctx, app.Actor(), args[0], year, optionalFlag(cmd, "classification"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				return writeJSON(out, entry)
			}
			bucket := "all classifications"
			if entry.ClassificationID != nil {
				bucket = *entry.ClassificationID
			}
			fmt.Fprintf(out, "\nOvertime for %s, FY%d (%s)\n\n", entry.UserID, entry.FiscalYear, bucket)
			fmt.Fprintf(out, "  Worked:   %6.1f h\n", entry.HoursWorked)
			fmt.Fprintf(out, "  Declined: %6.1f h\n\n", entry.HoursDeclined)
			return nil
		},
	}

	cmd.Flags().Int("year", 0, "Fiscal year (defaults to the current one)")
	cmd.Flags().String("classification", "", "Classification id (defaults to the organisation-wide bucket)")

	return cmd
}
