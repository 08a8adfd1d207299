package commands

import "github.com/spf13/cobra"

// All returns every subcommand in the order they appear in help
func All(app *AppContext) []*cobra.Command {
	return []*cobra.Command{
		MigrateCmd(app),
		ServeCmd(app),
		OpenCalloutCmd(app),
		ListCalloutsCmd(app),
		ShowCalloutCmd(app),
		CancelCalloutCmd(app),
		CalloutListCmd(app),
		NextCandidateCmd(app),
		RecordAttemptCmd(app),
		ListAttemptsCmd(app),
		AttemptNotesCmd(app),
		OvertimeCmd(app),
		InteractiveCmd(app),
	}
}
