package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizcycle/internal/app"
	"github.com/abhisek/quizcycle/internal/screens/quiz"
)

var examCmd = &cobra.Command{
	Use:   "exam <exam-id>",
	Short: "Start or reopen a mock exam",
	Long:  "Start a new mock exam, or reopen an earlier attempt with --session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		sess, err := rt.launcher.Exam(cmd.Context(), rt.learnerID, args[0], sessionID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exam session %s\n", sess.SessionID)
		return app.Run(cmd.Context(), rt.appOptions(quiz.New(sess, rt.launcher.Evaluator())))
	},
}

func init() {
	examCmd.Flags().String("session", "", "Reopen an existing exam session by id")
}
