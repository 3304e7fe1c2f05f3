package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizcycle/internal/app"
	"github.com/abhisek/quizcycle/internal/screens/quiz"
	"github.com/abhisek/quizcycle/internal/session"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Reopen the most recently used drill or exam",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		sess, err := rt.launcher.Resume(cmd.Context(), rt.learnerID)
		if errors.Is(err, session.ErrNothingToResume) {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to resume")
			return nil
		}
		if err != nil {
			return err
		}
		return app.Run(cmd.Context(), rt.appOptions(quiz.New(sess, rt.launcher.Evaluator())))
	},
}
