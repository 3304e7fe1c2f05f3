package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quizcycle/internal/app"
	"github.com/abhisek/quizcycle/internal/screens/quiz"
)

var drillCmd = &cobra.Command{
	Use:   "drill <quiz-type> <category>",
	Short: "Continue the active cycle of a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		sess, err := rt.launcher.Drill(cmd.Context(), rt.learnerID, args[0], args[1])
		if err != nil {
			return err
		}
		return app.Run(cmd.Context(), rt.appOptions(quiz.New(sess, rt.launcher.Evaluator())))
	},
}
