package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizcycle/internal/question"
)

var banksCmd = &cobra.Command{
	Use:   "banks <file>",
	Short: "Validate a question bank and list its contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := question.LoadFile(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Categories:")
		for _, c := range bank.Categories() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %-24s %4d questions\n", c.QuizType, c.Category, c.Count)
		}
		exams := bank.Exams()
		if len(exams) == 0 {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Exams:")
		for _, e := range exams {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %-24s %4d questions\n", e.ID, e.QuizType, len(e.QuestionIDs))
		}
		return nil
	},
}
