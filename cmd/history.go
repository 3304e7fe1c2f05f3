package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizcycle/internal/screens/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <quiz-type> <category>",
	Short: "List the cycles of a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		entries, err := rt.launcher.History(cmd.Context(), rt.learnerID, args[0], args[1])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no cycles yet")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), history.FormatEntry(e))
		}
		return nil
	},
}
