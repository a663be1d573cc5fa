package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run]",
	Short: "List recent transfer runs, or the files of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			entries, err := a.journal.Entries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, e := range entries {
				status, style := "ok  ", rowStyle
				if !e.Succeeded {
					status, style = "fail", dimStyle
				}
				fmt.Fprintln(out, style.Render(fmt.Sprintf("%s %-9s %-40s %s", status, e.Provider, e.Name, e.Location+e.Detail)))
			}
			return nil
		}

		runs, err := a.journal.Runs(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-36s  %-19s  %s", "RUN", "STARTED", "OK/FAILED")))
		for _, r := range runs {
			fmt.Fprintf(out, "%-36s  %-19s  %d/%d\n", r.Id, r.Started.Format("2006-01-02 15:04:05"), r.Succeeded, r.Failed)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs")
}
