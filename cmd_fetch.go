package main

import (
	"fmt"
	"time"

	"github.com/Tkdue/magicsearch/internal/transfer"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

var (
	fetchOpts  searchFlags
	fetchDir   string
	fetchDrive bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [query...]",
	Short: "Search, then download every result",
	Long: `Runs a search and transfers the results into a local directory
(--dir, below the configured download dir) or a new dated subfolder of the
configured Google Drive folder (--drive).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		req := fetchOpts.request(args)
		res, err := a.search.Search(cmd.Context(), req)
		if err != nil {
			return err
		}
		if len(res.Assets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("nothing found"))
			return nil
		}

		folder := ""
		if fetchDrive {
			folder = res.Query
		}
		sink, err := a.sink(folder, fetchDir, time.Now())
		if err != nil {
			return err
		}

		progress := mpb.New(mpb.WithOutput(cmd.ErrOrStderr()), mpb.WithWidth(40))
		bar := progress.AddBar(int64(len(res.Assets)),
			mpb.PrependDecorators(
				decor.Name("transfer ", decor.WC{W: 9}),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		a.pipeline.Observe(func(uuid.UUID, transfer.Outcome) { bar.Increment() })

		report, err := a.pipeline.TransferAll(cmd.Context(), res.Assets, sink)
		if err != nil {
			bar.Abort(false)
			progress.Wait()
			return err
		}
		progress.Wait()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("run %s: %d stored, %d failed", report.RunId, report.Succeeded, report.Failed)))
		for _, o := range report.Outcomes {
			if o.Succeeded {
				fmt.Fprintln(out, rowStyle.Render(fmt.Sprintf("  ok   %s", o.Location)))
			} else {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  fail %s: %s", o.FileName, o.ErrorDetail)))
			}
		}
		return nil
	},
}

func init() {
	fetchOpts.register(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "", "subdirectory of the download dir")
	fetchCmd.Flags().BoolVar(&fetchDrive, "drive", false, "upload to the configured Drive folder")
}
