package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/Tkdue/magicsearch/internal/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	rowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	altRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	premium     = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// searchFlags are shared by search and fetch.
type searchFlags struct {
	creative  bool
	count     int
	context   string
	size      string
	imageType string
	color     string
	aspect    string
	rights    string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.creative, "creative", false, "expand the query with AI before searching")
	cmd.Flags().IntVarP(&f.count, "count", "n", defaultCount, "number of results")
	cmd.Flags().StringVar(&f.context, "context", "", "extra context for creative expansion")
	cmd.Flags().StringVar(&f.size, "size", "any", "any|small|medium|large|xlarge")
	cmd.Flags().StringVar(&f.imageType, "type", "all", "all|photo|illustration|vector|icon")
	cmd.Flags().StringVar(&f.color, "color", "any", "any|red|blue|green|yellow|black|white|grayscale")
	cmd.Flags().StringVar(&f.aspect, "aspect", "any", "any|square|wide|tall")
	cmd.Flags().StringVar(&f.rights, "rights", "any", "any|free|commercial|creative_commons")
}

func (f *searchFlags) request(args []string) search.Request {
	t := asset.Specific
	if f.creative {
		t = asset.Creative
	}
	return search.Request{
		Query:             strings.Join(args, " "),
		Type:              t,
		Filters:           asset.ParseFilters(f.size, f.imageType, f.color, f.aspect, f.rights),
		AdditionalContext: f.context,
		DesiredCount:      f.count,
	}
}

var (
	searchOpts searchFlags
	searchJson bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search every provider and print the ranked results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.search.Search(cmd.Context(), searchOpts.request(args))
		if err != nil {
			return err
		}
		if searchJson {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printResults(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	searchOpts.register(searchCmd)
	searchCmd.Flags().BoolVar(&searchJson, "json", false, "print JSON instead of a table")
}

func printResults(w io.Writer, res *search.Result) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d results for %q", len(res.Assets), res.Query)))
	if len(res.Phrases) > 1 {
		fmt.Fprintln(w, dimStyle.Render("phrases: "+strings.Join(res.Phrases, " | ")))
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d candidates, %d duplicates dropped", res.Candidates, res.Duplicates)))
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-3s %-9s %-11s %-40s %s", "#", "PROVIDER", "SIZE", "TITLE", "URL")))
	for i, a := range res.Assets {
		style := rowStyle
		if i%2 == 1 {
			style = altRowStyle
		}
		if a.IsPremium {
			style = premium
		}
		line := fmt.Sprintf("%-3d %-9s %-11s %-40s %s", i+1, a.Provider, fmt.Sprintf("%dx%d", a.Width, a.Height), clip(a.Title, 40), a.PrimaryUrl)
		fmt.Fprintln(w, style.Render(line))
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
