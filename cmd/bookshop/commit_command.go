package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"bookshop/internal/reconcile"
)

func newCommitCommand(ctx *commandContext) *cobra.Command {
	var (
		reportPath string
		codes      []string
		all        bool
		dryRun     bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Write approved matches from a saved report to the catalog",
		Long: `Apply MATCHED results from a report saved with --out. Select results by
catalog code with --codes, or every match with --all. Writes happen in report
order and stop at the first failure; earlier writes stay applied and later
ones are reported as SKIPPED. Repeating a commit is harmless.

Examples:
  bookshop commit --report assets.json --codes A621,A623
  bookshop commit --report isbn.json --all --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(codes) == 0 {
				return errors.New("select results with --codes or --all")
			}

			selection, err := normalizeCodes(codes)
			if err != nil {
				return err
			}

			var rep reconcile.Report
			if err := readJSONFile(reportPath, &rep); err != nil {
				return err
			}
			selected := reconcile.Select(rep.Results(), selection, all)
			if len(selected) == 0 {
				return fmt.Errorf("no MATCHED results in %s for the selection", reportPath)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, renderResults(selected))
				fmt.Fprintf(out, "%d results would be written\n", len(selected))
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sess, err := ctx.openSession(runCtx)
			if err != nil {
				return err
			}
			defer sess.Close()

			result, commitErr := sess.service.Commit(runCtx, selected)
			if jsonOut {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, renderCommit(result))
				fmt.Fprintf(out, "applied %d, failed %d, skipped %d\n", result.Applied, result.Failed, result.Skipped)
			}
			return commitErr
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "Report JSON written by 'reconcile --out'")
	cmd.Flags().StringSliceVar(&codes, "codes", nil, "Catalog codes to commit (comma separated)")
	cmd.Flags().BoolVar(&all, "all", false, "Commit every MATCHED result")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without writing")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the commit report as JSON")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

// normalizeCodes trims the --codes values. Codes match exactly, so anything
// that is not a catalog code is rejected rather than guessed at.
func normalizeCodes(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if code, ok := reconcile.ParseCode(c); !ok || code != c {
			return nil, fmt.Errorf("invalid catalog code %q", c)
		}
		out = append(out, c)
	}
	return out, nil
}
