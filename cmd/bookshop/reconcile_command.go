package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"bookshop/internal/config"
	"bookshop/internal/reconcile"
)

type reportOutputs struct {
	out  string
	xlsx string
	json bool
}

func (o *reportOutputs) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.out, "out", "", "Write the report as JSON for a later commit")
	cmd.Flags().StringVar(&o.xlsx, "xlsx", "", "Write the report as an XLSX workbook for review")
	cmd.Flags().BoolVar(&o.json, "json", false, "Print the report as JSON instead of a table")
}

func (o *reportOutputs) write(rep *reconcile.Report) error {
	if o.out != "" {
		if err := writeJSONFile(o.out, rep); err != nil {
			return err
		}
	}
	if o.xlsx != "" {
		f, err := os.Create(o.xlsx)
		if err != nil {
			return err
		}
		if err := reconcile.WriteXLSX(f, rep); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", o.xlsx, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match a batch of assets or ISBNs against the catalog without writing",
	}
	cmd.AddCommand(newReconcileAssetsCommand(ctx))
	cmd.AddCommand(newReconcileISBNCommand(ctx))
	return cmd
}

func newReconcileAssetsCommand(ctx *commandContext) *cobra.Command {
	var (
		prefix     string
		maxResults int
		outputs    reportOutputs
	)

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List the photo folder and match every file name to a catalog code",
		Long: `List the configured Drive folder once and match each file name
(CODE[_suffix].ext) to a book or item. Nothing is written to the catalog;
save the report with --out and apply it with "bookshop commit".

Examples:
  bookshop reconcile assets
  bookshop reconcile assets --prefix A6 --out assets.json --xlsx assets.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sess, err := ctx.openSession(runCtx, func(cfg *config.Config) {
				if cmd.Flags().Changed("prefix") {
					cfg.AssetPrefix = prefix
				}
				if maxResults > 0 {
					cfg.AssetMaxResults = maxResults
				}
			})
			if err != nil {
				return err
			}
			defer sess.Close()

			rep, err := sess.service.ReconcileAssets(runCtx)
			if err != nil {
				return err
			}
			if err := outputs.write(rep); err != nil {
				return err
			}
			if outputs.json {
				return writeJSON(cmd, rep)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderResults(rep.Results()))
			printSummary(out, rep)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list files whose name starts with this prefix")
	cmd.Flags().IntVar(&maxResults, "max", 0, "Maximum number of files to list (default from config)")
	outputs.register(cmd)
	return cmd
}

func newReconcileISBNCommand(ctx *commandContext) *cobra.Command {
	var (
		file    string
		outputs reportOutputs
	)

	cmd := &cobra.Command{
		Use:   "isbn [ISBN[=CODE]...]",
		Short: "Look up ISBNs one at a time and match them to target catalog codes",
		Long: `Look up each ISBN in order, one request at a time, printing each result
as soon as it arrives. An argument may carry a target code as ISBN=CODE.
With --file, read a text, CSV/TSV or XLSX file (ISBN in the first column,
optional target code in the second).

Interrupting the command stops further lookups; the ISBNs not yet looked up
are reported as CANCELLED.

Examples:
  bookshop reconcile isbn 9780441013593=A621 9780141439518=A622
  bookshop reconcile isbn --file isbns.xlsx --out isbn.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := collectQueries(file, args)
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("no ISBNs given; pass them as arguments or with --file")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sess, err := ctx.openSession(runCtx)
			if err != nil {
				return err
			}
			defer sess.Close()

			progress := cmd.ErrOrStderr()
			n := 0
			rep, err := sess.service.ReconcileQueries(runCtx, queries, func(res reconcile.MatchResult) {
				n++
				printProgress(progress, n, len(queries), res)
			})
			if err != nil {
				return err
			}
			if err := outputs.write(rep); err != nil {
				return err
			}
			if outputs.json {
				return writeJSON(cmd, rep)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderResults(rep.Results()))
			printSummary(out, rep)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read ISBNs from a text, CSV, TSV or XLSX file")
	outputs.register(cmd)
	return cmd
}

// collectQueries merges --file entries with ISBN[=CODE] arguments, file first.
func collectQueries(file string, args []string) ([]reconcile.Query, error) {
	var queries []reconcile.Query
	if file != "" {
		qs, err := reconcile.ReadQueriesFile(file)
		if err != nil {
			return nil, err
		}
		queries = append(queries, qs...)
	}

	seen := make(map[string]bool, len(queries))
	for _, q := range queries {
		seen[q.ISBN] = true
	}
	for _, arg := range args {
		isbn, target, _ := strings.Cut(arg, "=")
		for _, q := range reconcile.ParseQueries(isbn) {
			if seen[q.ISBN] {
				continue
			}
			seen[q.ISBN] = true
			q.Target = strings.TrimSpace(target)
			queries = append(queries, q)
		}
	}
	return queries, nil
}
