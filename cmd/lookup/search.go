package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lookup-erp/lookup/pkg/backend"
	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/search"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit   int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "search <domain> <query...>",
		Short: "Run one search and print the results",
		Long:  "Run one search against invoices, clients or products (facturas, clientes, productos).",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := models.ParseDomain(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")

			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			params := url.Values{}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			out := cmd.OutOrStdout()

			switch domain {
			case models.DomainInvoices:
				return runSearch(ctx, a, domain, backend.InvoiceExecutor(a.client), query, params, noCache, out, printInvoices)
			case models.DomainClients:
				return runSearch(ctx, a, domain, backend.ClientExecutor(a.client), query, params, noCache, out, printClients)
			default:
				return runSearch(ctx, a, domain, backend.ProductExecutor(a.client), query, params, noCache, out, printProducts)
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	return cmd
}

func runSearch[T any](ctx context.Context, a *app, domain models.Domain, exec search.Executor[T], query string, params url.Values, noCache bool, out io.Writer, render func(io.Writer, []T) error) error {
	searchOpts := search.Options[T]{
		Scope:  string(domain),
		Params: params,
		Policy: a.cfg.Search.Policy(),
		Logger: &a.log,
	}
	if !noCache {
		searchOpts.Cache = resultCache[T](a)
	}

	st, err := search.Once(ctx, exec, searchOpts, query)
	if err != nil {
		return err
	}

	switch {
	case st.Phase == search.PhaseIdle:
		return fmt.Errorf("query %q is too short: need at least %d characters", st.Query, a.cfg.Search.MinLength)
	case st.SearchError != nil:
		return st.SearchError
	case len(st.Results) == 0:
		fmt.Fprintln(out, "No results.")
		return nil
	}

	a.log.Debug().Bool("cached", st.FromCache).Int("results", len(st.Results)).Msg("search settled")
	return render(out, st.Results)
}

func printInvoices(out io.Writer, items []models.Invoice) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tCLIENT\tTOTAL\tSTATUS\tISSUED")
	for _, inv := range items {
		issued := "-"
		if !inv.IssuedAt.IsZero() {
			issued = inv.IssuedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n", inv.Number, inv.ClientName, inv.Total, inv.Status, issued)
	}
	return w.Flush()
}

func printClients(out io.Writer, items []models.Client) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTAX ID\tEMAIL\tPHONE")
	for _, c := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.TaxID, c.Email, c.Phone)
	}
	return w.Flush()
}

func printProducts(out io.Writer, items []models.Product) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSKU\tPRICE\tSTOCK")
	for _, p := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.SKU, p.Price, p.Stock)
	}
	return w.Flush()
}
