package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lookup-erp/lookup/pkg/auth"
	"github.com/lookup-erp/lookup/pkg/backend"
	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/search"
	"github.com/lookup-erp/lookup/pkg/tui"
)

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <domain>",
		Short: "Search interactively as you type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := models.ParseDomain(args[0])
			if err != nil {
				return err
			}

			// Log lines would tear the full-screen view.
			opts.logLevel = "disabled"

			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go a.auth.Watch(watchCtx, a.cfg.Auth.WatchInterval)

			title := "lookup: " + string(domain)
			switch domain {
			case models.DomainInvoices:
				return browse(a, domain, title, backend.InvoiceExecutor(a.client), func(i models.Invoice) string {
					return fmt.Sprintf("%-12s %-30s %10.2f  %s", i.Number, i.ClientName, i.Total, i.Status)
				})
			case models.DomainClients:
				return browse(a, domain, title, backend.ClientExecutor(a.client), func(c models.Client) string {
					return fmt.Sprintf("%-30s %-14s %s", c.Name, c.TaxID, c.Email)
				})
			default:
				return browse(a, domain, title, backend.ProductExecutor(a.client), func(p models.Product) string {
					return fmt.Sprintf("%-30s %-12s %10.2f  %d", p.Name, p.SKU, p.Price, p.Stock)
				})
			}
		},
	}
}

func browse[T any](a *app, domain models.Domain, title string, exec search.Executor[T], render func(T) string) error {
	cache := resultCache[T](a)
	return tui.Run(title, render, func(onChange func(search.State[T])) *search.Orchestrator[T] {
		o := search.New(exec, search.Options[T]{
			Scope:    string(domain),
			Policy:   a.cfg.Search.Policy(),
			Cache:    cache,
			Logger:   &a.log,
			OnChange: onChange,
		})
		resetOnLogout(a.auth, cache, o)
		return o
	})
}

// resetOnLogout drops cached and displayed results when the session ends,
// including a logout made by another process.
func resetOnLogout[T any](m *auth.Manager, cache search.Cache[T], o *search.Orchestrator[T]) {
	m.OnLogout(func() {
		cache.Clear()
		o.ClearSearch()
	})
}
