package mcp

import (
	"fmt"
	"strings"

	"github.com/lookup-erp/lookup/pkg/models"
)

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatInvoices formats invoices as a text table.
func formatInvoices(items []models.Invoice) string {
	if len(items) == 0 {
		return "No invoices found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %-30s %12s %-10s %-10s\n",
		"Number", "Client", "Total", "Status", "Issued")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, inv := range items {
		issued := "-"
		if !inv.IssuedAt.IsZero() {
			issued = inv.IssuedAt.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "%-14s %-30s %12.2f %-10s %-10s\n",
			inv.Number, truncate(inv.ClientName, 30), inv.Total, inv.Status, issued)
	}
	return b.String()
}

// formatClients formats clients as a text table.
func formatClients(items []models.Client) string {
	if len(items) == 0 {
		return "No clients found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%6s  %-30s %-14s %-28s %-14s\n",
		"ID", "Name", "Tax ID", "Email", "Phone")
	b.WriteString(strings.Repeat("-", 96) + "\n")
	for _, c := range items {
		fmt.Fprintf(&b, "%6d  %-30s %-14s %-28s %-14s\n",
			c.ID, truncate(c.Name, 30), c.TaxID, truncate(c.Email, 28), c.Phone)
	}
	return b.String()
}

// formatProducts formats products as a text table.
func formatProducts(items []models.Product) string {
	if len(items) == 0 {
		return "No products found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%6s  %-30s %-14s %10s %8s\n",
		"ID", "Name", "SKU", "Price", "Stock")
	b.WriteString(strings.Repeat("-", 72) + "\n")
	for _, p := range items {
		fmt.Fprintf(&b, "%6d  %-30s %-14s %10.2f %8d\n",
			p.ID, truncate(p.Name, 30), p.SKU, p.Price, p.Stock)
	}
	return b.String()
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:  %d\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Entries, stats.Hits, stats.Misses, hitRate)
}
