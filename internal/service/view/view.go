// Package view computes derived state from an in-memory record set: filtered
// lists, aggregate statistics, price history and the CSV export. Everything
// here is pure and synchronous; the reconciler owns the data, view only reads
// slices handed to it.
package view

import (
	"sort"

	"parceldesk/internal/domain/models"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// Filter returns the records matching the search term and status filter.
// A record matches when the status filter is "all" or equals its status, and
// the term (case-insensitive) occurs in its tracking number, item name,
// recipient or sender. Ordering of the input is preserved.
func Filter(pkgs []models.Package, term, status string) []models.Package {
	out := make([]models.Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if status != "" && status != StatusAll && string(pkg.Status) != status {
			continue
		}
		if !pkg.Matches(term) {
			continue
		}
		out = append(out, pkg)
	}
	return out
}

// Sort orders records the way the list renders them: pending entries first,
// ties broken by createdAt descending. The sort is stable so records sharing
// a timestamp keep their relative order.
func Sort(pkgs []models.Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].Pending() != pkgs[j].Pending() {
			return pkgs[i].Pending()
		}
		return pkgs[i].CreatedAt.After(pkgs[j].CreatedAt)
	})
}

// Stats aggregates the header-card numbers over the full record set.
func Stats(pkgs []models.Package) models.Stats {
	var stats models.Stats
	for _, pkg := range pkgs {
		switch pkg.Status {
		case models.StatusPending:
			stats.PendingCount++
		case models.StatusShipped:
			stats.ShippedCount++
		case models.StatusReceived:
			stats.ReceivedCount++
		}
		stats.TotalValue += pkg.Value()
	}
	return stats
}

// PriceHistory returns the (date, price) observations for one product,
// ascending by creation time. Records are matched by product id; when the id
// is empty the item name is used instead, a compatibility shim for records
// written before product links existed.
func PriceHistory(pkgs []models.Package, productID, productName string) []models.PricePoint {
	points := make([]models.PricePoint, 0)
	for _, pkg := range pkgs {
		if productID != "" {
			if pkg.ProductID != productID {
				continue
			}
		} else if pkg.ItemName != productName {
			continue
		}
		points = append(points, models.PricePoint{Date: pkg.CreatedAt, Price: pkg.CostPrice})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}
