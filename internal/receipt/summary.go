package receipt

import (
	"math"
	"sort"

	"github.com/smartspend/smartspend/internal/category"
)

// savingsRate is the fixed heuristic used for the estimated-savings figure.
// It is not computed from real discount data.
const savingsRate = 0.10

// CategoryTotal is one slice of the dashboard category chart.
type CategoryTotal struct {
	Name  category.Category `json:"name"`
	Value float64           `json:"value"`
	Color string            `json:"color"`
}

// Purchase is the feed projection of a stored receipt.
type Purchase struct {
	ID       string            `json:"id"`
	Merchant string            `json:"merchant"`
	Date     string            `json:"date"`
	Total    float64           `json:"total"`
	Category category.Category `json:"category"`
	Items    []Item            `json:"items"`
}

// Summary is the dashboard payload derived from one owner's receipts. It is
// a pure view: always recomputable from the receipts, never persisted as a
// source of truth.
type Summary struct {
	TotalSpent       float64         `json:"total_spent"`
	EstimatedSavings float64         `json:"estimated_savings"`
	PurchaseCount    int             `json:"purchase_count"`
	Categories       []CategoryTotal `json:"categories"`
	Feed             []Purchase      `json:"feed"`
	MostRecent       *Purchase       `json:"most_recent,omitempty"`

	// Unrounded accumulators. Fold continues from these instead of the
	// emitted two-decimal values, so sub-cent item values do not drift
	// away from a full recomputation.
	rawTotal      float64
	rawByCategory map[category.Category]float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func projection(r *Receipt) Purchase {
	return Purchase{
		ID:       r.ID,
		Merchant: r.Merchant,
		Date:     r.Date,
		Total:    r.Total,
		Category: r.Category,
		Items:    r.Items,
	}
}

// breakdown emits the accumulated per-category values in the fixed category
// order, omitting zero-valued categories.
func breakdown(byCategory map[category.Category]float64) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(byCategory))
	for _, c := range category.All {
		if v := byCategory[c]; v > 0 {
			out = append(out, CategoryTotal{
				Name:  c,
				Value: round2(v),
				Color: category.Color(c),
			})
		}
	}
	return out
}

// Summarize folds a set of receipts into the dashboard summary. TotalSpent
// trusts the stored receipt totals; the category chart sums item-level values
// by item-level category, so the two need not agree. The feed is sorted by
// date descending, which is chronological because dates share the canonical
// format. Summarize is pure: the same input always yields the same output.
func Summarize(receipts []*Receipt) *Summary {
	s := &Summary{
		Categories:    []CategoryTotal{},
		Feed:          []Purchase{},
		rawByCategory: map[category.Category]float64{},
	}
	if len(receipts) == 0 {
		return s
	}

	byCategory := make(map[category.Category]float64)
	var total float64
	feed := make([]Purchase, 0, len(receipts))

	for _, r := range receipts {
		total += r.Total
		for _, item := range r.Items {
			byCategory[item.Category] += item.Total()
		}
		feed = append(feed, projection(r))
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Date > feed[j].Date
	})

	s.TotalSpent = round2(total)
	s.EstimatedSavings = round2(total * savingsRate)
	s.PurchaseCount = len(receipts)
	s.Categories = breakdown(byCategory)
	s.Feed = feed
	s.rawTotal = total
	s.rawByCategory = byCategory

	mostRecent := feed[0]
	s.MostRecent = &mostRecent

	return s
}

// Fold adds one receipt to a previously computed summary without touching the
// stored receipt set. The result equals recomputing the summary over the
// extended set, so callers can use it as a cheap incremental update.
func Fold(s *Summary, r *Receipt) *Summary {
	total := s.rawTotal
	byCategory := make(map[category.Category]float64, len(s.rawByCategory)+len(r.Items))
	if s.rawByCategory != nil {
		for c, v := range s.rawByCategory {
			byCategory[c] = v
		}
	} else {
		// A deserialized summary only carries the rounded values; continue
		// from those.
		total = s.TotalSpent
		for _, ct := range s.Categories {
			byCategory[ct.Name] = ct.Value
		}
	}
	for _, item := range r.Items {
		byCategory[item.Category] += item.Total()
	}

	// Insert before the first entry with a strictly older date; this matches
	// the stable descending sort of a full recomputation.
	p := projection(r)
	feed := make([]Purchase, 0, len(s.Feed)+1)
	inserted := false
	for _, existing := range s.Feed {
		if !inserted && existing.Date < p.Date {
			feed = append(feed, p)
			inserted = true
		}
		feed = append(feed, existing)
	}
	if !inserted {
		feed = append(feed, p)
	}

	total += r.Total
	out := &Summary{
		TotalSpent:       round2(total),
		EstimatedSavings: round2(total * savingsRate),
		PurchaseCount:    s.PurchaseCount + 1,
		Categories:       breakdown(byCategory),
		Feed:             feed,
		rawTotal:         total,
		rawByCategory:    byCategory,
	}

	mostRecent := feed[0]
	out.MostRecent = &mostRecent

	return out
}
