package receipt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/smartspend/smartspend/internal/category"
	"github.com/smartspend/smartspend/internal/scanning"
)

// HistoryEntry is one purchase in the legacy feed. The JSON keys are the
// legacy document's, kept for compatibility with existing files.
type HistoryEntry struct {
	ID       string            `json:"id"`
	Merchant string            `json:"mercado"`
	Date     string            `json:"data"`
	Total    float64           `json:"total"`
	Category category.Category `json:"categoria"`
	Items    []Item            `json:"itens,omitempty"`
}

// HistoryDocument is the legacy cumulative dashboard file: running totals
// plus a feed array. Unlike the database-backed summary it is a stored
// artifact, so loading must tolerate stale or malformed shapes.
type HistoryDocument struct {
	TotalSpent       float64         `json:"totalGasto"`
	EstimatedSavings float64         `json:"economiaEstimada"`
	PurchaseCount    int             `json:"comprasMes"`
	Chart            []CategoryTotal `json:"grafico"`
	Feed             []HistoryEntry  `json:"feed"`
}

// defaultHistoryDocument returns the fixed fallback structure: zero totals,
// every category present with a zero value, empty feed.
func defaultHistoryDocument() *HistoryDocument {
	chart := make([]CategoryTotal, 0, len(category.All))
	for _, c := range category.All {
		chart = append(chart, CategoryTotal{Name: c, Value: 0, Color: category.Color(c)})
	}
	return &HistoryDocument{
		Chart: chart,
		Feed:  []HistoryEntry{},
	}
}

// HistoryFile maintains the legacy document on disk.
type HistoryFile struct {
	path string
	mu   sync.Mutex
}

// NewHistoryFile creates a handle on the legacy document path. The file is
// not created until the first append.
func NewHistoryFile(path string) *HistoryFile {
	return &HistoryFile{path: path}
}

// Load reads the document from disk. A missing file, malformed JSON, or a
// document of the wrong shape all fall back to the default structure; a
// stale legacy file must never crash the caller.
func (h *HistoryFile) Load() *HistoryDocument {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

func (h *HistoryFile) load() *HistoryDocument {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return defaultHistoryDocument()
	}

	var doc HistoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return defaultHistoryDocument()
	}

	if doc.Feed == nil {
		doc.Feed = []HistoryEntry{}
	}

	// Old documents mix date formats and free-form category labels;
	// normalize both on the way in.
	for i := range doc.Feed {
		doc.Feed[i].Date = scanning.NormalizeDate(doc.Feed[i].Date)
		doc.Feed[i].Category = category.Normalize(string(doc.Feed[i].Category))
	}

	return &doc
}

// Append folds one receipt into the document and rewrites it. Totals and the
// chart are re-derived from the full feed so a previously malformed document
// heals instead of compounding.
func (h *HistoryFile) Append(r *Receipt) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc := h.load()
	doc.Feed = append(doc.Feed, HistoryEntry{
		ID:       r.ID,
		Merchant: r.Merchant,
		Date:     r.Date,
		Total:    r.Total,
		Category: r.Category,
		Items:    r.Items,
	})

	doc.PurchaseCount = len(doc.Feed)

	var total float64
	byCategory := make(map[category.Category]float64)
	for _, entry := range doc.Feed {
		total += entry.Total
		if len(entry.Items) > 0 {
			for _, item := range entry.Items {
				byCategory[item.Category] += item.Total()
			}
		} else {
			// Entries written before items were recorded only carry the
			// receipt-level label.
			byCategory[entry.Category] += entry.Total
		}
	}

	doc.TotalSpent = round2(total)
	doc.EstimatedSavings = round2(total * savingsRate)

	chart := make([]CategoryTotal, 0, len(category.All))
	for _, c := range category.All {
		chart = append(chart, CategoryTotal{
			Name:  c,
			Value: round2(byCategory[c]),
			Color: category.Color(c),
		})
	}
	doc.Chart = chart

	return h.write(doc)
}

func (h *HistoryFile) write(doc *HistoryDocument) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.path, data, 0644)
}
