package scanning

import (
	"context"

	"github.com/smartspend/smartspend/internal/category"
)

// ItemData is one product line extracted from a receipt. The JSON tags match
// the schema the extraction prompt asks the model for.
type ItemData struct {
	Name     string            `json:"nome"`
	Value    float64           `json:"valor"`
	Quantity int               `json:"quantidade"`
	Category category.Category `json:"categoria"`
}

// ReceiptData contains the structured information extracted from a receipt.
// After a successful scan the date is in canonical YYYY-MM-DD form and every
// category field has been assigned by the categorizer, regardless of what the
// model proposed.
type ReceiptData struct {
	Merchant string            `json:"mercado"`
	Date     string            `json:"data"`
	Total    float64           `json:"total"`
	Category category.Category `json:"categoria"`
	Items    []ItemData        `json:"itens"`
}

// Scanner defines the interface for receipt scanning operations. The context
// bounds the whole operation; implementations set no deadline of their own.
type Scanner interface {
	// ScanReceipt analyzes a receipt image/PDF and extracts structured data
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Generator is a single authenticated channel to a vision model backend. The
// model identifier is chosen per call so the dispatcher can sweep its
// fallback list over one credential before moving on to the next.
type Generator interface {
	Generate(ctx context.Context, model string, prompt string, pngData []byte) (string, error)
	Close() error
}
