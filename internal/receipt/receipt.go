package receipt

import (
	"time"

	"github.com/smartspend/smartspend/internal/category"
)

// Receipt is one normalized purchase record extracted from a photographed
// receipt. The date is always in canonical YYYY-MM-DD form. Total is sourced
// from the extraction model and is not reconciled against the item totals;
// the extraction is best-effort and divergence is tolerated.
type Receipt struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Merchant    string            `json:"merchant"`
	Date        string            `json:"date"`
	Total       float64           `json:"total"`
	Category    category.Category `json:"category"` // majority item category, display label only
	Items       []Item            `json:"items"`
	Filename    string            `json:"filename,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Item is one product line within a receipt.
type Item struct {
	Name      string            `json:"name"`
	UnitValue float64           `json:"unit_value"`
	Quantity  int               `json:"quantity"`
	Category  category.Category `json:"category"`
}

// Total returns the item's contribution: unit value times quantity.
func (i Item) Total() float64 {
	return i.UnitValue * float64(i.Quantity)
}

// Owner is the account a receipt belongs to. This deployment runs with a
// single default owner, but the model supports several.
type Owner struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
