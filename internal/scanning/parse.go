package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CanonicalDateFormat is the single textual date format used everywhere a
// receipt date is stored or compared. Keeping one format makes the
// lexicographic feed sort chronologically correct.
const CanonicalDateFormat = "2006-01-02"

// dateFormats are the input layouts accepted from the model and from legacy
// documents, tried in order.
var dateFormats = []string{
	CanonicalDateFormat,
	"02/01/2006", // DD/MM/YYYY, the legacy display format
	"2006/01/02",
	"02-01-2006",
}

// NormalizeDate converts a date string in any accepted layout to the
// canonical YYYY-MM-DD form. Empty or unparseable dates map to today; the
// extraction is best-effort and a missing date must not fail the scan.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range dateFormats {
			if d, err := time.Parse(layout, s); err == nil {
				return d.Format(CanonicalDateFormat)
			}
		}
	}
	return time.Now().Format(CanonicalDateFormat)
}

// stripCodeFence removes surrounding markdown code-fence markers and isolates
// the JSON object in a model response.
func stripCodeFence(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("invalid JSON object in response")
	}
	return text[startIdx : endIdx+1], nil
}

// parseReceiptJSON parses a model response into the typed receipt schema.
// Documents missing required fields or carrying negative amounts are
// rejected rather than propagated partially.
func parseReceiptJSON(text string) (*ReceiptData, error) {
	jsonText, err := stripCodeFence(text)
	if err != nil {
		return nil, err
	}

	var data ReceiptData
	if err := json.Unmarshal([]byte(jsonText), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	data.Merchant = strings.TrimSpace(data.Merchant)
	if data.Merchant == "" {
		return nil, fmt.Errorf("response is missing the merchant name")
	}
	if data.Total < 0 {
		return nil, fmt.Errorf("negative receipt total: %v", data.Total)
	}

	for i := range data.Items {
		item := &data.Items[i]
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, fmt.Errorf("item %d is missing a name", i)
		}
		if item.Value < 0 {
			return nil, fmt.Errorf("item %q has a negative value: %v", item.Name, item.Value)
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
	}

	data.Date = NormalizeDate(data.Date)

	return &data, nil
}
