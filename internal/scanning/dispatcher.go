package scanning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartspend/smartspend/internal/category"
)

// Dispatcher implements Scanner by trying an ordered matrix of
// (credential, model) pairs until one attempt succeeds. Credentials are
// iterated outer, models inner, so each credential's model list is exhausted
// before the next credential spends quota. The lists are fixed at
// construction; the dispatcher holds no mutable state, so concurrent scans
// for different receipts are safe.
type Dispatcher struct {
	generators []Generator
	models     []string
}

// NewDispatcher builds a dispatcher over the given generators (one per
// credential, in fallback order) and model identifiers. Both lists must be
// non-empty.
func NewDispatcher(generators []Generator, models []string) (*Dispatcher, error) {
	if len(generators) == 0 {
		return nil, fmt.Errorf("at least one credential is required")
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}

	d := &Dispatcher{
		generators: make([]Generator, len(generators)),
		models:     make([]string, len(models)),
	}
	copy(d.generators, generators)
	copy(d.models, models)
	return d, nil
}

// ScanReceipt analyzes a receipt image and extracts structured purchase data.
// The returned record has categorizer-assigned item categories and a majority
// primary category; the model's own category labels are discarded.
func (d *Dispatcher) ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error) {
	pngData, _, _, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, err
	}

	text, err := d.generate(ctx, pngData)
	if err != nil {
		return nil, err
	}

	data, err := parseReceiptJSON(text)
	if err != nil {
		return nil, &ContentError{Err: err}
	}

	// The model's category field is informational only; the categorizer is
	// authoritative downstream.
	for i := range data.Items {
		data.Items[i].Category = category.Categorize(data.Items[i].Name)
	}
	data.Category = primaryCategory(data.Items)

	return data, nil
}

// generate walks the credential-major fallback matrix and returns the first
// successful response text. A NotFound fault moves to the next model on the
// same credential, an Exhausted fault abandons the credential entirely, and
// an Unclassified fault is terminal only on the very last attempt.
func (d *Dispatcher) generate(ctx context.Context, pngData []byte) (string, error) {
	var lastFault *ChannelError

	for ci, gen := range d.generators {
		for mi, model := range d.models {
			text, err := gen.Generate(ctx, model, receiptScanPrompt, pngData)
			if err == nil {
				slog.Info("Extraction succeeded", "credential", ci+1, "model", model)
				return text, nil
			}

			kind := classifyFault(err)
			lastFault = &ChannelError{Kind: kind, Model: model, Err: err}
			slog.Warn("Extraction attempt failed",
				"credential", ci+1,
				"model", model,
				"kind", kind.String(),
				"error", err,
			)

			if kind == FaultExhausted {
				break
			}
			if kind == FaultUnclassified && ci == len(d.generators)-1 && mi == len(d.models)-1 {
				return "", lastFault
			}
			// FaultNotFound, or Unclassified mid-matrix: next model
		}
	}

	return "", lastFault
}

// primaryCategory returns the majority category among the items, ties broken
// by first encounter in item order. An empty item list maps to Outros.
func primaryCategory(items []ItemData) category.Category {
	if len(items) == 0 {
		return category.Outros
	}

	counts := make(map[category.Category]int, len(items))
	best := items[0].Category
	bestCount := 0
	for _, item := range items {
		counts[item.Category]++
		if counts[item.Category] > bestCount {
			best = item.Category
			bestCount = counts[item.Category]
		}
	}
	return best
}

// Close closes every underlying generator, returning the first error seen.
func (d *Dispatcher) Close() error {
	var firstErr error
	for _, gen := range d.generators {
		if err := gen.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
