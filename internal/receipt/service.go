package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartspend/smartspend/internal/scanning"
)

// Input validation errors, rejected before any extraction attempt.
var (
	ErrEmptyImage      = errors.New("empty image payload")
	ErrUnsupportedType = errors.New("unsupported content type")
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	history     *HistoryFile
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// WithHistory attaches the legacy history document. Updates to it are
// best-effort; the database stays the source of truth.
func (s *Service) WithHistory(h *HistoryFile) *Service {
	s.history = h
	return s
}

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length; phone cameras produce long, messy names.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// supportedContentType reports whether the upload can be sent to extraction.
func supportedContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

// ProcessReceipt validates and stores an upload, extracts structured data
// from it, and persists the resulting receipt for the default owner. On any
// failure after the file write, the stored file is rolled back; callers must
// not assume partial state was persisted.
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Receipt, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if !supportedContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	owner, err := s.db.GetOrCreateDefaultOwner()
	if err != nil {
		return nil, fmt.Errorf("resolving owner: %w", err)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	receiptData, err := s.scanner.ScanReceipt(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	items := make([]Item, len(receiptData.Items))
	for i, item := range receiptData.Items {
		items[i] = Item{
			Name:      item.Name,
			UnitValue: item.Value,
			Quantity:  item.Quantity,
			Category:  item.Category,
		}
	}

	receipt := &Receipt{
		ID:          id,
		OwnerID:     owner.ID,
		Merchant:    receiptData.Merchant,
		Date:        receiptData.Date,
		Total:       receiptData.Total,
		Category:    receiptData.Category,
		Items:       items,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	if s.history != nil {
		if err := s.history.Append(receipt); err != nil {
			slog.Warn("Failed to update history document", "error", err)
		}
	}

	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts of the default owner
func (s *Service) ListReceipts() ([]*Receipt, error) {
	owner, err := s.db.GetOrCreateDefaultOwner()
	if err != nil {
		return nil, fmt.Errorf("resolving owner: %w", err)
	}
	receipts, err := s.db.ListReceipts(owner.ID)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// Dashboard recomputes the dashboard summary from the default owner's stored
// receipts.
func (s *Service) Dashboard() (*Summary, error) {
	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}
	return Summarize(receipts), nil
}

// History returns the legacy cumulative document, or its default structure
// when no history file is configured.
func (s *Service) History() *HistoryDocument {
	if s.history == nil {
		return defaultHistoryDocument()
	}
	return s.history.Load()
}

// DeleteReceipt removes a receipt and its stored file. Absent ids surface
// ErrNotFound.
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if receipt.Filename != "" {
		if err := s.storage.Delete(receipt.Filename); err != nil {
			// Keep going; the database record is what matters.
			slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
		}
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the stored upload for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}
