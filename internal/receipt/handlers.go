package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/smartspend/smartspend/internal/scanning"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error payload with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// handleRoot reports that the API is up
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "SmartSpend API is running",
		"status":  "active",
	})
}

// handleHealth is the detailed health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleListReceipts returns all receipts of the default owner
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.ListReceipts()
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(receipts); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadReceipt receives a receipt image, extracts it, and persists
// the resulting record
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	// 50MB cap to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	// Browsers and multipart writers often stamp parts with the generic
	// octet-stream type; fall back to the file extension in that case.
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}

	receipt, err := s.service.ProcessReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(receipt); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// uploadErrorStatus maps processing failures onto HTTP statuses: input
// problems are the client's, channel faults are the upstream model's, and
// content faults mean the response arrived but was unusable.
func uploadErrorStatus(err error) int {
	var channelErr *scanning.ChannelError
	var contentErr *scanning.ContentError
	switch {
	case errors.Is(err, ErrEmptyImage), errors.Is(err, ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.As(err, &contentErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &channelErr):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}
	receipt, err := s.service.GetReceipt(id)
	if err != nil {
		corsError(w, "Receipt not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(receipt); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetReceiptFile returns the stored upload for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetReceiptFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt. Deleting an absent id reports
// not found.
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteReceipt(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Receipt not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting receipt", "id", id, "error", err)
		corsError(w, "Error deleting receipt", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDashboard returns the recomputed summary for the default owner
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Dashboard()
	if err != nil {
		slog.Error("Error computing dashboard", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleHistory returns the legacy cumulative document
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.service.History()); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
