package billstore

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zombor/billed/internal/bill"
)

// maxUploadSize bounds receipt uploads (high-resolution phone photos)
const maxUploadSize = int64(50 << 20)

// writeJSON encodes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps service errors to a status code and a JSON error body
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "Internal server error"
	switch {
	case errors.Is(err, bill.ErrValidation):
		code = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
		msg = "Not found"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

// contentTypeFor falls back to the file extension when the part has no type
func contentTypeFor(header string, filename string) string {
	if header != "" {
		return strings.ToLower(strings.TrimSpace(header))
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	return "application/octet-stream"
}

// handleListBills returns all bills, optionally filtered by ?email=
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills(r.URL.Query().Get("email"))
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

// handleCreateBill creates a bill from a JSON body
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req bill.Bill
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	created, err := s.service.CreateBill(req)
	if err != nil {
		slog.Error("Error creating bill", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUploadFile stores a receipt sent as multipart "file" with an "email" field
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error reading file"})
		return
	}

	contentType := contentTypeFor(header.Header.Get("Content-Type"), header.Filename)
	ref, err := s.service.Upload(r.FormValue("email"), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error storing receipt", "filename", header.Filename, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

// handleGetBill returns a single bill
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.GetBill(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleUpdateBill creates or updates the bill stored under {id}
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var req bill.Bill
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	updated, err := s.service.UpdateBill(chi.URLParam(r, "id"), req)
	if err != nil {
		slog.Error("Error updating bill", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteBill deletes a bill
func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteBill(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetFile serves a stored receipt
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetFile(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
