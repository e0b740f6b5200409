package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"certdesign/internal/storage"
	"certdesign/internal/verify"
)

// MaxPreviewWidth bounds the w query parameter of preview requests.
const MaxPreviewWidth = 4000

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.log.Error("health check failed", "err", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "certdesign"})
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	details, err := s.svc.Details(r.Context(), id)
	if err != nil {
		s.fail(w, id, err)
		return
	}
	respondWithJSON(w, http.StatusOK, details)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	maxWidth := 0
	if v := r.URL.Query().Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxPreviewWidth {
			respondWithError(w, http.StatusBadRequest, "w must be between 1 and "+strconv.Itoa(MaxPreviewWidth))
			return
		}
		maxWidth = n
	}

	var buf bytes.Buffer
	if err := s.svc.Preview(r.Context(), id, maxWidth, &buf); err != nil {
		s.metrics.renders.WithLabelValues("png", "error").Inc()
		s.fail(w, id, err)
		return
	}
	s.metrics.renders.WithLabelValues("png", "ok").Inc()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var buf bytes.Buffer
	if err := s.svc.PDF(r.Context(), id, &buf); err != nil {
		s.metrics.renders.WithLabelValues("pdf", "error").Inc()
		s.fail(w, id, err)
		return
	}
	s.metrics.renders.WithLabelValues("pdf", "ok").Inc()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="certificate-`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var buf bytes.Buffer
	if err := s.svc.QR(r.Context(), id, &buf); err != nil {
		s.fail(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) fail(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, storage.ErrCertificateNotFound):
		respondWithError(w, http.StatusNotFound, "Certificate not found")
	case errors.Is(err, verify.ErrNoDesign):
		respondWithError(w, http.StatusNotFound, "Certificate has no design")
	case errors.Is(err, context.Canceled):
		s.log.Debug("request canceled", "certificate_id", id)
	default:
		s.log.Error("verification failed", "certificate_id", id, "err", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load certificate")
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
