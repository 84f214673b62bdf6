// Package httpapi serves the digitizer over HTTP for the upload form:
// a multipart POST of the chart image answered with the JSON result.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/pump-curve-digitizer/internal/digitizer"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/logging"
	"github.com/ironsheep/pump-curve-digitizer/internal/ocr"
)

// MaxUploadSize bounds the request body of POST /api/digitize.
const MaxUploadSize = 32 << 20

// Handler routes the HTTP API.
type Handler struct {
	mux    *http.ServeMux
	reader ocr.Reader
	log    logging.Logger

	// Timeout bounds each pipeline stage of a request.
	Timeout time.Duration
}

// NewHandler returns the API handler. A nil reader uses Tesseract and a nil
// logger discards diagnostics.
func NewHandler(reader ocr.Reader, log logging.Logger) *Handler {
	if reader == nil {
		reader = ocr.NewTesseract(ocr.DefaultConfig())
	}
	if log == nil {
		log = logging.Nop{}
	}
	h := &Handler{
		mux:     http.NewServeMux(),
		reader:  reader,
		log:     log,
		Timeout: digitizer.DefaultOptions().StageTimeout,
	}
	h.mux.HandleFunc("POST /api/digitize", h.handleDigitize)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDigitize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	opts := digitizer.DefaultOptions()
	opts.Name = header.Filename
	opts.StageTimeout = h.Timeout
	if v := r.FormValue("grid_points"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			writeError(w, http.StatusBadRequest, "grid_points must be an integer of at least 2")
			return
		}
		opts.GridPoints = n
	}

	res, err := digitizer.Digitize(r.Context(), data, splitCurves(r.FormValue("curves")),
		digitizer.WithOptions(opts),
		digitizer.WithReader(h.reader),
		digitizer.WithLogger(h.log.With(logging.String("source", header.Filename))))
	switch {
	case errors.Is(err, imaging.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, digitizer.ErrNoCurves):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.log.Error("digitize failed", logging.String("source", header.Filename), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Digitization failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// splitCurves parses a comma separated label list, dropping blanks.
func splitCurves(s string) []string {
	var labels []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
