package api

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/okian/relay/internal/domain/roster"
)

// DatasetHandler loads and exposes the current dataset.
type DatasetHandler struct {
	deps Dependencies
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps Dependencies) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

type datasetResponse struct {
	Version    string    `json:"version"`
	LoadedAt   time.Time `json:"loaded_at"`
	Swimmers   int       `json:"swimmers"`
	Categories int       `json:"categories"`
}

func summary(snap roster.Snapshot) datasetResponse { //nolint:gocritic // hugeParam: snapshots are values
	return datasetResponse{
		Version:    snap.Version,
		LoadedAt:   snap.LoadedAt,
		Swimmers:   len(snap.Dataset.Swimmers),
		Categories: len(snap.Dataset.Categories),
	}
}

// HandlePut handles POST /v1/dataset. The body format comes from the
// "format" query parameter or the Content-Type, JSON by default.
func (h *DatasetHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	doc, err := roster.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), format)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	snap, err := h.deps.LoadDataset(r.Context(), doc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary(snap))
}

// HandleGet handles GET /v1/dataset. With format=yaml the records are
// returned as a YAML document that POST accepts back.
func (h *DatasetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Dataset(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if raw := r.URL.Query().Get("format"); raw != "" {
		format, err := roster.ParseFormat(raw)
		if err != nil || format == roster.FormatCSV {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidFormat)
			return
		}
		if format == roster.FormatYAML {
			w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		} else {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.Header().Set("ETag", `"`+snap.Version+`"`)
		_ = roster.Encode(w, snap.Dataset.Document(), format)
		return
	}
	w.Header().Set("ETag", `"`+snap.Version+`"`)
	writeJSON(w, http.StatusOK, snap)
}

func requestFormat(r *http.Request) (roster.Format, error) {
	if raw := r.URL.Query().Get("format"); raw != "" {
		return roster.ParseFormat(raw)
	}
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || ct == "" {
		return roster.FormatJSON, nil
	}
	switch {
	case strings.Contains(ct, "yaml"):
		return roster.FormatYAML, nil
	case strings.Contains(ct, "csv"):
		return roster.FormatCSV, nil
	default:
		return roster.FormatJSON, nil
	}
}
