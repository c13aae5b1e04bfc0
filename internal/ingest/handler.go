package ingest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/bevops/truckplan/internal/importer"
)

const maxUploadBytes = 32 << 20

// NewRouter builds the ingest HTTP surface.
func NewRouter(service *Service) *mux.Router {
	h := &handler{service: service}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/ingest/upload", h.upload).Methods(http.MethodPost)
	r.HandleFunc("/ingest/files", h.listFiles).Methods(http.MethodGet)
	return r
}

type handler struct {
	service *Service
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}

	kind := importer.Kind(r.FormValue("kind"))
	switch kind {
	case importer.KindDemand, importer.KindActuals, importer.KindInbound:
	default:
		writeError(w, http.StatusBadRequest, "kind must be demand, actuals or inbound")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed reading upload")
		return
	}

	result, err := h.service.Upload(r.Context(), header.Filename, kind, data)
	if err != nil {
		log.Error().Err(err).Str("file", header.Filename).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, "failed processing upload")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListFiles(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		log.Error().Err(err).Msg("failed listing stored files")
		writeError(w, http.StatusInternalServerError, "failed listing stored files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
