package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/events"
	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/logger"
	"github.com/TWeb79/appscout/internal/store"
)

type addAppRequest struct {
	URL         string `json:"url"`
	Port        int    `json:"port"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

// ListApps returns every registered App, most recently discovered first.
func ListApps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := d.Store.GetAllApps(r.Context())
		if err != nil {
			d.Logger.Error("list apps failed", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}
		respondJSON(w, http.StatusOK, apps)
	}
}

// AddApp registers an App manually. The url is canonicalized and
// deduplicated exactly like a scanned discovery.
func AddApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addAppRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			respondError(w, http.StatusBadRequest, "url is required")
			return
		}
		if req.Port < 0 || req.Port > 65535 {
			respondError(w, http.StatusBadRequest, "port out of range")
			return
		}

		app, err := d.Store.AddApp(r.Context(), req.URL, req.Port, req.Name, req.Category, req.Description)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		d.Hub.Emit(events.New(events.TypeAppAdded, map[string]any{"app": app}))
		d.Logger.Info("app registered manually",
			logger.String("url", app.URL),
			logger.String("id", app.ID))
		respondJSON(w, http.StatusCreated, app)
	}
}

// GetApp returns one App by id.
func GetApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := d.Store.GetApp(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "app not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}
		respondJSON(w, http.StatusOK, app)
	}
}

// DeleteApp removes an App and everything attached to it.
func DeleteApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Store.RemoveApp(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "app not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}

		d.Hub.Emit(events.New(events.TypeAppRemoved, map[string]any{"id": id}))
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateNotes replaces the free-text notes of an App.
func UpdateNotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateNotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		app, err := d.Store.UpdateNotes(r.Context(), chi.URLParam(r, "id"), req.Notes)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "app not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}

		d.Hub.Emit(events.New(events.TypeAppUpdated, map[string]any{"app": app}))
		respondJSON(w, http.StatusOK, app)
	}
}

// History returns the scan history of an App, newest first.
func History(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := d.Store.GetApp(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "app not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}

		history, err := d.Store.GetScanHistory(r.Context(), id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}
		if history == nil {
			history = []*domain.ScanHistoryEntry{}
		}
		respondJSON(w, http.StatusOK, history)
	}
}

// Screenshot serves the stored page image of an App. ?thumb=1 serves the
// thumbnail instead.
func Screenshot(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image, thumbnail, err := d.Store.GetScreenshot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "no screenshot stored")
				return
			}
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}

		body := image
		if r.URL.Query().Get("thumb") == "1" && len(thumbnail) > 0 {
			body = thumbnail
		}
		if len(body) == 0 {
			respondError(w, http.StatusNotFound, "no screenshot stored")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}
