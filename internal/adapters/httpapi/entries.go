package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	httpinfra "gratitude-journal/internal/infra/http"
	"gratitude-journal/internal/usecase/journal"
)

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"entries": h.Journal.ListEntries(r.Context())})
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var draft journal.Draft
	if !h.decode(w, r, &draft) {
		return
	}
	entry, err := h.Journal.SaveEntry(r.Context(), draft)
	if err != nil {
		h.fail(w, r, "create_entry", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Journal.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete_entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
