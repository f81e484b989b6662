package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	httpinfra "gratitude-journal/internal/infra/http"
	"gratitude-journal/internal/usecase/journal"
)

type textRequest struct {
	Text string `json:"text"`
}

type selectionRequest struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type confirmRequest struct {
	IsPerson bool `json:"is_person"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusCreated, h.Journal.StartSession(r.Context()))
}

func (h *Handler) sessionState(w http.ResponseWriter, r *http.Request) {
	view, err := h.Journal.SessionState(chi.URLParam(r, "id"))
	h.writeSession(w, r, "session_state", view, err)
}

func (h *Handler) sessionText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.Journal.SessionTextChanged(r.Context(), chi.URLParam(r, "id"), req.Text)
	h.writeSession(w, r, "session_text", view, err)
}

func (h *Handler) sessionSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.Journal.SessionSelection(r.Context(), chi.URLParam(r, "id"), req.Text, req.Start, req.End)
	h.writeSession(w, r, "session_selection", view, err)
}

func (h *Handler) sessionConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.Journal.SessionConfirm(r.Context(), chi.URLParam(r, "id"), req.IsPerson)
	h.writeSession(w, r, "session_confirm", view, err)
}

func (h *Handler) finishSession(w http.ResponseWriter, r *http.Request) {
	var draft journal.Draft
	if !h.decode(w, r, &draft) {
		return
	}
	entry, err := h.Journal.FinishSession(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		h.fail(w, r, "finish_session", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) discardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Journal.DiscardSession(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "discard_session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, op string, view journal.SessionView, err error) {
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, view)
}
