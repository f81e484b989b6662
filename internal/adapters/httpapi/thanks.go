package httpapi

import (
	"net/http"

	httpinfra "gratitude-journal/internal/infra/http"
)

type sendThanksRequest struct {
	Person    string `json:"person"`
	StickerID string `json:"sticker_id"`
	ChatID    int64  `json:"chat_id"`
}

type shareRequest struct {
	Recipient string `json:"recipient"`
	StickerID string `json:"sticker_id"`
	Message   string `json:"message"`
}

func (h *Handler) stickers(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"stickers": h.Thanks.Stickers()})
}

func (h *Handler) sendThanks(w http.ResponseWriter, r *http.Request) {
	var req sendThanksRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ChatID == 0 {
		req.ChatID = h.DefaultChatID
	}
	rec, err := h.Thanks.SendThanks(r.Context(), req.Person, req.StickerID, req.ChatID)
	if err != nil {
		h.fail(w, r, "send_thanks", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) thanksHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.Thanks.History(r.Context(), r.URL.Query().Get("person"))
	if err != nil {
		h.fail(w, r, "thanks_history", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"thanks": records})
}

func (h *Handler) lastThanks(w http.ResponseWriter, r *http.Request) {
	person := r.URL.Query().Get("person")
	if person == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, errBadRequest)
		return
	}
	rec, ok, err := h.Thanks.LastThanks(r.Context(), person)
	if err != nil {
		h.fail(w, r, "last_thanks", err)
		return
	}
	if !ok {
		httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"last": nil})
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"last": rec})
}

func (h *Handler) createShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if !h.decode(w, r, &req) {
		return
	}
	link, err := h.Thanks.CreateShareLink(r.Context(), req.Recipient, req.StickerID, req.Message)
	if err != nil {
		h.fail(w, r, "create_share", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, link)
}
