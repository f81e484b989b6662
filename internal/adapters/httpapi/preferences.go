package httpapi

import (
	"net/http"

	httpinfra "gratitude-journal/internal/infra/http"
	"gratitude-journal/internal/usecase/preferences"
)

type usernameRequest struct {
	Username string `json:"username"`
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Preferences.Get(r.Context())
	if err != nil {
		h.fail(w, r, "get_preferences", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
		"preferences":   prefs,
		"text_box_rows": prefs.TextBoxSize.Rows(),
	})
}

func (h *Handler) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	var req preferences.Onboarding
	if !h.decode(w, r, &req) {
		return
	}
	prefs, err := h.Preferences.CompleteOnboarding(r.Context(), req)
	if err != nil {
		h.fail(w, r, "complete_onboarding", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, prefs)
}

func (h *Handler) updateUsername(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Preferences.UpdateUsername(r.Context(), req.Username); err != nil {
		h.fail(w, r, "update_username", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
