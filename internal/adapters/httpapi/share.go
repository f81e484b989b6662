package httpapi

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"gratitude-journal/internal/domain"
)

var sharePage = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta property="og:title" content="Thank you, {{.RecipientName}}!" />
  <meta property="og:image" content="{{.ImageURL}}" />
  <meta property="og:description" content="Someone sent you a special thank you message!" />
  <title>Thank You, {{.RecipientName}}!</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: linear-gradient(to bottom, #1a1d2e, #25283d, #2d3250); min-height: 100vh; margin: 0; display: flex; align-items: center; justify-content: center; padding: 20px; }
    .container { max-width: 600px; width: 100%; text-align: center; }
    .message { font-size: 32px; font-weight: 600; color: #e8d4e8; margin-bottom: 30px; }
    .image-container { background: #3d4260; border-radius: 24px; padding: 20px; margin-bottom: 20px; }
    img { max-width: 100%; height: auto; border-radius: 16px; }
    .custom-message { color: #d4a5d4; font-size: 18px; margin: 20px 0; padding: 20px; background: #3d4260; border-radius: 16px; }
    .footer { color: #a8b5d4; font-size: 14px; margin-top: 30px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="message">Thank you, {{.RecipientName}}!</div>
    <div class="image-container">
      <img src="{{.ImageURL}}" alt="Thank you sticker" />
    </div>
    {{if .Message}}<div class="custom-message">{{.Message}}</div>{{end}}
    <div class="footer">Sent with gratitude</div>
  </div>
</body>
</html>
`))

func (h *Handler) viewSharedThanks(w http.ResponseWriter, r *http.Request) {
	shareID := strings.TrimSpace(chi.URLParam(r, "shareID"))
	if shareID == "" {
		http.Error(w, "Missing share ID", http.StatusBadRequest)
		return
	}
	share, err := h.Thanks.GetShare(r.Context(), shareID)
	if errors.Is(err, domain.ErrShareNotFound) {
		http.Error(w, "Thank you message not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("share_id", shareID).Msg("не удалось загрузить благодарность")
		http.Error(w, "An error occurred", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sharePage.Execute(w, share); err != nil {
		h.log.Error().Err(err).Str("share_id", shareID).Msg("не удалось отрисовать страницу благодарности")
	}
}
