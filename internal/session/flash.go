package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// FlashCookie holds a notification across one redirect.
const FlashCookie = "flash"

// Flash variants.
const (
	FlashSuccess     = "success"
	FlashDestructive = "destructive"
)

// Flash is a toast notification shown on the next rendered page.
type Flash struct {
	Variant     string `json:"variant"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SetFlash queues f for the next page load.
func (m *Manager) SetFlash(w http.ResponseWriter, f Flash) {
	payload, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the queued notification, if any, and clears it.
func (m *Manager) PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return Flash{}, false
	}
	m.expire(w, FlashCookie)

	payload, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return Flash{}, false
	}
	var f Flash
	if err := json.Unmarshal(payload, &f); err != nil || f.Title == "" {
		return Flash{}, false
	}
	return f, true
}
