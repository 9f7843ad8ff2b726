package session

import (
	"encoding/base64"
	"net/http"
	"time"
)

const cookieMaxAge = 12 * time.Hour

// CookieStorage stores items as base64url cookies on the current exchange.
// Values written with SetItem are visible to later GetItem calls on the same
// instance.
type CookieStorage struct {
	r       *http.Request
	w       http.ResponseWriter
	secure  bool
	written map[string]*string
}

func NewCookieStorage(w http.ResponseWriter, r *http.Request) *CookieStorage {
	return &CookieStorage{
		r:       r,
		w:       w,
		secure:  r.TLS != nil,
		written: map[string]*string{},
	}
}

func (c *CookieStorage) GetItem(key string) (string, bool) {
	if v, ok := c.written[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	ck, err := c.r.Cookie(key)
	if err != nil {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (c *CookieStorage) SetItem(key, value string) {
	c.written[key] = &value
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *CookieStorage) RemoveItem(key string) {
	c.written[key] = nil
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
