package http

import (
	"net/http"
	"strings"

	"billed/internal/session"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// navigate sends the client to route: HX-Redirect for HTMX requests, a 303
// otherwise.
func navigate(w http.ResponseWriter, r *http.Request, route string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(route).Write(w)
		return
	}
	http.Redirect(w, r, route, http.StatusSeeOther)
}

// requireSession loads the session cookie into the request context and
// sends anonymous visitors to the login page.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session.FromStorage(session.NewCookieStorage(w, r))
		if err != nil {
			s.logger.DebugContext(r.Context(), "No session, redirecting to login",
				"path", r.URL.Path, "error", err)
			navigate(w, r, "/")
			return
		}
		next(w, r.WithContext(session.WithContext(r.Context(), sess)))
	}
}

// currentSession returns the session stored by requireSession.
func currentSession(r *http.Request) session.Context {
	sess, _ := session.FromContext(r.Context())
	return sess
}

// pageData is the common data of every full page.
type pageData struct {
	Title string
	User  session.User
}

func newPageData(r *http.Request, title string) pageData {
	return pageData{Title: title, User: currentSession(r).User()}
}
