package http

import (
	"net/http"

	applog "billed/internal/log"
	"billed/internal/services"
	"billed/internal/session"
)

type loginPage struct {
	pageData
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", loginPage{pageData: pageData{Title: "Connexion"}})
}

// handleLogin stores the session record and sends the user to the bills.
// Authentication itself is delegated to the deployment.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	userType := session.TypeEmployee
	if r.Form.Get("type") == session.TypeAdmin {
		userType = session.TypeAdmin
	}
	user := session.User{Email: sanitizeInput(r.Form.Get("email")), Type: userType}

	if err := session.Login(session.NewCookieStorage(w, r), user); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", loginPage{
			pageData: pageData{Title: "Connexion"},
			Error:    "Veuillez renseigner votre email",
		})
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "User logged in",
		applog.FieldEmail, user.Email, "type", user.Type)
	navigate(w, r, services.RouteBills)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.Logout(session.NewCookieStorage(w, r))
	navigate(w, r, services.RouteLogin)
}
