package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/session"
)

// alreadySignedIn sends authenticated visitors of the auth pages home.
func (s *Server) alreadySignedIn(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := session.FromContext(r.Context()); ok {
		NewResponse(nil).Redirect("/").Write(w)
		return true
	}
	return false
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if s.alreadySignedIn(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Log in", "login", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseForm(r); err != nil {
		s.fail(w, r, err, "/login")
		return
	}

	user, err := s.auth.Authenticate(ctx, r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		s.fail(w, r, err, "/login")
		return
	}
	if _, err := s.sessions.Issue(w, user); err != nil {
		s.fail(w, r, err, "/login")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "User logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, user.ID)
	NewResponse(s.sessions).Success("Welcome back!").Redirect("/").Write(w)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if s.alreadySignedIn(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "register.html", "Register", "register", nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseForm(r); err != nil {
		s.fail(w, r, err, "/register")
		return
	}

	user, err := s.auth.Register(ctx, registrationInput(r))
	if err != nil {
		s.fail(w, r, err, "/register")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "User registered",
		log.FieldOperation, log.OpRegister,
		log.FieldUserID, user.ID)
	NewResponse(s.sessions).Success("Registration complete. You can now log in.").Redirect("/login").Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	NewResponse(s.sessions).Info("You have been logged out.").Redirect("/login").Write(w)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, id core.Identity) {
	s.render(w, r, http.StatusOK, "settings.html", "Settings", "settings", nil)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, id core.Identity) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, err, "/settings")
		return
	}
	if err := s.auth.ChangePassword(r.Context(), id, passwordChangeInput(r)); err != nil {
		s.fail(w, r, err, "/settings")
		return
	}
	NewResponse(s.sessions).Success("Password changed.").Redirect("/settings").Write(w)
}
