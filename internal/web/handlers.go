// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"encoding/base64"
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// handleHome renders the landing page for the signed-in user.
func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, user *auth.User) {
	s.render(w, http.StatusOK, "home.html", homeView{Username: user.Username})
}

// handleRegisterForm issues a challenge and renders the registration form.
func (s *Server) handleRegisterForm(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.renderRegister(w, http.StatusOK, registerView{})
}

// handleRegisterSubmit verifies the challenge and creates the account.
func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	view := registerView{
		Nickname: r.PostFormValue("nickname"),
		Email:    r.PostFormValue("email"),
	}

	if !s.captcha.Verify(r.PostFormValue("captcha_id"), r.PostFormValue("captcha_answer")) {
		s.countRegistration("captcha_failed")
		view.Error = "The characters you typed did not match the image."
		s.renderRegister(w, http.StatusBadRequest, view)
		return
	}

	_, err := s.auth.Register(r.Context(), view.Nickname, view.Email, r.PostFormValue("password"))
	if err != nil {
		status, msg := describeError(err)
		if status == http.StatusInternalServerError {
			s.countRegistration("error")
			errutil.LogError(s.logger, "registration failed", err)
			http.Error(w, msg, status)
			return
		}
		s.countRegistration("rejected")
		view.Error = msg
		s.renderRegister(w, status, view)
		return
	}

	s.countRegistration("success")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// renderRegister attaches a fresh challenge to the view before rendering.
// A failed attempt gets a new image; the previous challenge simply ages out.
func (s *Server) renderRegister(w http.ResponseWriter, status int, view registerView) {
	id, image, err := s.captcha.Issue()
	if err != nil {
		errutil.LogError(s.logger, "challenge issue failed", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	view.ChallengeID = id
	view.ChallengeImage = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(image))
	s.render(w, status, "register.html", view)
}

// handleLoginForm renders the login form.
func (s *Server) handleLoginForm(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.render(w, http.StatusOK, "login.html", loginView{})
}

// handleLoginSubmit authenticates and establishes the session cookie.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	token, err := s.auth.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		status, msg := describeError(err)
		if status == http.StatusUnauthorized {
			s.countLogin("rejected")
			s.render(w, http.StatusUnauthorized, "login.html", loginView{Email: email, Error: msg})
			return
		}
		s.countLogin("error")
		errutil.LogError(s.logger, "login failed", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.countLogin("success")
	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleAccountForm renders the settings page.
func (s *Server) handleAccountForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params, user *auth.User) {
	view := accountView{Username: user.Username}
	switch r.URL.Query().Get("updated") {
	case "nickname":
		view.Notice = "Nickname updated."
	case "password":
		view.Notice = "Password updated."
	}
	s.render(w, http.StatusOK, "account.html", view)
}

// handleAccountSubmit dispatches the nickname and password commands.
func (s *Server) handleAccountSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params, user *auth.User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	action := r.PostFormValue("action")
	current := r.PostFormValue("current_password")

	var err error
	switch action {
	case "nickname":
		err = s.auth.ChangeNickname(r.Context(), user.ID, current, r.PostFormValue("new_nickname"))
	case "password":
		err = s.auth.ChangePassword(r.Context(), user.ID, current,
			r.PostFormValue("new_password"), r.PostFormValue("confirm_password"))
	default:
		s.render(w, http.StatusBadRequest, "account.html",
			accountView{Username: user.Username, Error: "Unknown action."})
		return
	}

	if err != nil {
		status, msg := describeError(err)
		if status == http.StatusInternalServerError {
			errutil.LogError(s.logger, "account update failed", err)
			http.Error(w, msg, status)
			return
		}
		s.render(w, status, "account.html", accountView{Username: user.Username, Error: msg})
		return
	}

	http.Redirect(w, r, "/account?updated="+action, http.StatusFound)
}

// handleProfile renders the read-only account details.
func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, user *auth.User) {
	s.render(w, http.StatusOK, "profile.html", profileView{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// handleLogout deletes the session, clears the cookie, and sends the
// client back to the login page. Logging out twice is harmless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := s.sessionToken(r)
	if token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			errutil.LogError(s.logger, "logout failed", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if s.metrics != nil {
			s.metrics.SessionsRevoked.Inc()
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) countRegistration(status string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(status).Inc()
	}
}

func (s *Server) countLogin(status string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(status).Inc()
	}
}

// describeError maps a service error to an HTTP status and a message safe
// to show the user. Anything unrecognized is a 500 with a generic body.
func describeError(err error) (int, string) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return http.StatusInternalServerError, "internal server error"
	}

	switch oopsErr.Code() {
	case "AUTH_INVALID_NICKNAME":
		return http.StatusBadRequest, "Nickname must be 3-50 characters: letters, digits, or underscore."
	case "AUTH_INVALID_EMAIL":
		return http.StatusBadRequest, "Email address is not valid."
	case "AUTH_WEAK_PASSWORD":
		return http.StatusBadRequest, "Password must be at least 8 characters and include upper and lower case letters, a digit, and a symbol."
	case "USER_CONFLICT":
		return http.StatusBadRequest, "That nickname or email is already taken."
	case "AUTH_BAD_CURRENT_PASSWORD":
		return http.StatusBadRequest, "Current password is incorrect."
	case "AUTH_PASSWORD_MISMATCH":
		return http.StatusBadRequest, "New passwords do not match."
	case "AUTH_INVALID_CREDENTIALS":
		return http.StatusUnauthorized, "Invalid credentials"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
