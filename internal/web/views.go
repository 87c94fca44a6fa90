// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"
)

//go:embed templates static
var assetsFS embed.FS

// One parsed template set per page, each layered on the shared layout.
var pageTemplates = func() map[string]*template.Template {
	pages := []string{
		"home.html",
		"register.html",
		"login.html",
		"account.html",
		"profile.html",
	}
	sets := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		sets[page] = template.Must(template.ParseFS(
			assetsFS,
			"templates/base.html",
			"templates/"+page,
		))
	}
	return sets
}()

// homeView backs the landing page.
type homeView struct {
	Username string
}

// registerView backs the registration form. ChallengeImage is a complete
// data: URL for the inline challenge PNG; Nickname and Email echo the
// submitted values back on a validation failure.
type registerView struct {
	ChallengeID    string
	ChallengeImage template.URL
	Nickname       string
	Email          string
	Error          string
}

// loginView backs the login form.
type loginView struct {
	Email string
	Error string
}

// accountView backs the settings page.
type accountView struct {
	Username string
	Error    string
	Notice   string
}

// profileView backs the read-only profile page.
type profileView struct {
	ID        string
	Username  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// render executes a page template into a buffer first, so a template
// failure becomes a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, page string, view any) {
	tmpl, ok := pageTemplates[page]
	if !ok {
		s.logger.Error("unknown page template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", view); err != nil {
		s.logger.Error("template execution failed", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write failure means the client went away
	buf.WriteTo(w)
}
