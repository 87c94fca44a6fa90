// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// userHandle is an httprouter.Handle that additionally receives the
// authenticated user.
type userHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, user *auth.User)

// requireUser resolves the session cookie before the wrapped handler
// runs. Anonymous requests are redirected to the login page; only a
// storage failure produces an error response.
func (s *Server) requireUser(next userHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		user, err := s.auth.Authenticate(r.Context(), s.sessionToken(r))
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			errutil.LogError(s.logger, "session resolution failed", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		next(w, r, ps, user)
	}
}
