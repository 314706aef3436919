// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/tokens"
)

type StudentHandler struct {
	db *sql.DB
}

func NewStudentHandler(db *sql.DB) *StudentHandler {
	return &StudentHandler{db: db}
}

// MyTokens handles GET /students/me/tokens
func (h *StudentHandler) MyTokens(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	student, ok := p.(auth.Student)
	if !ok {
		middleware.WriteError(w, apperr.New(apperr.KindForbidden, "Only students have voting tokens"))
		return
	}

	list, err := tokens.NewStore(h.db).ListForStudent(r.Context(), student.StudentID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}
