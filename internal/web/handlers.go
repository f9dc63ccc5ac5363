// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/pkg/errutil"
)

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// apiResponse is the JSON body shape shared by all API responses.
type apiResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Token   string   `json:"token,omitempty"`
}

// handleRegister runs the registration flow. Validation failures carry
// every violation message; duplicate keys name the colliding field.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Invalid request body"})
		return
	}

	_, err := s.auth.Register(r.Context(), auth.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		var violations auth.ValidationErrors
		var dup *auth.DuplicateKeyError
		switch {
		case errors.As(err, &violations):
			s.metrics.RegistrationsTotal.WithLabelValues("validation_failed").Inc()
			s.writeJSON(w, http.StatusBadRequest, apiResponse{
				Message: "Validation error",
				Errors:  violations.Messages(),
			})
		case errors.As(err, &dup):
			s.metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			s.writeJSON(w, http.StatusBadRequest, apiResponse{
				Message: duplicateMessage(dup.Field),
			})
		default:
			s.metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			errutil.LogError(s.logger, "registration failed", err)
			s.writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Error registering user"})
		}
		return
	}

	s.metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.writeJSON(w, http.StatusCreated, apiResponse{Message: "User registered successfully"})
}

// handleLogin runs the login flow and returns a signed identity token.
// Not-found and bad-password outcomes are reported with distinct
// messages to match the original client's expectations; the enumeration
// tradeoff is deliberate.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Invalid request body"})
		return
	}

	_, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound):
			s.metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			s.writeJSON(w, http.StatusBadRequest, apiResponse{Message: "User not found"})
		case errors.Is(err, auth.ErrPasswordMismatch):
			s.metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
			s.writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Invalid password"})
		default:
			s.metrics.LoginsTotal.WithLabelValues("error").Inc()
			errutil.LogError(s.logger, "login failed", err)
			s.writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Error logging in"})
		}
		return
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.writeJSON(w, http.StatusOK, apiResponse{Message: "Login successful", Token: token})
}

// homeResponse is the protected route's body.
type homeResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// handleHome serves the protected home resource for a verified identity.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		// requireAuth always attaches claims; reaching here is a wiring bug.
		w.WriteHeader(http.StatusForbidden)
		return
	}

	s.writeJSON(w, http.StatusOK, homeResponse{
		Message:  fmt.Sprintf("Welcome back, %s", claims.Username),
		Username: claims.Username,
		Email:    claims.Email,
	})
}

func duplicateMessage(field string) string {
	if field == "email" {
		return "Email already exists"
	}
	return "Username already exists"
}

// writeJSON writes a JSON response body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response write failed", "error", err)
	}
}
