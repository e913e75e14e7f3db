package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	applog "flourcast/internal/log"
	"flourcast/models"
)

type signupRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	BakeryName string `json:"bakery_name"`
	Password   string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	BakeryName string `json:"bakery_name"`
}

func projectAccount(user *models.User) accountResponse {
	return accountResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		BakeryName: user.BakeryName,
	}
}

// Signup registers a new account and opens a session for it.
func Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil || database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "registration not available")
		return
	}

	var payload signupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid signup payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	email := strings.TrimSpace(payload.Email)
	if email == "" || payload.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if _, err := findUserByEmail(r, email); err == nil {
		writeJSONError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	user, err := createUser(r, email, payload.Name, payload.BakeryName, payload.Password)
	if err != nil {
		applog.Error(r.Context(), "failed to create user", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create account")
		return
	}

	if err := establishSession(r, user); err != nil {
		applog.Error(r.Context(), "failed to establish session after signup", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to start session")
		return
	}

	applog.Info(r.Context(), "account created", "email", user.Email)
	writeJSON(w, http.StatusCreated, projectAccount(user))
}

// Login processes sign-in submissions.
func Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil || database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
		return
	}

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid login payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	email := strings.TrimSpace(payload.Email)
	if email == "" || payload.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := authenticate(r, email, payload.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			writeJSONError(w, http.StatusUnauthorized, errInvalidCredentials.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	applog.Debug(r.Context(), "login succeeded", "email", user.Email)
	writeJSON(w, http.StatusOK, projectAccount(user))
}
