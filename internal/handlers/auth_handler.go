package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"plp-bookstore/internal/auth"
	"plp-bookstore/internal/utils"
)

type Credentials struct {
	UserID   string
	Username string
	Password string
}

// AuthHandler trades the configured credentials for a bearer token.
type AuthHandler struct {
	Secret   string
	TokenTTL time.Duration
	Creds    Credentials
	Log      logrus.FieldLogger
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (a *AuthHandler) configured() bool {
	return a != nil && a.Secret != "" && a.Creds.Username != "" && a.Creds.Password != ""
}

// POST /login
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !a.configured() {
		utils.JSONError(w, "Authentication is not configured", http.StatusServiceUnavailable)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.Creds.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Creds.Password)) == 1
	if !userOK || !passOK {
		utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(a.Secret, a.Creds.UserID, a.TokenTTL)
	if err != nil {
		a.Log.WithError(err).Error("token generation failed")
		utils.JSONError(w, "Could not issue token", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}
