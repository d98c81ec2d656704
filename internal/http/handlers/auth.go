package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/filekeep/server/internal/auth"
	"github.com/filekeep/server/internal/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// credentialsRequest is the request body for POST /signup and POST /signin
type credentialsRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// credentialsResponse is the JSON response for signup/signin
type credentialsResponse struct {
	ID           string `json:"id"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// HandleSignup handles POST /signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "ID and password are required")
		return
	}
	req.ID = strings.TrimSpace(req.ID)

	creds, err := h.authService.SignUp(r.Context(), req.ID, req.Password, deviceID(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField):
			respondWithError(w, http.StatusBadRequest, "ID and password are required")
		case errors.Is(err, auth.ErrInvalidIdentifier):
			respondWithError(w, http.StatusBadRequest, "ID must be a valid email or phone number")
		case errors.Is(err, auth.ErrUserExists):
			respondWithError(w, http.StatusConflict, "User already exists")
		default:
			log.Printf("Signup error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, credentialsResponse{
		ID:           creds.UserID,
		Token:        creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	})
}

// HandleSignin handles POST /signin
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "ID and password are required")
		return
	}
	req.ID = strings.TrimSpace(req.ID)

	creds, err := h.authService.SignIn(r.Context(), req.ID, req.Password, deviceID(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField):
			respondWithError(w, http.StatusBadRequest, "ID and password are required")
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			log.Printf("Signin error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, credentialsResponse{
		ID:           creds.UserID,
		Token:        creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	})
}

// newTokenRequest is the request body for POST /signin/new_token
type newTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// newTokenResponse is the JSON response for new_token
type newTokenResponse struct {
	Token string `json:"token"`
}

// HandleNewToken handles POST /signin/new_token
func (h *AuthHandler) HandleNewToken(w http.ResponseWriter, r *http.Request) {
	var req newTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	token, err := h.authService.RotateAccessToken(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField):
			respondWithError(w, http.StatusBadRequest, "Refresh token is required")
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		default:
			log.Printf("Token refresh error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, newTokenResponse{Token: token})
}

// HandleInfo handles GET /info (protected). Returns the authenticated user ID.
func (h *AuthHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"id": identity.UserID})
}

// HandleLogout handles GET /logout (protected). Blacklists the presented
// access token and drops all refresh tokens for this device.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	rawToken, _ := middleware.GetRawToken(r.Context())

	if err := h.authService.Logout(r.Context(), identity.UserID, identity.DeviceID, rawToken); err != nil {
		log.Printf("Logout error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// deviceID derives the session's device identity from the client's
// declared user agent. Deliberately loose; no canonicalization.
func deviceID(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return auth.DefaultDeviceID
}

// respondWithJSON writes a JSON body with the given status code
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}
