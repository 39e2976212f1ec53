package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/edustack-labs/meetlink/internal/core/domain"
	"github.com/edustack-labs/meetlink/internal/core/ports/driving"
)

// Health check response
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth returns the health status of the service
// @Summary Health check
// @Description Returns the health status of the service
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: s.version,
	})
}

// handleReady checks if the service is ready to accept requests
// @Summary Readiness check
// @Description Checks database connectivity
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion returns the service version
// @Summary Version info
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handleConnect starts the Google Meet consent flow for the caller
// @Summary Start Google Meet connection
// @Description Returns the Google consent URL for the authenticated user
// @Tags meet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} driving.AuthorizeResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/meet/connect [post]
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := s.connectionService.BuildAuthorizationURL(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("Failed to build authorization URL for %s: %v", claims.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to start connection flow")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCallback completes the consent flow. Google redirects the browser
// here; the user's identity is recovered from the signed state, not from a
// bearer token.
// @Summary OAuth callback
// @Description Exchanges the authorization code and stores the credential
// @Tags meet
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "Opaque state from the connect step"
// @Success 200 {object} driving.CallbackResult
// @Failure 400 {object} driving.CallbackResult
// @Failure 502 {object} driving.CallbackResult
// @Router /api/v1/meet/callback [get]
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Google reports consent denial via an error parameter
	if errParam := query.Get("error"); errParam != "" {
		writeJSON(w, http.StatusBadRequest, &driving.CallbackResult{
			Success: false,
			Kind:    driving.CallbackErrExchange,
			Message: "authorization denied: " + errParam,
		})
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		writeJSON(w, http.StatusBadRequest, &driving.CallbackResult{
			Success: false,
			Kind:    driving.CallbackErrStateInvalid,
			Message: "missing code or state parameter",
		})
		return
	}

	result := s.connectionService.HandleCallback(r.Context(), code, state)
	writeJSON(w, callbackStatusCode(result), result)
}

func callbackStatusCode(result *driving.CallbackResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Kind {
	case driving.CallbackErrStateInvalid, driving.CallbackErrStateExpired:
		return http.StatusBadRequest
	case driving.CallbackErrExchange:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleStatus reports the caller's connection state
// @Summary Connection status
// @Tags meet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} driving.ConnectionStatus
// @Failure 401 {object} map[string]string
// @Router /api/v1/meet/status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := s.connectionService.Status(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("Failed to get status for %s: %v", claims.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to get connection status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleDisconnect revokes and deletes the caller's credential
// @Summary Disconnect Google Meet
// @Description Best-effort upstream revocation followed by local deletion
// @Tags meet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/meet/connection [delete]
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ok, err := s.connectionService.Revoke(r.Context(), claims.UserID)
	if err != nil || !ok {
		log.Printf("Failed to disconnect %s: %v", claims.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleToken hands out a valid access token for the caller. Used by the
// class scheduling service to create Meet links on the teacher's behalf.
// @Summary Get a valid access token
// @Tags meet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} tokenResponse
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/meet/token [post]
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	token, err := s.connectionService.GetValidAccessToken(r.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConnected):
			writeError(w, http.StatusConflict, "google meet is not connected")
		case errors.Is(err, domain.ErrReauthRequired):
			writeError(w, http.StatusConflict, "reauthorization required")
		default:
			log.Printf("Failed to get access token for %s: %v", claims.UserID, err)
			writeError(w, http.StatusInternalServerError, "failed to get access token")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer"})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
