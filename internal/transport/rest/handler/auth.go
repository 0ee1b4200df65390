package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// CodeExchanger trades an OAuth authorization code for the provider's
// token bundle.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (json.RawMessage, error)
}

// AuthHandler handles the OAuth code exchange endpoint
type AuthHandler struct {
	exchanger CodeExchanger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(exchanger CodeExchanger) *AuthHandler {
	return &AuthHandler{exchanger: exchanger}
}

// TokenRequest is the request body for POST /token.
type TokenRequest struct {
	Code string `json:"code"`
}

// Token handles POST /token. The provider's token bundle is passed
// through untouched so the client sees exactly what the IdP returned.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	bundle, err := h.exchanger.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(bundle)
}
