package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DiscordClient talks to the Discord API: token validation for room
// membership and the OAuth code exchange pass-through.
type DiscordClient struct {
	apiBase      string
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

func NewDiscordClient(apiBase, clientID, clientSecret, redirectURI string) *DiscordClient {
	if apiBase == "" {
		apiBase = "https://discord.com/api"
	}
	return &DiscordClient{
		apiBase:      strings.TrimRight(apiBase, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify resolves a bearer token to a user identity. Any provider
// failure, including the service being unreachable, is reported as an
// invalid token so the caller rejects the connection rather than
// crashing or retrying.
func (c *DiscordClient) Verify(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("identity: provider unreachable: %v", err)
		return Identity{}, ErrInvalidToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, ErrInvalidToken
	}

	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		log.Printf("identity: bad provider response: %v", err)
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: user.ID, Username: user.Username, Avatar: user.Avatar}, nil
}

// ExchangeCode swaps an authorization code for a token bundle. The raw
// provider response is passed through untouched.
func (c *DiscordClient) ExchangeCode(ctx context.Context, code string) (json.RawMessage, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.redirectURI},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange: provider returned %d", resp.StatusCode)
	}
	return body, nil
}
