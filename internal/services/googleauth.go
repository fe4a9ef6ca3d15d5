package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emyflow/emyflow-backend/internal/models"
)

const calendarScope = "https://www.googleapis.com/auth/calendar"

// GoogleAuthService exchanges a tenant's service-account key for short-lived
// calendar access tokens, with a per-tenant cache
type GoogleAuthService struct {
	mu     sync.Mutex
	client *http.Client
	tokens map[string]*cachedToken
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// NewGoogleAuthService creates the token exchanger
func NewGoogleAuthService() *GoogleAuthService {
	return &GoogleAuthService{
		client: &http.Client{Timeout: 15 * time.Second},
		tokens: make(map[string]*cachedToken),
	}
}

// Token returns a valid access token for the tenant's calendar scope
func (a *GoogleAuthService) Token(ctx context.Context, tenant *models.Tenant) (string, error) {
	a.mu.Lock()
	cached, ok := a.tokens[tenant.Slug]
	a.mu.Unlock()
	if ok && time.Until(cached.expiresAt) > time.Minute {
		return cached.accessToken, nil
	}

	if tenant.Google.ServiceAccountKey == "" {
		return "", fmt.Errorf("%w: google service account for tenant %s", models.ErrNotConfigured, tenant.Slug)
	}

	var key serviceAccountKey
	if err := json.Unmarshal([]byte(tenant.Google.ServiceAccountKey), &key); err != nil {
		return "", fmt.Errorf("invalid service account key for tenant %s: %w", tenant.Slug, err)
	}
	if key.TokenURI == "" {
		key.TokenURI = "https://oauth2.googleapis.com/token"
	}

	privKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("invalid service account private key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   key.ClientEmail,
		"scope": calendarScope,
		"aud":   key.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privKey)
	if err != nil {
		return "", fmt.Errorf("signing service account assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, key.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", models.NewUpstreamError("google-auth", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", models.NewUpstreamError("google-auth", fmt.Errorf("token exchange status %d", resp.StatusCode))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", models.NewUpstreamError("google-auth", err)
	}

	a.mu.Lock()
	a.tokens[tenant.Slug] = &cachedToken{
		accessToken: tokenResp.AccessToken,
		expiresAt:   now.Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}
	a.mu.Unlock()

	return tokenResp.AccessToken, nil
}
