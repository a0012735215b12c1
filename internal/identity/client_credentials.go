package identity

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// GraphDefaultScope requests every application permission granted to the app.
const GraphDefaultScope = "https://graph.microsoft.com/.default"

type ClientCredentialsConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// TokenURL overrides the Azure AD token endpoint derived from TenantID.
	TokenURL string
}

// ClientCredentials acquires app-only tokens. The underlying token source
// caches the token until it expires.
type ClientCredentials struct {
	cfg *clientcredentials.Config
	src oauth2.TokenSource
}

func NewClientCredentials(ctx context.Context, c ClientCredentialsConfig) *ClientCredentials {
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = microsoft.AzureADEndpoint(c.TenantID).TokenURL
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{GraphDefaultScope}
	}
	cfg := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return &ClientCredentials{cfg: cfg, src: cfg.TokenSource(ctx)}
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	tok, err := c.src.Token()
	if err != nil {
		return "", fmt.Errorf("client credentials: %w", err)
	}
	return tok.AccessToken, nil
}

// HasActiveSession is true when credentials are configured; no user
// interaction is ever needed.
func (c *ClientCredentials) HasActiveSession(context.Context) bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}
