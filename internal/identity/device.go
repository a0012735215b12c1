package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// TokenKey is the storage key of the cached device-flow token.
const TokenKey = "identity_token"

// DefaultScopes are requested by DeviceFlow when none are configured.
var DefaultScopes = []string{
	"https://graph.microsoft.com/Sites.ReadWrite.All",
	"https://graph.microsoft.com/User.Read",
	"offline_access",
}

const expirySkew = 30 * time.Second

// Prompt shows the device-code instructions to the user.
type Prompt func(ctx context.Context, verificationURI, userCode string) error

type DeviceFlowConfig struct {
	TenantID string
	ClientID string
	Scopes   []string
	// Endpoint overrides the Azure AD endpoint derived from TenantID.
	Endpoint *oauth2.Endpoint
}

// DeviceFlow acquires tokens with the OAuth2 device authorization grant.
// It returns the cached token while valid, refreshes silently when it is
// not, and falls back to interactive login when refresh fails.
type DeviceFlow struct {
	cfg    *oauth2.Config
	store  Store
	prompt Prompt
	logger logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

func NewDeviceFlow(c DeviceFlowConfig, store Store, prompt Prompt, logger logging.Logger) *DeviceFlow {
	endpoint := microsoft.AzureADEndpoint(c.TenantID)
	if c.Endpoint != nil {
		endpoint = *c.Endpoint
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &DeviceFlow{
		cfg: &oauth2.Config{
			ClientID: c.ClientID,
			Endpoint: endpoint,
			Scopes:   scopes,
		},
		store:  store,
		prompt: prompt,
		logger: logger.With("module", "identity"),
		now:    time.Now,
	}
}

func (d *DeviceFlow) Token(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tok := d.cached(ctx)
	if tok != nil && d.valid(tok) {
		return tok.AccessToken, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		fresh, err := d.cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			d.remember(ctx, fresh)
			return fresh.AccessToken, nil
		}
		d.logger.Warn(ctx, "token refresh failed, falling back to interactive login", "error", err)
	}

	fresh, err := d.interactive(ctx)
	if err != nil {
		return "", err
	}
	d.remember(ctx, fresh)
	return fresh.AccessToken, nil
}

func (d *DeviceFlow) HasActiveSession(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	tok := d.cached(ctx)
	return tok != nil && (d.valid(tok) || tok.RefreshToken != "")
}

// Forget drops the cached token, in memory and in the store.
func (d *DeviceFlow) Forget(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token = nil
	if d.store == nil {
		return nil
	}
	return d.store.Delete(ctx, TokenKey)
}

func (d *DeviceFlow) interactive(ctx context.Context) (*oauth2.Token, error) {
	if d.prompt == nil {
		return nil, fmt.Errorf("%w: interactive login unavailable", ErrNoToken)
	}
	resp, err := d.cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}
	uri := resp.VerificationURIComplete
	if uri == "" {
		uri = resp.VerificationURI
	}
	if err := d.prompt(ctx, uri, resp.UserCode); err != nil {
		return nil, err
	}
	tok, err := d.cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device access token: %w", err)
	}
	return tok, nil
}

func (d *DeviceFlow) valid(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return false
	}
	exp := tok.Expiry
	if exp.IsZero() {
		exp = TokenExpiry(tok.AccessToken)
	}
	if exp.IsZero() {
		return true
	}
	return d.now().Add(expirySkew).Before(exp)
}

func (d *DeviceFlow) cached(ctx context.Context) *oauth2.Token {
	if d.token != nil || d.store == nil {
		return d.token
	}
	data, err := d.store.Get(ctx, TokenKey)
	if err != nil {
		d.logger.Warn(ctx, "failed to read cached token", "error", err)
		return nil
	}
	if data == nil {
		return nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		d.logger.Warn(ctx, "discarding unreadable cached token", "error", err)
		return nil
	}
	d.token = &tok
	return d.token
}

func (d *DeviceFlow) remember(ctx context.Context, tok *oauth2.Token) {
	if tok.Expiry.IsZero() {
		tok.Expiry = TokenExpiry(tok.AccessToken)
	}
	d.token = tok
	if d.store == nil {
		return
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := d.store.Set(ctx, TokenKey, data); err != nil {
		d.logger.Warn(ctx, "failed to persist token", "error", err)
	}
}
