package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type authServer struct {
	srv           *httptest.Server
	deviceCalls   int32
	refreshCalls  int32
	refreshStatus int
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()
	a := &authServer{refreshStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/devicecode", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&a.deviceCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"device_code":"dc","user_code":"UC-1","verification_uri":"https://login.example/device","expires_in":600,"interval":1}`)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "refresh_token":
			atomic.AddInt32(&a.refreshCalls, 1)
			if a.refreshStatus != http.StatusOK {
				w.WriteHeader(a.refreshStatus)
				_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"refreshed","token_type":"Bearer","refresh_token":"rt2","expires_in":3600}`)
		case "urn:ietf:params:oauth:grant-type:device_code":
			assert.Equal(t, "dc", r.Form.Get("device_code"))
			_, _ = io.WriteString(w, `{"access_token":"interactive","token_type":"Bearer","refresh_token":"rt1","expires_in":3600}`)
		case "client_credentials":
			assert.Equal(t, "secret", r.Form.Get("client_secret"))
			_, _ = io.WriteString(w, `{"access_token":"app","token_type":"Bearer","expires_in":3600}`)
		default:
			t.Errorf("unexpected grant %q", r.Form.Get("grant_type"))
		}
	})
	a.srv = httptest.NewServer(mux)
	t.Cleanup(a.srv.Close)
	return a
}

func (a *authServer) endpoint() *oauth2.Endpoint {
	return &oauth2.Endpoint{
		DeviceAuthURL: a.srv.URL + "/devicecode",
		TokenURL:      a.srv.URL + "/token",
	}
}

func TestDeviceFlow_InteractiveLoginPersistsToken(t *testing.T) {
	a := newAuthServer(t)
	store := newMemStore()
	var shownCode string
	prompt := func(_ context.Context, uri, code string) error {
		shownCode = code
		return nil
	}
	d := NewDeviceFlow(DeviceFlowConfig{ClientID: "app", Endpoint: a.endpoint()}, store, prompt, testLogger())

	ctx := context.Background()
	assert.False(t, d.HasActiveSession(ctx))

	tok, err := d.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "interactive", tok)
	assert.Equal(t, "UC-1", shownCode)
	assert.True(t, d.HasActiveSession(ctx))

	var saved oauth2.Token
	require.NoError(t, json.Unmarshal(store.data[TokenKey], &saved))
	assert.Equal(t, "rt1", saved.RefreshToken)

	tok, err = d.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "interactive", tok, "cached token is reused")
	assert.Equal(t, int32(1), atomic.LoadInt32(&a.deviceCalls))
}

func expiredToken(t *testing.T, store *memStore) {
	t.Helper()
	data, err := json.Marshal(&oauth2.Token{
		AccessToken:  "old",
		RefreshToken: "rt0",
		Expiry:       time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	store.data[TokenKey] = data
}

func TestDeviceFlow_RefreshesSilently(t *testing.T) {
	a := newAuthServer(t)
	store := newMemStore()
	expiredToken(t, store)

	prompt := func(context.Context, string, string) error {
		t.Error("prompt must not be shown when refresh succeeds")
		return nil
	}
	d := NewDeviceFlow(DeviceFlowConfig{ClientID: "app", Endpoint: a.endpoint()}, store, prompt, testLogger())

	assert.True(t, d.HasActiveSession(context.Background()))
	tok, err := d.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&a.refreshCalls))
	assert.Zero(t, atomic.LoadInt32(&a.deviceCalls))
}

func TestDeviceFlow_FallsBackToInteractiveWhenRefreshFails(t *testing.T) {
	a := newAuthServer(t)
	a.refreshStatus = http.StatusBadRequest
	store := newMemStore()
	expiredToken(t, store)

	prompted := false
	prompt := func(context.Context, string, string) error {
		prompted = true
		return nil
	}
	d := NewDeviceFlow(DeviceFlowConfig{ClientID: "app", Endpoint: a.endpoint()}, store, prompt, testLogger())

	tok, err := d.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "interactive", tok)
	assert.True(t, prompted)
}

func TestDeviceFlow_NoPromptNoToken(t *testing.T) {
	d := NewDeviceFlow(DeviceFlowConfig{ClientID: "app"}, nil, nil, testLogger())
	_, err := d.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestDeviceFlow_Forget(t *testing.T) {
	store := newMemStore()
	expiredToken(t, store)
	d := NewDeviceFlow(DeviceFlowConfig{ClientID: "app"}, store, nil, testLogger())
	require.True(t, d.HasActiveSession(context.Background()))

	require.NoError(t, d.Forget(context.Background()))
	assert.False(t, d.HasActiveSession(context.Background()))
	assert.NotContains(t, store.data, TokenKey)
}

func TestClientCredentials(t *testing.T) {
	a := newAuthServer(t)
	ctx := context.Background()
	c := NewClientCredentials(ctx, ClientCredentialsConfig{ClientID: "app", ClientSecret: "secret", TokenURL: a.srv.URL + "/token"})
	assert.True(t, c.HasActiveSession(ctx))

	tok, err := c.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "app", tok)

	assert.False(t, NewClientCredentials(ctx, ClientCredentialsConfig{ClientID: "app"}).HasActiveSession(ctx))
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	tok, err := NewStatic(" abc ").Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = NewStatic("").Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, NewStatic("").HasActiveSession(ctx))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	assert.True(t, exp.Equal(TokenExpiry(signed)))
	assert.True(t, TokenExpiry("opaque").IsZero())
}
