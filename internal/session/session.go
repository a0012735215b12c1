// Package session holds the current user and persists it between runs.
//
// Two local login paths exist. The fallback credential is an operability
// path for offline administration: it is disabled unless configured and is
// not a security boundary. Ingested users can also log in with the password
// stored in the remote user list.
package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	CurrentUserKey = "current_user"
	LocalAdminID   = "local-admin"
)

type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Fallback is the config-gated offline admin credential. PasswordHash is a
// bcrypt hash.
type Fallback struct {
	Enabled      bool
	Login        string
	PasswordHash string
}

type Manager struct {
	storage  Storage
	fallback Fallback
	logger   logging.Logger

	mu      sync.RWMutex
	current *models.User
}

func NewManager(storage Storage, fallback Fallback, logger logging.Logger) *Manager {
	return &Manager{
		storage:  storage,
		fallback: fallback,
		logger:   logger.With("module", "session"),
	}
}

// Current returns a copy of the session user, or nil.
func (m *Manager) Current() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	u := *m.current
	return &u
}

// Set replaces the session user and persists it without its password. A
// nil user clears the session.
func (m *Manager) Set(ctx context.Context, u *models.User) error {
	var cp *models.User
	if u != nil {
		c := *u
		c.SiteID = ident.Normalize(c.SiteID)
		c.Password = ""
		cp = &c
	}

	m.mu.Lock()
	m.current = cp
	m.mu.Unlock()

	if m.storage == nil {
		return nil
	}
	if cp == nil {
		if err := m.storage.Delete(ctx, CurrentUserKey); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.storage.Set(ctx, CurrentUserKey, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Restore loads the persisted session user, if any.
func (m *Manager) Restore(ctx context.Context) (*models.User, error) {
	if m.storage == nil {
		return m.Current(), nil
	}
	data, err := m.storage.Get(ctx, CurrentUserKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		m.logger.Warn(ctx, "discarding unreadable session", "error", err)
		return nil, nil
	}

	m.mu.Lock()
	m.current = &u
	m.mu.Unlock()
	return m.Current(), nil
}

// LoginLocal checks the fallback credential first, then the given users.
// Users without a stored password never match. A successful login becomes
// the session. Bad credentials are reported as
// (false, nil).
func (m *Manager) LoginLocal(ctx context.Context, login, password string, users []models.User) (bool, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return false, nil
	}

	if u, ok := m.checkFallback(login, password); ok {
		m.logger.Info(ctx, "fallback administrator logged in")
		return true, m.Set(ctx, u)
	}

	for i := range users {
		u := users[i]
		if u.Password == "" || !strings.EqualFold(ident.Normalize(u.Login), login) {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
			continue
		}
		return true, m.Set(ctx, &u)
	}
	return false, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	return m.Set(ctx, nil)
}

func (m *Manager) checkFallback(login, password string) (*models.User, bool) {
	f := m.fallback
	if !f.Enabled || f.Login == "" || f.PasswordHash == "" {
		return nil, false
	}
	if !strings.EqualFold(strings.TrimSpace(f.Login), login) {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(f.PasswordHash), []byte(password)) != nil {
		return nil, false
	}
	return &models.User{
		ID:          LocalAdminID,
		FullName:    "Local administrator",
		Login:       f.Login,
		AccessLevel: models.AccessAdmin,
	}, true
}
