package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"backend":       "memory",
		"sync_interval": "10s",
		"sync_timeout":  0,
		"collections": map[string]any{
			"trucks": map[string]any{"site": "contoso.sharepoint.com:/sites/Fleet", "list": "6d0e876c"},
		},
		"fallback": map[string]any{"enabled": true, "login": "admin", "password_hash": "$2a$10$x"},
		"export":   map[string]any{"bucket": "snapshots", "path_style": true},
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		cfg.SyncTimeout = time.Minute
		parseJson(cfg)

		assert.Equal(t, BackendMemory, cfg.Backend)
		assert.Equal(t, 10*time.Second, cfg.SyncInterval)
		assert.Zero(t, cfg.SyncTimeout, "explicit zero overrides")
		assert.Equal(t, remote.CollectionRef{Site: "contoso.sharepoint.com:/sites/Fleet", List: "6d0e876c"}, cfg.Collections[models.KindTruck])
		assert.Equal(t, remote.CollectionRef{List: "loads"}, cfg.Collections[models.KindLoad])
		assert.Equal(t, Fallback{Enabled: true, Login: "admin", PasswordHash: "$2a$10$x"}, cfg.Fallback)
		assert.Equal(t, "snapshots", cfg.Export.Bucket)
		assert.True(t, cfg.Export.PathStyle)
		assert.Equal(t, "us-east-1", cfg.Export.Region, "absent keys keep defaults")
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{GRPCAddr: "defaults:1234", SyncInterval: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.GRPCAddr)
		assert.Equal(t, 42*time.Second, cfg.SyncInterval)
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("invalid duration → panics", func(t *testing.T) {
		bad := writeTempJSON(t, dir, "dur.json", map[string]any{"sync_interval": "often"})
		os.Args = []string{"testbin", "-c", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
