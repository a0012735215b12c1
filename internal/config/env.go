package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/flagx"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
	"github.com/joho/godotenv"
)

const envPrefix = "CARGOTRACK_"

type binding struct {
	key string
	set func(string) error
}

// parseEnv loads the dotenv file named by -env, or ./.env when it exists,
// and overlays every CARGOTRACK_* variable that is set. Variables already
// present in the process environment win over the file.
func parseEnv(cfg *Config) {
	file := flagx.EnvFileFlag()
	if file != "" {
		if err := godotenv.Load(file); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	for _, b := range bindings(cfg) {
		v, ok := os.LookupEnv(envPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(strings.TrimSpace(v)); err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, b.key, err))
		}
	}
}

func bindings(cfg *Config) []binding {
	bs := []binding{
		{"BACKEND", str(&cfg.Backend)},
		{"GRAPH_BASE_URL", str(&cfg.GraphBaseURL)},
		{"GRAPH_MAX_RETRIES", integer(&cfg.GraphMaxRetries)},
		{"FIRESTORE_PROJECT", str(&cfg.FirestoreProject)},
		{"FIRESTORE_CREDENTIALS", str(&cfg.FirestoreCredentials)},
		{"IDENTITY", str(&cfg.Identity)},
		{"TENANT_ID", str(&cfg.TenantID)},
		{"CLIENT_ID", str(&cfg.ClientID)},
		{"CLIENT_SECRET", str(&cfg.ClientSecret)},
		{"TOKEN", str(&cfg.StaticToken)},
		{"STORAGE_DSN", str(&cfg.StorageDSN)},
		{"FALLBACK_ENABLED", boolean(&cfg.Fallback.Enabled)},
		{"FALLBACK_LOGIN", str(&cfg.Fallback.Login)},
		{"FALLBACK_PASSWORD_HASH", str(&cfg.Fallback.PasswordHash)},
		{"SYNC_INTERVAL", duration(&cfg.SyncInterval)},
		{"SYNC_TIMEOUT", duration(&cfg.SyncTimeout)},
		{"GRPC_ADDR", str(&cfg.GRPCAddr)},
		{"GRPC_API_TOKEN", str(&cfg.GRPCAPIToken)},
		{"METRICS_ADDR", str(&cfg.MetricsAddr)},
		{"EXPORT_BUCKET", str(&cfg.Export.Bucket)},
		{"EXPORT_PREFIX", str(&cfg.Export.Prefix)},
		{"EXPORT_REGION", str(&cfg.Export.Region)},
		{"EXPORT_ENDPOINT", str(&cfg.Export.Endpoint)},
		{"EXPORT_ACCESS_KEY_ID", str(&cfg.Export.AccessKeyID)},
		{"EXPORT_SECRET_ACCESS_KEY", str(&cfg.Export.SecretAccessKey)},
		{"EXPORT_PATH_STYLE", boolean(&cfg.Export.PathStyle)},
		{"LOG_LEVEL", str(&cfg.LogLevel)},
		{"LOG_FORMAT", str(&cfg.LogFormat)},
	}
	for _, k := range models.Kinds {
		name := strings.ToUpper(string(k))
		bs = append(bs,
			binding{name + "_SITE", collection(cfg, k, func(r *remote.CollectionRef, v string) { r.Site = v })},
			binding{name + "_LIST", collection(cfg, k, func(r *remote.CollectionRef, v string) { r.List = v })},
		)
	}
	return bs
}

func str(p *string) func(string) error {
	return func(v string) error {
		*p = v
		return nil
	}
}

func integer(p *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*p = n
		return nil
	}
}

func boolean(p *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*p = b
		return nil
	}
}

// duration accepts time.ParseDuration syntax or a bare number of seconds.
func duration(p *time.Duration) func(string) error {
	return func(v string) error {
		if d, err := time.ParseDuration(v); err == nil {
			*p = d
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		*p = time.Duration(n) * time.Second
		return nil
	}
}

func collection(cfg *Config, kind models.Kind, set func(*remote.CollectionRef, string)) func(string) error {
	return func(v string) error {
		if cfg.Collections == nil {
			cfg.Collections = make(map[models.Kind]remote.CollectionRef)
		}
		ref := cfg.Collections[kind]
		set(&ref, v)
		cfg.Collections[kind] = ref
		return nil
	}
}
