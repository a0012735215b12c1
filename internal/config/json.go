package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cargotrack/internal/flagx"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
	"github.com/dmitrijs2005/cargotrack/internal/timex"
)

type JsonCollection struct {
	Site string `json:"site"`
	List string `json:"list"`
}

type JsonExport struct {
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	PathStyle       *bool  `json:"path_style"`
}

type JsonFallback struct {
	Enabled      *bool  `json:"enabled"`
	Login        string `json:"login"`
	PasswordHash string `json:"password_hash"`
}

// JsonConfig is the on-disk shape of Config. Intervals use timex.Duration.
type JsonConfig struct {
	Backend              string                         `json:"backend"`
	GraphBaseURL         string                         `json:"graph_base_url"`
	GraphMaxRetries      *int                           `json:"graph_max_retries"`
	Collections          map[models.Kind]JsonCollection `json:"collections"`
	FirestoreProject     string                         `json:"firestore_project"`
	FirestoreCredentials string                         `json:"firestore_credentials"`
	Identity             string                         `json:"identity"`
	TenantID             string                         `json:"tenant_id"`
	ClientID             string                         `json:"client_id"`
	ClientSecret         string                         `json:"client_secret"`
	StaticToken          string                         `json:"token"`
	StorageDSN           string                         `json:"storage_dsn"`
	Fallback             JsonFallback                   `json:"fallback"`
	SyncInterval         *timex.Duration                `json:"sync_interval"`
	SyncTimeout          *timex.Duration                `json:"sync_timeout"`
	GRPCAddr             string                         `json:"grpc_addr"`
	GRPCAPIToken         string                         `json:"grpc_api_token"`
	MetricsAddr          string                         `json:"metrics_addr"`
	Export               JsonExport                     `json:"export"`
	LogLevel             string                         `json:"log_level"`
	LogFormat            string                         `json:"log_format"`
}

// parseJson overlays cfg with the file named by -c or -config. Nothing is
// loaded when neither flag is given. Read and decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.GraphBaseURL, jc.GraphBaseURL)
	if jc.GraphMaxRetries != nil {
		cfg.GraphMaxRetries = *jc.GraphMaxRetries
	}
	for kind, c := range jc.Collections {
		if cfg.Collections == nil {
			cfg.Collections = make(map[models.Kind]remote.CollectionRef)
		}
		ref := cfg.Collections[kind]
		setString(&ref.Site, c.Site)
		setString(&ref.List, c.List)
		cfg.Collections[kind] = ref
	}
	setString(&cfg.FirestoreProject, jc.FirestoreProject)
	setString(&cfg.FirestoreCredentials, jc.FirestoreCredentials)
	setString(&cfg.Identity, jc.Identity)
	setString(&cfg.TenantID, jc.TenantID)
	setString(&cfg.ClientID, jc.ClientID)
	setString(&cfg.ClientSecret, jc.ClientSecret)
	setString(&cfg.StaticToken, jc.StaticToken)
	setString(&cfg.StorageDSN, jc.StorageDSN)

	if jc.Fallback.Enabled != nil {
		cfg.Fallback.Enabled = *jc.Fallback.Enabled
	}
	setString(&cfg.Fallback.Login, jc.Fallback.Login)
	setString(&cfg.Fallback.PasswordHash, jc.Fallback.PasswordHash)

	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.SyncTimeout != nil {
		cfg.SyncTimeout = jc.SyncTimeout.Duration
	}
	setString(&cfg.GRPCAddr, jc.GRPCAddr)
	setString(&cfg.GRPCAPIToken, jc.GRPCAPIToken)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)

	setString(&cfg.Export.Bucket, jc.Export.Bucket)
	setString(&cfg.Export.Prefix, jc.Export.Prefix)
	setString(&cfg.Export.Region, jc.Export.Region)
	setString(&cfg.Export.Endpoint, jc.Export.Endpoint)
	setString(&cfg.Export.AccessKeyID, jc.Export.AccessKeyID)
	setString(&cfg.Export.SecretAccessKey, jc.Export.SecretAccessKey)
	if jc.Export.PathStyle != nil {
		cfg.Export.PathStyle = *jc.Export.PathStyle
	}

	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
