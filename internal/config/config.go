package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
)

const (
	BackendGraph     = "graph"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"

	IdentityDevice            = "device"
	IdentityClientCredentials = "client_credentials"
	IdentityStatic            = "static"
)

// Export holds the S3 snapshot export settings. Export is off while Bucket
// is empty.
type Export struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Fallback is the offline login. PasswordHash is a bcrypt hash.
type Fallback struct {
	Enabled      bool
	Login        string
	PasswordHash string
}

type Config struct {
	Backend         string
	GraphBaseURL    string
	GraphMaxRetries int
	Collections     map[models.Kind]remote.CollectionRef

	FirestoreProject     string
	FirestoreCredentials string

	Identity     string
	TenantID     string
	ClientID     string
	ClientSecret string
	StaticToken  string

	StorageDSN string
	Fallback   Fallback

	SyncInterval time.Duration
	SyncTimeout  time.Duration

	GRPCAddr     string
	GRPCAPIToken string
	MetricsAddr  string

	Export Export

	LogLevel  string
	LogFormat string
}

// LoadDefaults sets a Graph backend with device-code login, a local SQLite
// session store and a five minute sync interval.
func (c *Config) LoadDefaults() {
	c.Backend = BackendGraph
	c.GraphBaseURL = remote.DefaultGraphBaseURL
	c.Collections = make(map[models.Kind]remote.CollectionRef, len(models.Kinds))
	for _, k := range models.Kinds {
		c.Collections[k] = remote.CollectionRef{List: string(k)}
	}
	c.Identity = IdentityDevice
	c.TenantID = "common"
	c.StorageDSN = "sqlite://cargotrack.db"
	c.SyncInterval = 5 * time.Minute
	c.GRPCAddr = "127.0.0.1:50061"
	c.MetricsAddr = "127.0.0.1:9464"
	c.Export.Prefix = "snapshots"
	c.Export.Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig applies defaults, the environment, the JSON file and flags in
// that order. Malformed input panics.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendGraph, BackendMemory:
	case BackendFirestore:
		if c.FirestoreProject == "" {
			errs = append(errs, errors.New("firestore backend requires a project id"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	switch c.Identity {
	case IdentityDevice:
		if c.Backend == BackendGraph && c.ClientID == "" {
			errs = append(errs, errors.New("device login requires a client id"))
		}
	case IdentityClientCredentials:
		if c.ClientID == "" || c.ClientSecret == "" {
			errs = append(errs, errors.New("client credentials require a client id and secret"))
		}
	case IdentityStatic:
	default:
		errs = append(errs, fmt.Errorf("unknown identity mode %q", c.Identity))
	}

	if c.Fallback.Enabled && (c.Fallback.Login == "" || c.Fallback.PasswordHash == "") {
		errs = append(errs, errors.New("fallback login requires a login and a password hash"))
	}
	if c.SyncInterval <= 0 {
		errs = append(errs, errors.New("sync interval must be positive"))
	}
	if c.SyncTimeout < 0 {
		errs = append(errs, errors.New("sync timeout must not be negative"))
	}
	return errors.Join(errs...)
}
