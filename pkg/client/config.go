package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/itemdex/pkg/store"
	"github.com/mesh-intelligence/itemdex/pkg/store/boltdb"
	"github.com/mesh-intelligence/itemdex/pkg/store/jsonfile"
	"github.com/mesh-intelligence/itemdex/pkg/store/multi"
	"github.com/mesh-intelligence/itemdex/pkg/store/sqldb"
)

// Environment variables consulted when no explicit configuration is
// given.
const (
	EnvConfig  = "ITEMDEX_CONFIG"
	EnvBackend = "ITEMDEX_BACKEND"
)

// Supported store variant names.
const (
	BackendJSON   = "jsonfile"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Configuration keys.
const (
	cfgKeyBackend = "backend"
	cfgKeyPath    = "path"
	cfgKeyStores  = "stores"
)

// StoreConfig describes one store in a configuration file.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// FromConfig builds a client from a YAML configuration file. The file is
// the given path, or $ITEMDEX_CONFIG, or itemdex.yaml / .itemdex.yaml in
// the working directory, or config.yaml under the user config directory
// for itemdex, whichever is found first.
//
// A configuration with a stores list composes them (several stores become
// a fan-out store with the first as the default for new keys). Without a
// stores list, a single store is built from the top-level backend and
// path keys. $ITEMDEX_BACKEND overrides the backend selection; absent any
// signal the jsonfile store is the default.
func FromConfig(path string, opts ...Option) (*Client, error) {
	if path == "" {
		var err error
		path, err = FindConfig()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfgDir := filepath.Dir(path)

	var cfgs []StoreConfig
	if err := v.UnmarshalKey(cfgKeyStores, &cfgs); err != nil {
		return nil, fmt.Errorf("parsing stores in %s: %w", path, err)
	}
	if len(cfgs) == 0 {
		cfgs = []StoreConfig{{
			Backend: v.GetString(cfgKeyBackend),
			Path:    v.GetString(cfgKeyPath),
		}}
	}

	stores := make([]store.Store, 0, len(cfgs))
	for _, sc := range cfgs {
		s, err := buildStore(sc, cfgDir)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}

	if len(stores) == 1 {
		return New(stores[0], opts...), nil
	}
	fan, err := multi.New(stores)
	if err != nil {
		return nil, err
	}
	return New(fan, opts...), nil
}

// FindConfig locates a configuration file by the documented search order.
func FindConfig() (string, error) {
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}
	candidates := []string{"itemdex.yaml", ".itemdex.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "itemdex", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no itemdex configuration file found; set %s", EnvConfig)
}

// buildStore constructs one store variant. Relative paths resolve against
// the configuration file's directory. The backend defaults through
// $ITEMDEX_BACKEND to jsonfile.
func buildStore(sc StoreConfig, cfgDir string) (store.Store, error) {
	backend := sc.Backend
	if backend == "" {
		backend = os.Getenv(EnvBackend)
	}
	if backend == "" {
		backend = BackendJSON
	}
	path := sc.Path
	if path == "" {
		return nil, fmt.Errorf("store %q declares no path", backend)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfgDir, path)
	}
	switch backend {
	case BackendJSON, "json":
		return jsonfile.New(path), nil
	case BackendSQLite:
		return sqldb.Open(path)
	case BackendBolt:
		return boltdb.Open(path)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
