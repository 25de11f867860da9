package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/ogsm/internal/export"
	"github.com/mesh-intelligence/ogsm/internal/paths"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "OGSM"
)

const configHeader = "# ogsm configuration\n" +
	"# Every key can be overridden with an OGSM_ environment variable,\n" +
	"# for example OGSM_STORE_DRIVER or OGSM_LATENCY.\n\n"

// defaultConfig is what a fresh config.yaml contains.
func defaultConfig() types.Config {
	return types.Config{
		Store:   types.StoreConfig{Driver: types.DriverSQLite},
		Latency: types.DefaultLatency,
		Log:     types.LogConfig{Level: "info"},
		Export:  types.ExportConfig{Sink: types.SinkFS, Format: export.FormatJSON},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultConfig()
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.data_dir", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.quota_bytes", 0)
	v.SetDefault("latency", d.Latency)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", false)
	v.SetDefault("export.sink", d.Export.Sink)
	v.SetDefault("export.dir", "")
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.region", "")
	v.SetDefault("export.endpoint", "")
	v.SetDefault("export.format", d.Export.Format)
}

// applyFlags layers global flag values over cfg.
func (f *rootFlags) applyFlags(cfg *types.Config) {
	if f.driver != "" {
		cfg.Store.Driver = f.driver
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.latency >= 0 {
		cfg.Latency = f.latency
	}
}

// loadConfig reads config.yaml from the resolved config directory, writing a
// default one on first run, then applies environment and flag overrides and
// resolves the data directory. A missing config.yaml is not an error.
func loadConfig(f *rootFlags) (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return types.Config{}, sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := writeConfigIfMissing(configDir, defaultConfig()); err != nil {
		return types.Config{}, sysErr(err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, userErr(fmt.Errorf("read config: %w", err))
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, userErr(fmt.Errorf("decode config: %w", err))
	}
	f.applyFlags(&cfg)

	dataDir, err := paths.ResolveDataDir(f.dataDir, cfg.Store.DataDir)
	if err != nil {
		return types.Config{}, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.Store.DataDir = dataDir
	if cfg.Export.Sink == types.SinkFS && cfg.Export.Dir == "" {
		cfg.Export.Dir = filepath.Join(dataDir, "exports")
	}

	if err := cfg.Validate(); err != nil {
		return types.Config{}, userErr(fmt.Errorf("invalid config: %w", err))
	}
	return cfg, nil
}

// writeConfigIfMissing creates configDir and a config.yaml holding cfg. An
// existing file is left alone.
func writeConfigIfMissing(configDir string, cfg types.Config) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), body...), 0o644)
}
