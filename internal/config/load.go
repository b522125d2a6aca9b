package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/ulogger"
)

const (
	DefaultConfigFilePath = "btminer.yaml"
	DefaultEnvPrefix      = "BTMINER"
)

// Load reads the configuration: defaults first, then the config file if present, then the environment
type Load struct {
	cfg            Config
	envPrefix      string
	configFilePath string
	viper          *viper.Viper
	logger         ulogger.Logger
}

func NewLoader(logger ulogger.Logger, envPrefix string) *Load {
	return &Load{
		cfg:            DefaultConfig(),
		envPrefix:      envPrefix,
		configFilePath: DefaultConfigFilePath,
		viper:          viper.New(),
		logger:         logger,
	}
}

func (l *Load) SetConfigFilePath(path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext != "yaml" && ext != "yml" && ext != "json" {
		return errors.NewConfigurationError("unsupported config file extension: %s", ext)
	}

	l.configFilePath = path

	return nil
}

func (l *Load) Load() (Config, error) {
	if err := l.setViperDefaults(); err != nil {
		return l.cfg, err
	}

	l.prepareViper()

	if err := l.loadFromFile(); err != nil {
		return l.cfg, err
	}

	if err := l.viper.Unmarshal(&l.cfg); err != nil {
		return l.cfg, errors.NewConfigurationError("error unmarshalling config", err)
	}

	return l.cfg, nil
}

// Set overrides a key over the file and the environment; call it before Load. Used for command line flags.
func (l *Load) Set(key string, value any) {
	l.viper.Set(key, value)
}

func (l *Load) setViperDefaults() error {
	defaultsMap := map[string]any{}
	if err := mapstructure.Decode(DefaultConfig(), &defaultsMap); err != nil {
		return errors.NewConfigurationError("error while setting defaults", err)
	}

	// nested sections are set key by key so that every leaf is known to AutomaticEnv
	setDefaults(l.viper, "", defaultsMap)

	return nil
}

func setDefaults(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		if prefix != "" {
			key = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}

		v.SetDefault(key, value)
	}
}

func (l *Load) prepareViper() {
	l.viper.SetEnvPrefix(l.envPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()
}

func (l *Load) loadFromFile() error {
	if _, err := os.Stat(l.configFilePath); os.IsNotExist(err) {
		l.logger.Warnf("Config file not found at %s, using defaults", l.configFilePath)
		return nil
	}

	l.viper.SetConfigFile(l.configFilePath)

	if err := l.viper.ReadInConfig(); err != nil {
		return errors.NewConfigurationError("error reading config file %s", l.configFilePath, err)
	}

	l.logger.Infof("Loaded config from file: %s", l.configFilePath)

	return nil
}
