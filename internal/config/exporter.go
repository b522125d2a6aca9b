package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/yourusername/btminer/internal/errors"
	"gopkg.in/yaml.v3"
)

// ToYAML writes the loaded configuration with the same keys Load reads
func (l *Load) ToYAML(filePath string) error {
	data, err := l.YAML()
	if err != nil {
		return err
	}

	if err = os.WriteFile(filePath, data, 0o644); err != nil {
		return errors.NewConfigurationError("failed to write %s", filePath, err)
	}

	l.logger.Infof("YAML config exported to: %s", filePath)

	return nil
}

func (l *Load) YAML() ([]byte, error) {
	data, err := l.toMap()
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(data)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to encode config", err)
	}

	return out, nil
}

// ToEnv writes the configuration as PREFIX_SECTION_KEY=value lines, sorted
func (l *Load) ToEnv(filePath string) error {
	data, err := l.toMap()
	if err != nil {
		return err
	}

	flattened := map[string]string{}
	flattenConfig(l.envPrefix, flattened, data)

	keys := make([]string, 0, len(flattened))
	for key := range flattened {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key + "=" + flattened[key] + "\n")
	}

	if err = os.WriteFile(filePath, []byte(sb.String()), 0o644); err != nil {
		return errors.NewConfigurationError("failed to write %s", filePath, err)
	}

	l.logger.Infof("ENV config exported to: %s", filePath)

	return nil
}

func (l *Load) toMap() (map[string]any, error) {
	data := map[string]any{}
	if err := mapstructure.Decode(l.cfg, &data); err != nil {
		return nil, errors.NewConfigurationError("failed to encode config", err)
	}

	return data, nil
}

func flattenConfig(prefix string, out map[string]string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for key, value := range t {
			flattenConfig(strings.ToUpper(strings.TrimPrefix(prefix+"_"+key, "_")), out, value)
		}
	case []string:
		out[prefix] = strings.Join(t, ",")
	default:
		out[prefix] = fmt.Sprint(t)
	}
}
