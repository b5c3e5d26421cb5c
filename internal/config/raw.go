package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts either a Go duration string ("3s", "1m30s") or a bare
// integer number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	if value.Tag == "!!int" {
		var secs int
		if err := value.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type RawLogConfig struct {
	File      *string `yaml:"file"`
	Level     *string `yaml:"level"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

// RawConfig mirrors Config with every field optional so that a partial file
// only overrides what it names.
type RawConfig struct {
	Picker              *string           `yaml:"picker"`
	PickerPrompt        *string           `yaml:"picker_prompt"`
	PickerFuzzyMatching *bool             `yaml:"picker_fuzzy_matching"`
	PickerTimeout       *Duration         `yaml:"picker_timeout"`
	SpecialWorkspace    *string           `yaml:"special_workspace"`
	CommandTimeout      *Duration         `yaml:"command_timeout"`
	RestoreTo           *RestoreTarget    `yaml:"restore_to"`
	IgnoreClasses       []string          `yaml:"ignore_classes"`
	Icons               map[string]string `yaml:"icons"`
	Log                 *RawLogConfig     `yaml:"log"`
}

// BuildEffectiveConfig overlays raw onto the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Picker != nil {
		cfg.Picker = *raw.Picker
	}
	if raw.PickerPrompt != nil {
		cfg.PickerPrompt = *raw.PickerPrompt
	}
	if raw.PickerFuzzyMatching != nil {
		cfg.PickerFuzzyMatching = *raw.PickerFuzzyMatching
	}
	if raw.PickerTimeout != nil {
		cfg.PickerTimeout = time.Duration(*raw.PickerTimeout)
	}
	if raw.SpecialWorkspace != nil {
		cfg.SpecialWorkspace = *raw.SpecialWorkspace
	}
	if raw.CommandTimeout != nil {
		cfg.CommandTimeout = time.Duration(*raw.CommandTimeout)
	}
	if raw.RestoreTo != nil {
		cfg.RestoreTo = *raw.RestoreTo
	}
	if raw.IgnoreClasses != nil {
		cfg.IgnoreClasses = append([]string(nil), raw.IgnoreClasses...)
	}
	if raw.Icons != nil {
		// Icons merge over the defaults; users usually add a class or two.
		for k, v := range raw.Icons {
			cfg.Icons[k] = v
		}
	}
	if raw.Log != nil {
		if raw.Log.File != nil {
			cfg.Log.File = *raw.Log.File
		}
		if raw.Log.Level != nil {
			cfg.Log.Level = *raw.Log.Level
		}
		if raw.Log.MaxSizeMB != nil {
			cfg.Log.MaxSizeMB = *raw.Log.MaxSizeMB
		}
		if raw.Log.MaxFiles != nil {
			cfg.Log.MaxFiles = *raw.Log.MaxFiles
		}
	}

	return cfg
}
