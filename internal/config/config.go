package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// RestoreTarget selects where a restored window is placed.
type RestoreTarget string

const (
	RestoreToOriginal RestoreTarget = "original" // Original workspace when it still resolves, else active.
	RestoreToActive   RestoreTarget = "active"   // Always the workspace the user is looking at.
)

const (
	DefaultSpecialWorkspace = "minimum"
	DefaultPickerPrompt     = "Restore window:"
	DefaultCommandTimeout   = 3 * time.Second
	DefaultPickerTimeout    = 2 * time.Minute
	DefaultLogMaxSizeMB     = 1
	DefaultLogMaxFiles      = 2
)

// LogConfig configures the diagnostics log.
type LogConfig struct {
	// File is the log path (default: <runtime>/omaveil/omaveil.log)
	File string `yaml:"file,omitempty"`
	// Level controls stderr verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// MaxSizeMB is the size at which the diagnostics log is rotated
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config is the effective configuration.
type Config struct {
	Picker              string            `yaml:"picker"`
	PickerPrompt        string            `yaml:"picker_prompt"`
	PickerFuzzyMatching bool              `yaml:"picker_fuzzy_matching"`
	PickerTimeout       time.Duration     `yaml:"picker_timeout"`
	SpecialWorkspace    string            `yaml:"special_workspace"`
	CommandTimeout      time.Duration     `yaml:"command_timeout"`
	RestoreTo           RestoreTarget     `yaml:"restore_to"`
	IgnoreClasses       []string          `yaml:"ignore_classes"`
	Icons               map[string]string `yaml:"icons"`
	Log                 LogConfig         `yaml:"log"`
}

// ValidationError points at the offending key.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultIcons maps lowercase class substrings to picker icons.
// The "default" key is used when nothing else matches.
func DefaultIcons() map[string]string {
	return map[string]string{
		"firefox":   "\uf269",
		"alacritty": "\uf120",
		"discord":   "\U000f066f",
		"steam":     "\uf1b6",
		"chromium":  "\uf268",
		"code":      "\U000f0a1e",
		"spotify":   "\uf1bc",
		"ghostty":   "\uf120",
		"kitty":     "\uf120",
		"default":   "\U000f05b2",
	}
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Picker:              "auto",
		PickerPrompt:        DefaultPickerPrompt,
		PickerFuzzyMatching: false,
		PickerTimeout:       DefaultPickerTimeout,
		SpecialWorkspace:    DefaultSpecialWorkspace,
		CommandTimeout:      DefaultCommandTimeout,
		RestoreTo:           RestoreToOriginal,
		IgnoreClasses:       []string{"walker"},
		Icons:               DefaultIcons(),
		Log: LogConfig{
			Level:     "warn",
			MaxSizeMB: DefaultLogMaxSizeMB,
			MaxFiles:  DefaultLogMaxFiles,
		},
	}
}

// GetLoggingConfig returns the logging config with defaults filled in.
// An empty File means "use the runtime directory".
func (c *Config) GetLoggingConfig() LogConfig {
	if c == nil {
		return DefaultConfig().Log
	}
	out := c.Log
	if out.Level == "" {
		out.Level = "warn"
	}
	if out.MaxSizeMB <= 0 {
		out.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if out.MaxFiles <= 0 {
		out.MaxFiles = DefaultLogMaxFiles
	}
	if strings.HasPrefix(out.File, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			out.File = home + out.File[1:]
		}
	}
	return out
}

// IsIgnoredClass reports whether windows of this class must never be minimized.
func (c *Config) IsIgnoredClass(class string) bool {
	if c == nil {
		return false
	}
	class = strings.ToLower(strings.TrimSpace(class))
	for _, ignored := range c.IgnoreClasses {
		if strings.ToLower(strings.TrimSpace(ignored)) == class {
			return true
		}
	}
	return false
}

// IconFor returns the picker icon for a window class.
func (c *Config) IconFor(class string) string {
	icons := DefaultIcons()
	if c != nil && len(c.Icons) > 0 {
		icons = c.Icons
	}
	lower := strings.ToLower(class)
	best := ""
	for key := range icons {
		if key == "default" || key == "" {
			continue
		}
		// Longest matching key wins.
		if strings.Contains(lower, strings.ToLower(key)) && (len(key) > len(best) || (len(key) == len(best) && key < best)) {
			best = key
		}
	}
	if best != "" {
		return icons[best]
	}
	return icons["default"]
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Picker {
	case "auto", "walker", "rofi", "fuzzel", "wofi", "tofi", "dmenu", "terminal":
	default:
		return &ValidationError{Path: "picker", Err: fmt.Errorf("picker must be one of: auto, walker, rofi, fuzzel, wofi, tofi, dmenu, terminal")}
	}
	if strings.TrimSpace(c.SpecialWorkspace) == "" {
		return &ValidationError{Path: "special_workspace", Err: fmt.Errorf("special_workspace is required")}
	}
	if strings.ContainsAny(c.SpecialWorkspace, " ,:") {
		return &ValidationError{Path: "special_workspace", Err: fmt.Errorf("special_workspace must not contain spaces, commas or colons")}
	}
	if c.CommandTimeout <= 0 {
		return &ValidationError{Path: "command_timeout", Err: fmt.Errorf("command_timeout must be > 0")}
	}
	if c.PickerTimeout <= 0 {
		return &ValidationError{Path: "picker_timeout", Err: fmt.Errorf("picker_timeout must be > 0")}
	}
	switch c.RestoreTo {
	case RestoreToOriginal, RestoreToActive:
	default:
		return &ValidationError{Path: "restore_to", Err: fmt.Errorf("restore_to must be one of: original, active")}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("log.level must be one of: debug, info, warn, error")}
	}
	if c.Log.MaxSizeMB < 0 {
		return &ValidationError{Path: "log.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Log.MaxFiles < 0 {
		return &ValidationError{Path: "log.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

// Warnings lists settings that are valid but probably not what the user
// meant.
func (c *Config) Warnings() []string {
	if c == nil {
		return nil
	}
	var warnings []string
	if strings.TrimSpace(c.Icons["default"]) == "" {
		warnings = append(warnings, "icons has no \"default\" entry; unmatched classes get no icon")
	}
	if c.PickerFuzzyMatching && c.Picker != "auto" && c.Picker != "rofi" {
		warnings = append(warnings, fmt.Sprintf("picker_fuzzy_matching has no effect with picker %q", c.Picker))
	}
	return warnings
}
