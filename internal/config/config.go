// Package config resolves mario's on-disk configuration: where the
// rules file lives, where fragment rules.d/ files live, and a handful
// of behavioral toggles, all discovered via the XDG base directory
// spec and parsed as INI.
package config

import (
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/ini.v1"
)

const (
	appName           = "mario"
	defaultConfigName = "config"
	defaultRulesName  = "mario.plumb"
	defaultRulesDir   = "rules.d"
	iniSection        = "mario"
)

// Config holds the resolved settings mario runs with. Every field has a
// value even if no config file was found: Load falls back to XDG
// defaults for RulesFile/RulesDir and zero values for the toggles.
type Config struct {
	// RulesFile is the absolute path to the primary rules file.
	RulesFile string
	// RulesDir is the configured rules fragment directory. It is resolved
	// and stored only; no fragments are read from it.
	RulesDir string
	// StrictContentLookup disables the HTTP HEAD fallback in `arg
	// istype` clauses, so a message whose extension can't be resolved
	// fails the clause instead of making a network request.
	StrictContentLookup bool
	// Notifications enables desktop notifications on action failure.
	// Left unimplemented beyond the flag itself; see DESIGN.md.
	Notifications bool
}

// DefaultConfigPath returns the XDG-resolved path mario looks for its
// config file at by default ($XDG_CONFIG_HOME/mario/config).
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, defaultConfigName)
}

// DefaultRulesPath returns the XDG-resolved default rules file path
// ($XDG_CONFIG_HOME/mario/mario.plumb).
func DefaultRulesPath() string {
	return filepath.Join(xdg.ConfigHome, appName, defaultRulesName)
}

// DefaultRulesDir returns the XDG-resolved default rules fragment
// directory ($XDG_CONFIG_HOME/mario/rules.d).
func DefaultRulesDir() string {
	return filepath.Join(xdg.ConfigHome, appName, defaultRulesDir)
}

// Load resolves configuration from path. An empty path means "use the
// XDG default". A missing config file is not an error: Load logs it at
// INFO level and returns defaults, matching the plumber's historical
// behavior of running fine with no config file present at all.
func Load(path string, logger *slog.Logger) *Config {
	cfg := &Config{
		RulesFile: DefaultRulesPath(),
		RulesDir:  DefaultRulesDir(),
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	file, err := ini.Load(path)
	if err != nil {
		if logger != nil {
			logger.Info("no config file found, using defaults", "path", path, "error", err)
		}
		return cfg
	}

	section := file.Section(iniSection)
	if v := section.Key("rules file").String(); v != "" {
		cfg.RulesFile = expandHome(v)
	}
	if v := section.Key("rules dir").String(); v != "" {
		cfg.RulesDir = expandHome(v)
	}
	cfg.StrictContentLookup = section.Key("strict content lookup").MustBool(false)
	cfg.Notifications = section.Key("notifications").MustBool(false)

	return cfg
}

// expandHome resolves a leading "~/" the way XDG-aware tools
// conventionally do, since INI values are free text and ini.v1 performs
// no path expansion itself.
func expandHome(p string) string {
	if len(p) >= 2 && p[:2] == "~/" {
		return filepath.Join(xdg.Home, p[2:])
	}
	return p
}
