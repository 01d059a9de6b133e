// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads refsync settings with Viper.
//
// Precedence, highest first: bound CLI flags, REFSYNC_* environment
// variables, an explicit --config file or ./refsync.yml, the XDG global file,
// then built-in defaults. The result is a plain value; nothing mutates it
// after Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Defaults for the reference repository this tool was written for.
const (
	DefaultRepoURL   = "https://github.com/TonyBarkell/here-core-ai-references.git"
	DefaultSSHURL    = "git@github.com:TonyBarkell/here-core-ai-references.git"
	DefaultRepoDir   = "here-core-ai-references-repo"
	DefaultUpdateDir = "here-core-ai-references-updates"
)

// Config holds all configuration values for refsync.
type Config struct {
	RepoURL       string `mapstructure:"repo_url" yaml:"repo_url"`
	SSHURL        string `mapstructure:"ssh_url" yaml:"ssh_url"`
	RepoDir       string `mapstructure:"repo_dir" yaml:"repo_dir"`
	UpdateDir     string `mapstructure:"update_dir" yaml:"update_dir"`
	ContextFile   string `mapstructure:"context_file" yaml:"context_file"`
	CommitMessage string `mapstructure:"commit_message" yaml:"commit_message"`
	BranchPrefix  string `mapstructure:"branch_prefix" yaml:"branch_prefix"`
	AuthorName    string `mapstructure:"author_name" yaml:"author_name"`
	AuthorEmail   string `mapstructure:"author_email" yaml:"author_email"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	Interactive   bool   `mapstructure:"interactive" yaml:"interactive"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RepoURL:       DefaultRepoURL,
		SSHURL:        DefaultSSHURL,
		RepoDir:       DefaultRepoDir,
		UpdateDir:     DefaultUpdateDir,
		CommitMessage: "Add learning pattern: %s",
		LogLevel:      "info",
		Interactive:   true,
	}
}

// keys lists every setting; each is bound to REFSYNC_<KEY>.
var keys = []string{
	"repo_url", "ssh_url", "repo_dir", "update_dir", "context_file",
	"commit_message", "branch_prefix", "author_name", "author_email",
	"log_level", "log_file", "interactive",
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file; when set, the project and global
	// files are not read.
	File string
	// Flags maps config keys to CLI flags. Only flags the user changed
	// override lower layers.
	Flags map[string]*pflag.Flag
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("repo_url", def.RepoURL)
	v.SetDefault("ssh_url", def.SSHURL)
	v.SetDefault("repo_dir", def.RepoDir)
	v.SetDefault("update_dir", def.UpdateDir)
	v.SetDefault("context_file", "")
	v.SetDefault("commit_message", def.CommitMessage)
	v.SetDefault("branch_prefix", "")
	v.SetDefault("author_name", "")
	v.SetDefault("author_email", "")
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("interactive", def.Interactive)

	v.SetEnvPrefix("REFSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k, "REFSYNC_"+strings.ToUpper(k)); err != nil {
			return Config{}, fmt.Errorf("binding %s env: %w", k, err)
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", opts.File, err)
		}
	} else {
		if p := GlobalPath(); fileExists(p) {
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("reading global config: %w", err)
			}
		}
		if p := ProjectPath(); fileExists(p) {
			v.SetConfigFile(p)
			if err := v.MergeInConfig(); err != nil {
				return Config{}, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return Config{}, fmt.Errorf("binding flag for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings every run depends on.
func (c Config) Validate() error {
	switch {
	case c.UpdateDir == "":
		return fmt.Errorf("config: update_dir must not be empty")
	case c.RepoDir == "":
		return fmt.Errorf("config: repo_dir must not be empty")
	case filepath.Clean(c.RepoDir) == filepath.Clean(c.UpdateDir):
		return fmt.Errorf("config: repo_dir and update_dir must differ")
	}
	return nil
}

// GlobalPath returns $XDG_CONFIG_HOME/refsync/refsync.yml, falling back to
// ~/.config.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "refsync", "refsync.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "refsync", "refsync.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "refsync.yml"
}

// Write marshals cfg as YAML to path, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
