package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gajzzs/webblocker/internal/blocklist"
	"github.com/gajzzs/webblocker/internal/hosts"
	"github.com/gajzzs/webblocker/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyHosts       = "hosts"
	KeyRedirect    = "redirect"
	KeyDomains     = "domains"
	KeyDomainsFile = "domains_file"
	KeyBackup      = "backup"
	KeyLogLevel    = "log_level"

	EnvPrefix       = "WEBBLOCKER"
	DefaultRedirect = "127.0.0.1"
)

var (
	ConfigDir  = "/etc/webblocker"
	ConfigName = "config"
)

type Config struct {
	Hosts       string   `mapstructure:"hosts" toml:"hosts"`
	Redirect    string   `mapstructure:"redirect" toml:"redirect"`
	Domains     []string `mapstructure:"domains" toml:"domains"`
	DomainsFile string   `mapstructure:"domains_file" toml:"domains_file,omitempty"`
	Backup      string   `mapstructure:"backup" toml:"backup"`
	LogLevel    string   `mapstructure:"log_level" toml:"log_level"`
}

// flagKeys maps config keys to the command line flags that override them.
var flagKeys = map[string]string{
	KeyHosts:       "hosts",
	KeyRedirect:    "redirect",
	KeyDomains:     "domain",
	KeyDomainsFile: "domains-file",
	KeyBackup:      "backup",
	KeyLogLevel:    "log-level",
}

// New returns a viper instance with defaults and environment lookup set
// up. WEBBLOCKER_HOSTS, WEBBLOCKER_DOMAINS ("a.com,b.com") and so on
// override the config file.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyHosts, hosts.DefaultPath())
	v.SetDefault(KeyRedirect, DefaultRedirect)
	v.SetDefault(KeyDomains, []string{})
	v.SetDefault(KeyDomainsFile, "")
	v.SetDefault(KeyBackup, string(hosts.BackupAlways))
	v.SetDefault(KeyLogLevel, logging.DefaultLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags makes the flags in fs that were set on the command line take
// precedence over env and file values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file and returns the effective configuration. An
// explicit file must exist; otherwise config.{yaml,toml,json} is looked up
// in ConfigDir and then the user's config directory, and may be absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(ConfigDir)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "webblocker"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Hosts) == "" {
		return errors.New("hosts path must not be empty")
	}
	if _, err := hosts.ParseBackupPolicy(c.Backup); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// BlockList returns the configured domains followed by the ones listed in
// DomainsFile, if set. Duplicates are removed later by the editor.
func (c *Config) BlockList(fsys afero.Fs) ([]string, error) {
	domains := append([]string{}, c.Domains...)
	if c.DomainsFile == "" {
		return domains, nil
	}
	fromFile, err := blocklist.Load(fsys, c.DomainsFile)
	if err != nil {
		return nil, err
	}
	return append(domains, fromFile...), nil
}

// EditorOptions converts the configuration into what the hosts editor
// expects.
func (c *Config) EditorOptions() (hosts.Options, error) {
	policy, err := hosts.ParseBackupPolicy(c.Backup)
	if err != nil {
		return hosts.Options{}, err
	}
	return hosts.Options{
		Redirect: c.Redirect,
		Backup:   policy,
	}, nil
}

// Write encodes the configuration as TOML, the format `config show`
// prints and config files can be written in.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
