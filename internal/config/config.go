// Package config resolves runtime settings from flags, environment
// variables and defaults, in that precedence order. Environment keys use
// the SUBNETIER_ prefix; the bare SSH_USERNAME, SSH_PASSWORD and
// SSH_KEY_FILE names are also honored for compatibility with existing
// automation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration
type Config struct {
	Subnet        string        `mapstructure:"subnet" validate:"omitempty,cidr|ip"`
	ArtifactDir   string        `mapstructure:"artifact_dir" validate:"required"`
	Workers       int           `mapstructure:"workers" validate:"gte=1,lte=256"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout" validate:"gt=0"`
	OSDetection   bool          `mapstructure:"os_detection"`
	SNMPCommunity string        `mapstructure:"snmp_community"`
	LeaseFile     string        `mapstructure:"lease_file"`

	SSH     SSHConfig     `mapstructure:"ssh"`
	WinRM   WinRMConfig   `mapstructure:"winrm"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SSHConfig carries SSH login material
type SSHConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	KeyFile  string `mapstructure:"key_file" validate:"omitempty,file"`
}

// WinRMConfig carries WinRM login material
type WinRMConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Domain   string `mapstructure:"domain"`
	UseHTTPS bool   `mapstructure:"use_https"`
}

// LoggingConfig controls the log sink
type LoggingConfig struct {
	Level   string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

var validate = validator.New()

// New returns a viper instance with defaults and env bindings applied.
// Callers layer flag values on top with Set before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("subnet", "")
	v.SetDefault("artifact_dir", ".")
	v.SetDefault("workers", 8)
	v.SetDefault("probe_timeout", time.Second)
	v.SetDefault("os_detection", false)
	v.SetDefault("snmp_community", "")
	v.SetDefault("lease_file", "")
	v.SetDefault("ssh.username", "")
	v.SetDefault("ssh.password", "")
	v.SetDefault("ssh.key_file", "")
	v.SetDefault("winrm.username", "")
	v.SetDefault("winrm.password", "")
	v.SetDefault("winrm.domain", "")
	v.SetDefault("winrm.use_https", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.console", true)

	v.SetEnvPrefix("SUBNETIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy credential variables used by the surrounding tooling
	v.BindEnv("ssh.username", "SUBNETIER_SSH_USERNAME", "SSH_USERNAME")
	v.BindEnv("ssh.password", "SUBNETIER_SSH_PASSWORD", "SSH_PASSWORD")
	v.BindEnv("ssh.key_file", "SUBNETIER_SSH_KEY_FILE", "SSH_KEY_FILE")
	v.BindEnv("winrm.username", "SUBNETIER_WINRM_USERNAME", "WINRM_USERNAME")
	v.BindEnv("winrm.password", "SUBNETIER_WINRM_PASSWORD", "WINRM_PASSWORD")

	return v
}

// Load materializes and validates the configuration
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// HasSSHCredentials reports whether any SSH login material is configured
func (c *Config) HasSSHCredentials() bool {
	return c.SSH.Username != "" && (c.SSH.Password != "" || c.SSH.KeyFile != "")
}

// HasWinRMCredentials reports whether WinRM login material is configured
func (c *Config) HasWinRMCredentials() bool {
	return c.WinRM.Username != "" && c.WinRM.Password != ""
}
