package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/fanmgr/internal/curve"
	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"codeberg.org/mutker/fanmgr/internal/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultSerialPort  = "/dev/ttyS0"
	DefaultBaud        = 115200
	DefaultTimeout     = 1000
	DefaultRefreshRate = 1000
	DefaultLogLevel    = "info"
	DefaultFirmware    = ""
)

type Config struct {
	Steps       []string
	Curve       curve.Curve
	Install     bool
	Port        string
	Baud        int
	Timeout     time.Duration
	RefreshRate time.Duration
	LogLevel    string
	Level       logger.LogLevel
	MetricsPort int
	Firmware    string

	// Warnings collects problems that were recovered from during loading.
	// They are logged once the logger is initialized.
	Warnings []string
}

// Load reads configuration from defaults, the TOML file, the environment
// and args, in increasing order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fs := pflag.NewFlagSet("fanmgr", pflag.ContinueOnError)
	fs.StringSliceP("step", "s", nil, "Temperature:fan-speed step, e.g. --step 50:100 for 100% fan speed at 50 degrees")
	fs.BoolP("install", "i", false, "Install the firmware image to the fan controller")
	fs.StringP("port", "p", DefaultSerialPort, "The serial port to use")
	fs.IntP("baud", "b", DefaultBaud, "The baud rate to use")
	fs.IntP("timeout", "t", DefaultTimeout, "The port open timeout in milliseconds")
	fs.IntP("refresh-rate", "r", DefaultRefreshRate, "Refresh rate in milliseconds")
	fs.StringP("log-level", "l", DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.String("firmware", DefaultFirmware, "Firmware image written by --install (default: the built-in image)")
	configFlag := fs.String("config", "", "Path to the configuration file")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := loadEnvFile(o.envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("metrics_port", MetricsPortEnv); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if err := readConfigFile(v, o, *configFlag); err != nil {
		return nil, err
	}

	cfg := &Config{
		Steps:    v.GetStringSlice("step"),
		Install:  v.GetBool("install"),
		Port:     v.GetString("port"),
		Baud:     v.GetInt("baud"),
		LogLevel: v.GetString("log-level"),
		Firmware: v.GetString("firmware"),
	}

	if err := cfg.applyDurations(v.GetInt("timeout"), v.GetInt("refresh-rate")); err != nil {
		return nil, err
	}
	cfg.applyMetricsPort(v.GetString("metrics_port"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, o options, flagPath string) error {
	errFactory := errors.New()

	path := flagPath
	if path == "" {
		path = o.configPath
	}
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(o.configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// loadEnvFile exports the file's variables into the process environment
// without overriding ones that are already set. A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.New().Wrap(errors.ErrReadConfig, err)
	}
	return nil
}

func (c *Config) applyDurations(timeoutMs, refreshMs int) error {
	errFactory := errors.New()

	if timeoutMs < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, fmt.Sprintf("timeout %dms", timeoutMs))
	}
	if refreshMs <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, fmt.Sprintf("refresh rate %dms", refreshMs))
	}

	c.Timeout = time.Duration(timeoutMs) * time.Millisecond
	c.RefreshRate = time.Duration(refreshMs) * time.Millisecond

	return nil
}

// applyMetricsPort falls back to the default port when the value is missing
// or unusable.
func (c *Config) applyMetricsPort(raw string) {
	c.MetricsPort = metrics.DefaultPort

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}

	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		c.Warnings = append(c.Warnings,
			fmt.Sprintf("invalid metrics port %q, using %d", raw, metrics.DefaultPort))
		return
	}

	c.MetricsPort = port
}

// Validate checks values and derives the curve and log level.
func (c *Config) Validate() error {
	errFactory := errors.New()

	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	c.Level = level

	parsed, err := curve.Parse(c.Steps)
	if err != nil {
		return err
	}
	c.Curve = parsed

	if c.Install {
		return nil
	}

	if c.Port == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "serial port is empty")
	}
	if c.Baud <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("baud rate %d", c.Baud))
	}

	return nil
}

// UsingDefaultCurve reports whether no steps were configured.
func (c *Config) UsingDefaultCurve() bool {
	return len(c.Steps) == 0
}
