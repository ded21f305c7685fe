package config

const (
	DefaultEnvPrefix  = "FANMGR"
	DefaultConfigName = "fanmgr"
	DefaultConfigDir  = "/etc"

	// ConfigPathEnv points at an explicit configuration file
	ConfigPathEnv = "FANMGR_CONFIG"

	// MetricsPortEnv overrides the metrics server port
	MetricsPortEnv = "METRICS_PORT"

	// DefaultEnvFile is an optional KEY=value file loaded before the
	// environment is read. Variables already set take precedence.
	DefaultEnvFile = "/etc/default/fanmgr"
)

// Option defines a configuration option that can be passed to Load
type Option func(*options)

// options holds internal configuration options
type options struct {
	configPath string
	configDir  string
	envPrefix  string
	envFile    string
}

func defaultOptions() options {
	return options{
		configDir: DefaultConfigDir,
		envPrefix: DefaultEnvPrefix,
		envFile:   DefaultEnvFile,
	}
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithConfigDir changes the directory searched for fanmgr.toml
func WithConfigDir(dir string) Option {
	return func(o *options) {
		o.configDir = dir
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "FANMGR"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithEnvFile changes the env file loaded before the environment is read.
// An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}
