// Package config is responsible for finding and parsing the sonicd
// configuration. Values come from, in order of precedence, command line
// flags, SONICD_* environment variables, the configuration file and the
// defaults in this package.
//
// Without an explicit file the configuration is looked up as
// $HOME/.sonicd/config.{yaml,json} and /etc/sonicd/config.{yaml,json}.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// UserDir is the name of the sonicd directory in the user's home directory.
const UserDir = ".sonicd"

// EnvPrefix is the prefix of the environment variables which override the
// configuration. `log.level` is set with SONICD_LOG_LEVEL.
const EnvPrefix = "SONICD"

// Config is the configuration type. It should contain a representation for
// everything in the configuration file.
type Config struct {
	Listen         string `mapstructure:"listen"`
	SSL            bool   `mapstructure:"ssl"`
	SSLCertificate Cert   `mapstructure:"ssl_certificate"`
	Gzip           bool   `mapstructure:"gzip"`
	Metrics        bool   `mapstructure:"metrics"`

	// ReadTimeout and WriteTimeout are in seconds. Zero means no timeout.
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	MaxHeadersSize int `mapstructure:"max_header_bytes"`

	// UserPath is the directory where the database is created unless
	// SqliteDatabase is an absolute path.
	UserPath       string `mapstructure:"user_path"`
	SqliteDatabase string `mapstructure:"sqlite_database"`

	Libraries []Library `mapstructure:"libraries"`
	Users     []User    `mapstructure:"users"`

	Log       Log       `mapstructure:"log"`
	Scanner   Scanner   `mapstructure:"scanner"`
	Transcode Transcode `mapstructure:"transcode"`
	Scaler    Scaler    `mapstructure:"scaler"`
}

// Cert is the TLS key pair used when SSL is on.
type Cert struct {
	Crt string `mapstructure:"crt"`
	Key string `mapstructure:"key"`
}

// Library is a music directory which is registered at start-up. An empty
// Name means the base name of the path.
type Library struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// User is an account which is created at start-up unless it exists.
type User struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Admin    bool   `mapstructure:"admin"`
	Email    string `mapstructure:"email"`
}

// Log configures logging. An empty File means stderr.
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Scanner configures the library scanner.
type Scanner struct {
	Prune      bool          `mapstructure:"prune"`
	Watch      bool          `mapstructure:"watch"`
	WatchDelay time.Duration `mapstructure:"watch_delay"`
	BatchSize  int           `mapstructure:"batch_size"`
}

// Transcode configures the delivery of audio.
type Transcode struct {
	// MaxBitrate is the server wide ceiling in kbps.
	MaxBitrate  int           `mapstructure:"max_bitrate"`
	Skip        bool          `mapstructure:"skip"`
	Format      string        `mapstructure:"format"`
	Encoder     string        `mapstructure:"encoder"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	ChunkSize   int           `mapstructure:"chunk_size"`
}

// Scaler configures cover resizing. Zero workers means one per CPU.
type Scaler struct {
	Workers int `mapstructure:"workers"`
}

var defaults = map[string]any{
	"listen":                 "localhost:4040",
	"ssl":                    false,
	"ssl_certificate.crt":    "",
	"ssl_certificate.key":    "",
	"gzip":                   true,
	"metrics":                true,
	"read_timeout":           15,
	"write_timeout":          0,
	"max_header_bytes":       1 << 20,
	"user_path":              "",
	"sqlite_database":        "sonicd.db",
	"log.level":              "info",
	"log.file":               "",
	"scanner.prune":          false,
	"scanner.watch":          true,
	"scanner.watch_delay":    5 * time.Second,
	"scanner.batch_size":     50,
	"transcode.max_bitrate":  320,
	"transcode.skip":         false,
	"transcode.format":       "mp3",
	"transcode.encoder":      "ffmpeg",
	"transcode.grace_period": 90 * time.Second,
	"transcode.chunk_size":   16 * 1024,
	"scaler.workers":         0,
}

// Flags returns the command line flags which Load understands. The keys
// they override are in the flag usage.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("sonicd", pflag.ContinueOnError)
	flags.StringP("config", "c", "", "configuration file")
	flags.String("listen", "", "address to listen on (listen)")
	flags.String("log-level", "", "debug, info, warn or error (log.level)")
	flags.String("log-file", "", "log to this file instead of stderr (log.file)")
	flags.String("database", "", "SQLite database file (sqlite_database)")
	flags.Bool("prune", false, "remove missing files from the catalog (scanner.prune)")
	flags.Bool("version", false, "show version and exit")
	return flags
}

var flagKeys = map[string]string{
	"listen":    "listen",
	"log-level": "log.level",
	"log-file":  "log.file",
	"database":  "sqlite_database",
	"prune":     "scanner.prune",
}

// Load finds and parses the configuration. `flags` may be nil. Flags which
// were not set on the command line do not override anything.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var file string
	if flags != nil {
		file, _ = flags.GetString("config")
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	if file == "" {
		file = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, UserDir))
		}
		v.AddConfigPath("/etc/sonicd")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading configuration: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) resolvePaths() error {
	if cfg.UserPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding user path: %w", err)
		}
		cfg.UserPath = filepath.Join(home, UserDir)
	}

	for i, lib := range cfg.Libraries {
		if lib.Path == "" {
			continue
		}
		abs, err := filepath.Abs(lib.Path)
		if err != nil {
			return fmt.Errorf("library %s: %w", lib.Path, err)
		}
		cfg.Libraries[i].Path = abs
	}

	return nil
}

// Validate returns an error describing the first problem with the
// configuration.
func (cfg Config) Validate() error {
	if cfg.Listen == "" {
		return errors.New("listen address is empty")
	}

	if cfg.SSL && (cfg.SSLCertificate.Crt == "" || cfg.SSLCertificate.Key == "") {
		return errors.New("ssl is on but ssl_certificate.crt or ssl_certificate.key is empty")
	}

	for _, lib := range cfg.Libraries {
		if lib.Path == "" {
			return fmt.Errorf("library %q has no path", lib.Name)
		}
	}

	for _, user := range cfg.Users {
		if user.Username == "" || user.Password == "" {
			return fmt.Errorf("user %q needs a username and a password", user.Username)
		}
	}

	if cfg.Transcode.MaxBitrate < 32 || cfg.Transcode.MaxBitrate > 320 {
		return fmt.Errorf("transcode.max_bitrate %d is not in [32, 320]",
			cfg.Transcode.MaxBitrate)
	}

	if cfg.Scanner.BatchSize < 1 {
		return fmt.Errorf("scanner.batch_size must be positive, not %d",
			cfg.Scanner.BatchSize)
	}

	return nil
}

// DatabasePath returns the SQLite file of the catalog.
func (cfg Config) DatabasePath() string {
	if filepath.IsAbs(cfg.SqliteDatabase) {
		return cfg.SqliteDatabase
	}
	return filepath.Join(cfg.UserPath, cfg.SqliteDatabase)
}

// Timeouts returns the read and write timeouts of the HTTP server.
func (cfg Config) Timeouts() (read, write time.Duration) {
	return time.Duration(cfg.ReadTimeout) * time.Second,
		time.Duration(cfg.WriteTimeout) * time.Second
}
