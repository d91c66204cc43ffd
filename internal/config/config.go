// Package config resolves server settings from defaults, a YAML file, the
// environment (including a .env file) and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds all server settings.
type Config struct {
	Server struct {
		Address       string   `yaml:"address"`
		CORSOrigins   []string `yaml:"cors_origins"`
		SecureCookies bool     `yaml:"secure_cookies"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Log struct {
		Path string `yaml:"path"`
	} `yaml:"log"`
	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
		ServiceName  string `yaml:"service_name"`
	} `yaml:"telemetry"`
	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
		Burst     int `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Address = ":8080"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "burrow.sqlite3"
	cfg.Telemetry.ServiceName = "burrow"
	cfg.RateLimit.PerMinute = 20
	cfg.RateLimit.Burst = 5
	return cfg
}

const usage = `Usage: burrow [flags]

Flags:
  -d, -db <dsn>           database path or URL (default: burrow.sqlite3)
      -driver <name>      database driver: sqlite or pgx (default: sqlite)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -c, -config <path>      YAML config file
  -e, -env <path>         dotenv file (default: .env, ignored if missing)
      -otlp <url>         OTLP/HTTP trace endpoint (default: tracing off)
      -cors <origins>     comma-separated origins allowed to call /api/
  -h, -help               show this help and exit

Environment:
  BURROW_CONFIG, BURROW_DB, BURROW_DRIVER, BURROW_ADDR, BURROW_LOG,
  BURROW_OTLP_ENDPOINT, BURROW_CORS_ORIGINS, BURROW_SECURE_COOKIES,
  BURROW_RATE_PER_MINUTE, BURROW_RATE_BURST
`

type flagValues struct {
	dsn, driver, addr, logPath, configPath, envPath, otlp, cors string
}

// Load builds the configuration for the given command-line arguments
// (without the program name). It returns flag.ErrHelp after printing usage
// to out when help is requested.
func Load(args []string, out io.Writer) (*Config, error) {
	flags := flag.NewFlagSet("burrow", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }

	var fv flagValues
	flags.StringVar(&fv.dsn, "db", "", "")
	flags.StringVar(&fv.dsn, "d", "", "")
	flags.StringVar(&fv.driver, "driver", "", "")
	flags.StringVar(&fv.addr, "addr", "", "")
	flags.StringVar(&fv.addr, "a", "", "")
	flags.StringVar(&fv.logPath, "log", "", "")
	flags.StringVar(&fv.logPath, "l", "", "")
	flags.StringVar(&fv.configPath, "config", "", "")
	flags.StringVar(&fv.configPath, "c", "", "")
	flags.StringVar(&fv.envPath, "env", ".env", "")
	flags.StringVar(&fv.envPath, "e", ".env", "")
	flags.StringVar(&fv.otlp, "otlp", "", "")
	flags.StringVar(&fv.cors, "cors", "", "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	env, err := newEnv(fv.envPath)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	configPath := fv.configPath
	if !set["config"] && !set["c"] {
		configPath = env.get("BURROW_CONFIG")
	}
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	if set["db"] || set["d"] {
		cfg.Database.DSN = fv.dsn
	}
	if set["driver"] {
		cfg.Database.Driver = fv.driver
	}
	if set["addr"] || set["a"] {
		cfg.Server.Address = fv.addr
	}
	if set["log"] || set["l"] {
		cfg.Log.Path = fv.logPath
	}
	if set["otlp"] {
		cfg.Telemetry.OTLPEndpoint = fv.otlp
	}
	if set["cors"] {
		cfg.Server.CORSOrigins = splitList(fv.cors)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be fixed up later.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database path or URL required")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit must be positive")
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(env *environment) error {
	if v := env.get("BURROW_DB"); v != "" {
		c.Database.DSN = v
	}
	if v := env.get("BURROW_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := env.get("BURROW_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := env.get("BURROW_LOG"); v != "" {
		c.Log.Path = v
	}
	if v := env.get("BURROW_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
	if v := env.get("BURROW_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := env.get("BURROW_SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BURROW_SECURE_COOKIES: %w", err)
		}
		c.Server.SecureCookies = b
	}
	for key, dst := range map[string]*int{
		"BURROW_RATE_PER_MINUTE": &c.RateLimit.PerMinute,
		"BURROW_RATE_BURST":      &c.RateLimit.Burst,
	} {
		v := env.get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// environment looks variables up in the process environment first and the
// dotenv file second.
type environment struct {
	dotenv map[string]string
}

func newEnv(path string) (*environment, error) {
	e := &environment{}
	if path == "" {
		return e, nil
	}
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	e.dotenv = vars
	return e, nil
}

func (e *environment) get(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return e.dotenv[key]
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
