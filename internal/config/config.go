// Package config assembles runtime settings from defaults, an optional YAML
// file and SIMOPS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"simopsbot/internal/app/agent"
	"simopsbot/internal/app/eval"
	"simopsbot/internal/domain/fault"
	"simopsbot/internal/domain/ops"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server   ServerConfig         `yaml:"server"`
	Database DatabaseConfig       `yaml:"database"`
	Journal  JournalConfig        `yaml:"journal"`
	Run      RunConfig            `yaml:"run"`
	Faults   fault.Profile        `yaml:"faults"`
	Verify   ops.VerifyThresholds `yaml:"verify"`
	Gate     eval.Thresholds      `yaml:"gate"`
	Eval     EvalConfig           `yaml:"eval"`
	Log      LogConfig            `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	AllowOrigin string `yaml:"allow_origin"`
}

// DatabaseConfig selects postgres when DSN is set. MigrationsDir overrides
// the migrations compiled into the binary.
type DatabaseConfig struct {
	DSN           string `yaml:"dsn"`
	MigrationsDir string `yaml:"migrations_dir"`
}

// JournalConfig.Dir receives one JSONL file per run; empty disables files.
type JournalConfig struct {
	Dir string `yaml:"dir"`
}

type RunConfig struct {
	Profile     string        `yaml:"profile" validate:"oneof=rules proposals hypotheses verified guarded"`
	Budget      ops.Budget    `yaml:"budget"`
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	BackoffBase time.Duration `yaml:"backoff_base" validate:"gte=0"`
}

type EvalConfig struct {
	Concurrency int    `yaml:"concurrency" validate:"gte=1,lte=64"`
	OutDir      string `yaml:"out_dir"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Journal: JournalConfig{Dir: "runs"},
		Run: RunConfig{
			Profile:     string(agent.DefaultProfile),
			Budget:      ops.DefaultBudget(),
			MaxAttempts: 3,
		},
		Faults: fault.DefaultProfile(),
		Verify: ops.DefaultVerifyThresholds(),
		Gate:   eval.DefaultThresholds(),
		Eval:   EvalConfig{Concurrency: eval.DefaultConcurrency},
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds a validated Config. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(parts, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	// cross-field rules the struct tags cannot express
	for _, check := range []func() error{c.Faults.Validate, c.Run.Budget.Validate, c.Gate.Validate} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnv(cfg *Config) error {
	envStr("SIMOPS_HTTP_ADDR", &cfg.Server.Addr)
	envStr("SIMOPS_DB_DSN", &cfg.Database.DSN)
	envStr("SIMOPS_JOURNAL_DIR", &cfg.Journal.Dir)
	envStr("SIMOPS_LOG_LEVEL", &cfg.Log.Level)
	envStr("SIMOPS_PROFILE", &cfg.Run.Profile)
	for key, dst := range map[string]*int{
		"SIMOPS_MAX_STEPS":        &cfg.Run.Budget.MaxSteps,
		"SIMOPS_MAX_TOOL_CALLS":   &cfg.Run.Budget.MaxToolCalls,
		"SIMOPS_MAX_SIDE_EFFECTS": &cfg.Run.Budget.MaxSideEffects,
		"SIMOPS_EVAL_CONCURRENCY": &cfg.Eval.Concurrency,
	} {
		if err := envInt(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}
