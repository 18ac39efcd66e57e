package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"studiora/backend/internal/timer"
)

type Config struct {
	Port          string        `yaml:"port" env:"PORT" env-default:"8080"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	DBDriver      string        `yaml:"db_driver" env:"DB_DRIVER" env-default:"sqlite3"`
	DBDSN         string        `yaml:"db_dsn" env:"DB_DSN" env-default:"./data/studiora.db"`
	MigrationsDir string        `yaml:"migrations_dir" env:"MIGRATIONS_DIR" env-default:"./migrations"`
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-this-secret"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"72h"`
	CORSOrigins   []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://127.0.0.1:5173"`
	Timer         TimerConfig   `yaml:"timer"`
}

// TimerConfig holds the defaults applied to users that never saved their own timer settings.
type TimerConfig struct {
	FocusSeconds      int           `yaml:"focus_seconds" env:"TIMER_FOCUS_SECONDS" env-default:"1500"`
	ShortBreakSeconds int           `yaml:"short_break_seconds" env:"TIMER_SHORT_BREAK_SECONDS" env-default:"300"`
	LongBreakSeconds  int           `yaml:"long_break_seconds" env:"TIMER_LONG_BREAK_SECONDS" env-default:"900"`
	LongBreakInterval int           `yaml:"long_break_interval" env:"TIMER_LONG_BREAK_INTERVAL" env-default:"4"`
	AutoStartBreaks   bool          `yaml:"auto_start_breaks" env:"TIMER_AUTO_START_BREAKS" env-default:"false"`
	AutoStartFocus    bool          `yaml:"auto_start_focus" env:"TIMER_AUTO_START_FOCUS" env-default:"false"`
	SoundEnabled      bool          `yaml:"sound_enabled" env:"TIMER_SOUND_ENABLED" env-default:"true"`
	TickInterval      time.Duration `yaml:"tick_interval" env:"TIMER_TICK_INTERVAL" env-default:"1s"`
	RearmDelay        time.Duration `yaml:"rearm_delay" env:"TIMER_REARM_DELAY" env-default:"500ms"`
}

func (t TimerConfig) Settings() timer.Settings {
	return timer.Settings{
		Durations: timer.Durations{
			FocusSeconds:      t.FocusSeconds,
			ShortBreakSeconds: t.ShortBreakSeconds,
			LongBreakSeconds:  t.LongBreakSeconds,
		},
		LongBreakInterval: t.LongBreakInterval,
		AutoStartBreaks:   t.AutoStartBreaks,
		AutoStartFocus:    t.AutoStartFocus,
		SoundEnabled:      t.SoundEnabled,
	}
}

// Load reads configPath when it exists and falls back to the environment otherwise.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return cfg, fmt.Errorf("read config %q: %w", configPath, err)
		}
		cfg = Config{}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
	}

	if err := cfg.Timer.Settings().Validate(); err != nil {
		return cfg, err
	}
	if cfg.TokenTTL <= 0 {
		return cfg, fmt.Errorf("token ttl must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}

func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}
