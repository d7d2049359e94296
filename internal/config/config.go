package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr      string
		StaticDir string `mapstructure:"static_dir"`
	} `mapstructure:"http"`

	Catalog struct {
		Path           string
		BackupDir      string        `mapstructure:"backup_dir"`
		Sheet          string
		SaveAttempts   int           `mapstructure:"save_attempts"`
		SaveRetryDelay time.Duration `mapstructure:"save_retry_delay"`
	} `mapstructure:"catalog"`

	Render struct {
		Engine  string
		Command string
		Args    []string
		Timeout time.Duration
	} `mapstructure:"render"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Load читает YAML-конфиг; любое поле переопределяется через ENV
// (APP_CATALOG_PATH, APP_POSTGRES_DSN, ...). .env подхватывается, если есть.
// Пустой path: только значения по умолчанию и ENV.
func Load(path string) (Config, error) {
	var c Config
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Europe/Brussels")
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.static_dir", "")
	v.SetDefault("catalog.path", "data/prices.xlsx")
	v.SetDefault("catalog.backup_dir", "data/backups")
	v.SetDefault("catalog.sheet", "")
	v.SetDefault("catalog.save_attempts", 3)
	v.SetDefault("catalog.save_retry_delay", "500ms")
	v.SetDefault("render.engine", "maroto")
	v.SetDefault("render.command", "")
	v.SetDefault("render.args", []string{})
	v.SetDefault("render.timeout", "30s")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("metrics.enabled", true)
}
