package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Scores   ScoresConfig   `mapstructure:"scores"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	GRPCAddress    string `mapstructure:"grpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	Debug          bool   `mapstructure:"debug"`
}

type GameConfig struct {
	TickRate           int           `mapstructure:"tick_rate"`
	DropRate           float64       `mapstructure:"drop_rate"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
	HeartbeatInterval  time.Duration `mapstructure:"heartbeat_interval"`
}

// 分数存储后端
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendGorm     = "gorm"
	BackendPostgres = "postgres"
)

type ScoresConfig struct {
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":3000")
	v.SetDefault("server.rpc_address", ":3001")
	v.SetDefault("server.grpc_address", ":3002")
	v.SetDefault("server.metrics_address", ":9100")
	v.SetDefault("server.debug", false)

	v.SetDefault("game.tick_rate", 30)
	v.SetDefault("game.drop_rate", 1.0)
	v.SetDefault("game.session_idle_timeout", 2*time.Minute)
	v.SetDefault("game.heartbeat_interval", 30*time.Second)

	v.SetDefault("scores.backend", BackendFile)
	v.SetDefault("scores.file", "game_scores.json")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "red_tetris")
}

// LoadConfig reads config.yaml from path. Without a file the defaults and the
// environment (SERVER_HTTP_ADDRESS, SCORES_BACKEND, ...) still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
