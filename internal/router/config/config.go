package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Поддерживаемые хранилища.
const (
	StorePostgres = "postgres"
	StoreSqlite   = "sqlite"
	StoreMemory   = "memory"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	PostgresConn  string `mapstructure:"POSTGRES_CONN"`
	PostgresUser  string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass  string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost  string `mapstructure:"POSTGRES_HOST"`
	PostgresPort  string `mapstructure:"POSTGRES_PORT"`
	PostgresDB    string `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL  string `mapstructure:"MIGRATION_URL"`
	SqlitePath    string `mapstructure:"SQLITE_PATH"`

	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LockTimeout      time.Duration `mapstructure:"LOCK_TIMEOUT"`
	SweepInterval    time.Duration `mapstructure:"SWEEP_INTERVAL"`
	BidMaxAttempts   uint          `mapstructure:"BID_MAX_ATTEMPTS"`
	BidRetryInterval time.Duration `mapstructure:"BID_RETRY_INTERVAL"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
}

var envKeys = []string{
	"SERVER_ADDRESS", "STORE_DRIVER", "POSTGRES_CONN", "POSTGRES_USERNAME", "POSTGRES_PASSWORD",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DATABASE", "MIGRATION_URL", "SQLITE_PATH",
	"REQUEST_TIMEOUT", "LOCK_TIMEOUT", "SWEEP_INTERVAL", "BID_MAX_ATTEMPTS", "BID_RETRY_INTERVAL", "LOG_LEVEL",
}

// LoadConfig загружает конфигурацию из файла app.env в каталоге path.
// Переменные окружения имеют приоритет над файлом, отсутствие файла не является ошибкой.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("MIGRATION_URL", "file://migrations")
	v.SetDefault("SQLITE_PATH", "funding.db")
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("LOCK_TIMEOUT", 2*time.Second)
	v.SetDefault("SWEEP_INTERVAL", 24*time.Hour)
	v.SetDefault("BID_MAX_ATTEMPTS", 3)
	v.SetDefault("BID_RETRY_INTERVAL", 50*time.Millisecond)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	for _, key := range envKeys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}
	err = v.Unmarshal(&cfg)
	return
}
