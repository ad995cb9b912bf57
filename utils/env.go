package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/structs"
)

var EnvConfig *structs.EnvironmentModel

type EnvService struct {
	// ConfigPath overrides the directory searched for config.yml.
	ConfigPath string
}

func (e *EnvService) InitEnv() error {
	if err := e.loadConfig(); err != nil {
		return err
	}
	config := e.configToModel()
	if err := validate(config); err != nil {
		return err
	}
	EnvConfig = config
	return nil
}

func (e *EnvService) loadConfig() error {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	setDefaults()

	path := e.ConfigPath
	if path == "" {
		path = "."
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(path)

	// env always backs up the file so secrets can stay out of config.yml
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("database.client", enums.DatabaseMySQL)
	viper.SetDefault("database.port", "3306")
	viper.SetDefault("database.params", "charset=utf8mb4&parseTime=True&loc=Local")
	viper.SetDefault("database.max_idle", 10)
	viper.SetDefault("database.max_open_conn", 100)
	viper.SetDefault("database.max_life_time", "1h")
	viper.SetDefault("concurrentAmount", 4)
	viper.SetDefault("rabbitmq.enable", 1)
	viper.SetDefault("log.file.enable", 1)
	viper.SetDefault("server.timezone", "UTC")
	viper.SetDefault("router.port", 8000)
	viper.SetDefault("auth.access_ttl", "5m")
	viper.SetDefault("auth.refresh_ttl", "24h")
	viper.SetDefault("throttle.anon_per_day", 100)
	viper.SetDefault("throttle.user_per_day", 1000)
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:8000"})
}

func (e *EnvService) configToModel() *structs.EnvironmentModel {
	var config structs.EnvironmentModel
	config.Database.Client = viper.GetString("database.client")
	config.Database.Host = viper.GetString("database.host")
	config.Database.User = viper.GetString("database.user")
	config.Database.Password = viper.GetString("database.password")
	config.Database.Db = viper.GetString("database.name")
	config.Database.MaxIdle = uint(viper.GetInt("database.max_idle"))
	config.Database.MaxOpenConn = uint(viper.GetInt("database.max_open_conn"))
	config.Database.MaxLifeTime = viper.GetString("database.max_life_time")
	config.Database.Params = viper.GetString("database.params")
	config.Database.Port = viper.GetString("database.port")
	config.Database.LogEnable = viper.GetInt("database.log_enable")
	config.ConcurrentAmount = viper.GetInt("concurrentAmount")
	config.RabbitMQ.Enable = viper.GetInt("rabbitmq.enable")
	config.RabbitMQ.Domain = viper.GetString("rabbitmq.domain")
	config.Log.FileEnable = viper.GetInt("log.file.enable")
	config.Log.ElkEnable = viper.GetInt("log.elk.enable")
	config.Log.ElkIndex = viper.GetString("log.elk.index")
	config.Log.ElkURL = viper.GetString("log.elk.url")
	config.Log.LogstashEnable = viper.GetInt("log.logstash.enable")
	config.Log.LogstashURL = viper.GetString("log.logstash.url")
	config.Log.LogstashIndex = viper.GetString("log.logstash.index")
	config.Server.AppAPI = viper.GetString("server.app_api")
	config.Server.Timezone = viper.GetString("server.timezone")
	config.Router.Port = viper.GetInt("router.port")
	config.Router.TrustedProxies = viper.GetStringSlice("router.trusted_proxies")
	config.Auth.SigningKey = viper.GetString("auth.signing_key")
	config.Auth.AccessTTL = viper.GetDuration("auth.access_ttl")
	config.Auth.RefreshTTL = viper.GetDuration("auth.refresh_ttl")
	config.Throttle.AnonPerDay = viper.GetInt("throttle.anon_per_day")
	config.Throttle.UserPerDay = viper.GetInt("throttle.user_per_day")
	config.Cors.AllowedOrigins = viper.GetStringSlice("cors.allowed_origins")
	return &config
}

func validate(config *structs.EnvironmentModel) error {
	var problems []string

	if config.Auth.SigningKey == "" {
		problems = append(problems, "set the AUTH_SIGNING_KEY environment variable (auth.signing_key)")
	}
	switch config.Database.Client {
	case enums.DatabaseMySQL:
		if config.Database.Host == "" || config.Database.Db == "" {
			problems = append(problems, "database.host and database.name are required for the mysql client")
		}
	case enums.DatabaseMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown database.client %q", config.Database.Client))
	}
	if _, err := time.LoadLocation(config.Server.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid server.timezone %q", config.Server.Timezone))
	}
	if config.Router.Port < 1 || config.Router.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid router.port %d", config.Router.Port))
	}
	if config.Auth.AccessTTL <= 0 || config.Auth.RefreshTTL <= 0 {
		problems = append(problems, "auth.access_ttl and auth.refresh_ttl must be positive")
	}
	if config.ConcurrentAmount < 1 {
		problems = append(problems, "concurrentAmount must be at least 1")
	}
	if config.RabbitMQ.Enable == 1 && config.RabbitMQ.Domain == "" {
		problems = append(problems, "rabbitmq.domain is required when rabbitmq.enable is 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Location returns the processing time zone, UTC when unset.
func Location() *time.Location {
	if EnvConfig == nil {
		return time.UTC
	}
	location, err := time.LoadLocation(EnvConfig.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}
