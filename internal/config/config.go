package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	AccessSecret  string `mapstructure:"ACCESS_SECRET"`
	RefreshSecret string `mapstructure:"REFRESH_SECRET"`

	GoogleClientID string `mapstructure:"GOOGLE_CLIENT_ID"`
	AppleClientID  string `mapstructure:"APPLE_CLIENT_ID"`

	FCMServerKey      string `mapstructure:"FCM_SERVER_KEY"`
	AppleSharedSecret string `mapstructure:"APPLE_SHARED_SECRET"`
	PlayPackageName   string `mapstructure:"PLAY_PACKAGE_NAME"`
	PlayAccessToken   string `mapstructure:"PLAY_ACCESS_TOKEN"`
	SafeBrowsingKey   string `mapstructure:"SAFE_BROWSING_KEY"`

	UploadSecret  string `mapstructure:"UPLOAD_SECRET"`
	UploadBaseURL string `mapstructure:"UPLOAD_BASE_URL"`
	UploadDir     string `mapstructure:"UPLOAD_DIR"`

	CommandsPerHour int `mapstructure:"COMMANDS_PER_HOUR"`
}

func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	// Explicit binds so viper sees the env vars even without a config file.
	viper.BindEnv("PORT")
	viper.BindEnv("ALLOWED_ORIGINS")
	viper.BindEnv("LOG_LEVEL")
	viper.BindEnv("DB_HOST")
	viper.BindEnv("DB_PORT")
	viper.BindEnv("DB_USER")
	viper.BindEnv("DB_PASSWORD")
	viper.BindEnv("DB_NAME")
	viper.BindEnv("REDIS_ADDR")
	viper.BindEnv("ACCESS_SECRET")
	viper.BindEnv("REFRESH_SECRET")
	viper.BindEnv("GOOGLE_CLIENT_ID")
	viper.BindEnv("APPLE_CLIENT_ID")
	viper.BindEnv("FCM_SERVER_KEY")
	viper.BindEnv("APPLE_SHARED_SECRET")
	viper.BindEnv("PLAY_PACKAGE_NAME")
	viper.BindEnv("PLAY_ACCESS_TOKEN")
	viper.BindEnv("SAFE_BROWSING_KEY")
	viper.BindEnv("UPLOAD_SECRET")
	viper.BindEnv("UPLOAD_BASE_URL")
	viper.BindEnv("UPLOAD_DIR")
	viper.BindEnv("COMMANDS_PER_HOUR")

	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("COMMANDS_PER_HOUR", 10)
	viper.SetDefault("UPLOAD_DIR", "./quarantine-data")

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// No file is fine, env vars carry everything in production.
	}

	err = viper.Unmarshal(&config)
	return
}
