package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server struct {
		Port int
		Host string
	}
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Host     string
		Port     int
		Password string
		DB       int
	}
	Session struct {
		Secret     string
		Prefix     string
		Expiration time.Duration
	}
	Google struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	Facebook struct {
		AppID     string
		AppSecret string
	}
	Twitch struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	Live struct {
		APIURL  string
		RTMPURL string
	}
	Providers struct {
		CallTimeout time.Duration
	}
	Assets struct {
		URL string
	}
	Log struct {
		Level string
	}
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	// Server config
	config.Server.Port = getEnvAsInt("SERVER_PORT", 3000)
	config.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Database config
	config.Database.Host = getEnv("DB_HOST", "localhost")
	config.Database.Port = getEnvAsInt("DB_PORT", 5432)
	config.Database.User = getEnv("DB_USER", "postgres")
	config.Database.Password = getEnv("DB_PASSWORD", "")
	config.Database.DBName = getEnv("DB_NAME", "forstream")
	config.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis config
	config.Redis.Host = getEnv("REDIS_HOST", "localhost")
	config.Redis.Port = getEnvAsInt("REDIS_PORT", 6379)
	config.Redis.Password = getEnv("REDIS_PASSWORD", "")
	config.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// Session config
	config.Session.Secret = getEnv("SESSION_SECRET", "")
	config.Session.Prefix = getEnv("SESSION_PREFIX", "session:")
	config.Session.Expiration = getEnvAsDuration("SESSION_EXPIRATION", 24*time.Hour)

	// OAuth app config
	config.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", "")
	config.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", "")
	config.Google.RedirectURL = getEnv("GOOGLE_REDIRECT_URL", "postmessage")
	config.Facebook.AppID = getEnv("FACEBOOK_APP_ID", "")
	config.Facebook.AppSecret = getEnv("FACEBOOK_APP_SECRET", "")
	config.Twitch.ClientID = getEnv("TWITCH_CLIENT_ID", "")
	config.Twitch.ClientSecret = getEnv("TWITCH_CLIENT_SECRET", "")
	config.Twitch.RedirectURL = getEnv("TWITCH_REDIRECT_URL", "io.forstream.api:/oauth2/twitch")

	// Live relay config
	config.Live.APIURL = getEnv("LIVE_API_URL", "http://localhost:5000/api")
	config.Live.RTMPURL = getEnv("LIVE_RTMP_URL", "rtmp://localhost/live")

	// Provider config
	config.Providers.CallTimeout = getEnvAsDuration("PROVIDER_CALL_TIMEOUT", 20*time.Second)

	// Assets config
	config.Assets.URL = getEnv("ASSETS_URL", "http://localhost:3000/assets")

	// Log config
	config.Log.Level = getEnv("LOG_LEVEL", "info")

	return config, nil
}

// Validate checks that required secrets are present
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Providers.CallTimeout <= 0 {
		return fmt.Errorf("PROVIDER_CALL_TIMEOUT must be positive")
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return "user=" + c.Database.User +
		" password=" + c.Database.Password +
		" host=" + c.Database.Host +
		" port=" + strconv.Itoa(c.Database.Port) +
		" dbname=" + c.Database.DBName +
		" sslmode=" + c.Database.SSLMode
}

// GetRedisAddr returns the host:port address of the Redis server
func (c *Config) GetRedisAddr() string {
	return c.Redis.Host + ":" + strconv.Itoa(c.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
