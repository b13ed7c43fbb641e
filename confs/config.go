package confs

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port string

	DBDriver   string
	DBURL      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBEmbedded bool

	JWTSecret string
	TokenTTL  time.Duration

	WeatherAPIKey   string
	WeatherBaseURL  string
	WeatherTimeout  time.Duration
	WeatherCacheTTL time.Duration

	HeartbeatTimeout time.Duration
	SweepInterval    time.Duration
	FlowRateLPS      float64
	TZOffsetHours    int

	LogLevel  string
	LogFormat string
}

// LoadConfig loads environment variables from a .env file if present
// and resolves every setting with its default.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("could not load .env: %v", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Port: v.GetString("PORT"),

		DBDriver:   v.GetString("DB_DRIVER"),
		DBURL:      v.GetString("DB_URL"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBEmbedded: v.GetBool("DB_EMBEDDED"),

		JWTSecret: v.GetString("JWT_SECRET"),
		TokenTTL:  time.Duration(v.GetInt("TOKEN_TTL_HOURS")) * time.Hour,

		WeatherAPIKey:   v.GetString("WEATHER_API_KEY"),
		WeatherBaseURL:  v.GetString("WEATHER_BASE_URL"),
		WeatherTimeout:  time.Duration(v.GetInt("WEATHER_TIMEOUT_SECONDS")) * time.Second,
		WeatherCacheTTL: time.Duration(v.GetInt("WEATHER_CACHE_SECONDS")) * time.Second,

		HeartbeatTimeout: time.Duration(v.GetInt("TIMEOUT_SECONDS")) * time.Second,
		SweepInterval:    time.Duration(v.GetInt("SWEEP_INTERVAL_SECONDS")) * time.Second,
		FlowRateLPS:      v.GetFloat64("FLOW_RATE_LPS"),
		TZOffsetHours:    v.GetInt("TZ_OFFSET_HOURS"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3536")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_EMBEDDED", false)
	v.SetDefault("JWT_SECRET", "siar-dev-secret")
	v.SetDefault("TOKEN_TTL_HOURS", 24)
	v.SetDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("WEATHER_TIMEOUT_SECONDS", 5)
	v.SetDefault("WEATHER_CACHE_SECONDS", 300)
	v.SetDefault("TIMEOUT_SECONDS", 30)
	v.SetDefault("SWEEP_INTERVAL_SECONDS", 0)
	v.SetDefault("FLOW_RATE_LPS", 0.05)
	v.SetDefault("TZ_OFFSET_HOURS", -6)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Location is the fixed offset zone used for calendar bucketing.
func (c *Config) Location() *time.Location {
	return time.FixedZone("SIAR", c.TZOffsetHours*3600)
}
