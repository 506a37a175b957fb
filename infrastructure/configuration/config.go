package configuration

import (
	"fmt"
	"os"
	"strconv"

	"foodcollab/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App          App          `json:"app"`
	Database     Database     `json:"database"`
	RedisClient  RedisClient  `json:"redisClient"`
	OAuth        OAuth        `json:"oauth"`
	Webhook      Webhook      `json:"webhook"`
	Verification Verification `json:"verification"`
	Pubsub       Pubsub       `json:"pubsub"`
	Logger       Logger       `json:"logger"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
	BaseURL   string `json:"baseURL"`
	// DefaultRedirectPath is where failed callbacks land when no state binding is known.
	DefaultRedirectPath string `json:"defaultRedirectPath"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// OAuth holds third-party platform OAuth client credentials
type OAuth struct {
	Instagram OAuthClient `json:"instagram"`
}

type OAuthClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

type Webhook struct {
	VerifyToken string `json:"verifyToken"`
}

// Verification holds the worker policy knobs. Retry delay and attempt cap are
// product policy, configurable rather than hard-coded.
type Verification struct {
	MaxAttempts       int `json:"maxAttempts"`
	RetryDelayMinutes int `json:"retryDelayMinutes"`
	BatchSize         int `json:"batchSize"`
	IntervalSeconds   int `json:"intervalSeconds"`
	StateMaxAgeMin    int `json:"stateMaxAgeMinutes"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initVerification(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = "5432"
	}
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		C.App.BaseURL = v
	}
	if C.App.DefaultRedirectPath == "" {
		C.App.DefaultRedirectPath = "/influencer"
	}
	if v := os.Getenv("INSTAGRAM_CLIENT_ID"); v != "" {
		C.OAuth.Instagram.ClientID = v
	}
	if v := os.Getenv("INSTAGRAM_CLIENT_SECRET"); v != "" {
		C.OAuth.Instagram.ClientSecret = v
	}
	if v := os.Getenv("INSTAGRAM_REDIRECT_URI"); v != "" {
		C.OAuth.Instagram.RedirectURI = v
	}
	// One canonical redirect URI derived from the deployment base URL.
	if C.OAuth.Instagram.RedirectURI == "" && C.App.BaseURL != "" {
		C.OAuth.Instagram.RedirectURI = C.App.BaseURL + "/auth/instagram/callback"
	}
	if len(C.OAuth.Instagram.Scopes) == 0 {
		C.OAuth.Instagram.Scopes = []string{
			"instagram_basic",
			"instagram_manage_insights",
			"pages_show_list",
			"pages_read_engagement",
		}
	}
	if v := os.Getenv("WEBHOOK_VERIFY_TOKEN"); v != "" {
		C.Webhook.VerifyToken = v
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initVerification(C *Config) {
	if C.Verification.MaxAttempts == 0 {
		C.Verification.MaxAttempts = 3
	}
	if C.Verification.RetryDelayMinutes == 0 {
		C.Verification.RetryDelayMinutes = 5
	}
	if C.Verification.BatchSize == 0 {
		C.Verification.BatchSize = 50
	}
	if C.Verification.IntervalSeconds == 0 {
		C.Verification.IntervalSeconds = 60
	}
	if C.Verification.StateMaxAgeMin == 0 {
		C.Verification.StateMaxAgeMin = 15
	}
}
