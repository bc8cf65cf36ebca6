package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		URI     string
		Name    string
		Timeout time.Duration
	}

	StorageConfig struct {
		Bucket          string
		Region          string
		Endpoint        string // S3-compatible endpoint override (minio, localstack..)
		AccessKeyID     string
		SecretAccessKey string
		PublicBaseURL   string
	}

	RateLimitConfig struct {
		OTPPerMinute int
		Burst        int
	}

	Config struct {
		AppName                   string
		Env                       string
		Build                     string
		WorkDir                   string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		RefreshSecretKey          string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		OTPTimeoutDelta           time.Duration
		AdminEmail                string
		DefaultFromEmailAddress   string
		SendgridAPIKey            string
		RollbarToken              string
		CORSOrigins               []string
		MaxUploadSize             int64

		Server    ServerConfig
		Database  DatabaseConfig
		Storage   StorageConfig
		RateLimit RateLimitConfig
	}
)

// IsProd reports whether the app runs in the production environment.
func (c *Config) IsProd() bool { return c.Env == "PROD" }

// DefaultFromEmail returns the sender address used for outgoing mails.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmailAddress); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmailAddress}
}

// ServerAddress returns the "host:port" the API server listens on.
func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "Polytechnic SIS")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "dev-jwt-secret")
	v.SetDefault("refreshSecretKey", "dev-refresh-secret")
	v.SetDefault("jwtExpirationDelta", 2*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("otpTimeoutDelta", 10*time.Minute)
	v.SetDefault("adminEmail", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("corsOrigins", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("maxUploadSize", 50*1024*1024)

	v.SetDefault("serverHost", "")
	v.SetDefault("port", "5000")
	v.SetDefault("debugHost", "localhost:5050")
	v.SetDefault("readTimeout", 30*time.Second)
	v.SetDefault("writeTimeout", 60*time.Second)
	v.SetDefault("shutdownTimeout", 10*time.Second)

	v.SetDefault("mongodbUri", "mongodb://localhost:27017")
	v.SetDefault("mongodbName", "polytechnic-sis")
	v.SetDefault("mongodbTimeout", 10*time.Second)

	v.SetDefault("awsBucketName", "")
	v.SetDefault("awsRegion", "ap-south-1")
	v.SetDefault("awsEndpoint", "")
	v.SetDefault("awsAccessKeyId", "")
	v.SetDefault("awsSecretAccessKey", "")
	v.SetDefault("awsPublicBaseUrl", "")

	v.SetDefault("otpRatePerMinute", 5)
	v.SetDefault("otpRateBurst", 3)
}

// requireIfProd fails unless each key was set to something else than its development default.
func requireIfProd(v *viper.Viper, env string, keys ...string) error {
	defaults := viper.New()
	setDefaults(defaults)
	for _, key := range keys {
		if val := v.GetString(key); !v.IsSet(key) || val == "" || val == defaults.GetString(key) {
			return errors.Errorf("%s_%s is required in production", env, strings.ToUpper(key))
		}
	}
	return nil
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file
// and the environment (prefixed with the env name, eg. PROD_SECRETKEY).
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:                   v.GetString("appName"),
		Env:                       env,
		Build:                     v.GetString("build"),
		WorkDir:                   wd,
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		SecretKey:                 v.GetString("secretKey"),
		RefreshSecretKey:          v.GetString("refreshSecretKey"),
		JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
		JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		OTPTimeoutDelta:           v.GetDuration("otpTimeoutDelta"),
		AdminEmail:                CleanString(v.GetString("adminEmail"), true /* lower */),
		DefaultFromEmailAddress:   v.GetString("defaultFromEmail"),
		SendgridAPIKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		CORSOrigins:               SplitList(v.GetString("corsOrigins")),
		MaxUploadSize:             v.GetInt64("maxUploadSize"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Port:            v.GetString("port"),
			DebugHost:       v.GetString("debugHost"),
			ReadTimeout:     v.GetDuration("readTimeout"),
			WriteTimeout:    v.GetDuration("writeTimeout"),
			ShutdownTimeout: v.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			URI:     v.GetString("mongodbUri"),
			Name:    v.GetString("mongodbName"),
			Timeout: v.GetDuration("mongodbTimeout"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("awsBucketName"),
			Region:          v.GetString("awsRegion"),
			Endpoint:        v.GetString("awsEndpoint"),
			AccessKeyID:     v.GetString("awsAccessKeyId"),
			SecretAccessKey: v.GetString("awsSecretAccessKey"),
			PublicBaseURL:   v.GetString("awsPublicBaseUrl"),
		},
		RateLimit: RateLimitConfig{
			OTPPerMinute: v.GetInt("otpRatePerMinute"),
			Burst:        v.GetInt("otpRateBurst"),
		},
	}

	if conf.IsProd() {
		if err = requireIfProd(v, env, "secretKey", "refreshSecretKey"); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

// NewTestConfig returns a Config suitable for tests; it never reads the environment.
func NewTestConfig() *Config {
	return &Config{
		AppName:                   "Polytechnic SIS",
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		SecretKey:                 "test-secret",
		RefreshSecretKey:          "test-refresh-secret",
		JWTExpirationDelta:        10 * time.Minute,
		JWTRefreshExpirationDelta: 4 * time.Hour,
		OTPTimeoutDelta:           10 * time.Minute,
		AdminEmail:                "admin@polytechnic.test",
		DefaultFromEmailAddress:   "noreply@polytechnic.test",
		CORSOrigins:               []string{"http://localhost:3000"},
		MaxUploadSize:             5 * 1024 * 1024,
		Server: ServerConfig{
			Port:            "5000",
			ShutdownTimeout: time.Second,
		},
		Storage: StorageConfig{
			Bucket: "test-bucket",
			Region: "ap-south-1",
		},
		RateLimit: RateLimitConfig{
			OTPPerMinute: 600,
			Burst:        100,
		},
	}
}
