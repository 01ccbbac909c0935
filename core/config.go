package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environments
const (
	EnvDev  = "DEV" // local; default
	EnvTest = "TEST"
	EnvQA   = "QA"
	EnvProd = "PROD"
)

// Database drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type (
	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Client       ClientConfig
	}

	ServerConfig struct {
		Host            string
		Port            int
		DebugHost       string
		ShutdownTimeout time.Duration
		StaticDir       string   // production SPA assets
		AllowedOrigins  []string // CORS
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Driver string // mongo | postgres | memory
		URI    string
		Name   string
	}

	ClientConfig struct {
		BaseURL string
	}
)

func (sc ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

// IsProduction reports whether static assets should be served instead of the development root.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

// NewConfig reads the configuration from the environment.
// Variables are prefixed with the environment name (e.g. DEV_SERVER_PORT) and may be seeded by `config/.env.<env>`.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = EnvDev
	}
	loadDotEnv(env)

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetDefault("appName", "Student Records")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == EnvDev || env == EnvTest)
	v.SetDefault("testMode", env == EnvTest)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.staticDir", filepath.Join("client", "dist"))
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.disableReqLogs", env == EnvProd)
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "students")
	v.SetDefault("client.baseURL", "http://localhost:5000/api")

	// un-prefixed aliases kept for container platforms
	_ = v.BindEnv("server.port", env+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.uri", env+"_DATABASE_URI", "DATABASE_URI")
	_ = v.BindEnv("client.baseURL", env+"_CLIENT_BASEURL", "API_URL")
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			StaticDir:       v.GetString("server.staticDir"),
			AllowedOrigins:  v.GetStringSlice("server.allowedOrigins"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			URI:    v.GetString("database.uri"),
			Name:   v.GetString("database.name"),
		},
		Client: ClientConfig{
			BaseURL: strings.TrimRight(v.GetString("client.baseURL"), "/"),
		},
	}
}

// loadDotEnv loads `config/.env.<env>` if it exists (ignored if it does not).
func loadDotEnv(env string) {
	dotEnvPath := filepath.Join(projectRoot(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
}

// projectRoot walks up from the working directory to the one holding go.mod,
// since `go test` runs inside each package directory.
// A deployed binary has no go.mod around: the working directory is used.
func projectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	for dir := wd; ; {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}
