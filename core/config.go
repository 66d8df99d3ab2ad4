package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		DisableReqLogs            bool
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		SessionCheckTimeout       time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AttendanceConfig struct {
		Timezone         string
		OfficeStart      string // HH:MM, local to Timezone
		GracePeriod      time.Duration
		AbsenteeSchedule string // cron spec
	}

	UploadsConfig struct {
		MaxFileSize int64 // bytes, decoded
	}

	Config struct {
		AppName          string
		Build            string
		Env              string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromName  string
		DefaultFromEmail string
		RollbarToken     string
		SendgridApiKey   string
		WorkDir          string

		Server     ServerConfig
		Database   DatabaseConfig
		Attendance AttendanceConfig
		Uploads    UploadsConfig
	}
)

// Address returns the host:port the API listens on.
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Location returns the attendance time zone, falling back to UTC.
func (c AttendanceConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) DefaultFrom() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromEmail}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "ADZ4NEEDZ")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "u7#q0-ad$z4n!eedz(2x^w8+portal)m1r&k5t9c3e")
	v.SetDefault("frontendBaseURL", "http://localhost:5000")
	v.SetDefault("defaultFromName", "ADZ4NEEDZ")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.debugHost", "localhost:5001")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.sessionCheckTimeout", 5*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "adz4needz")
	v.SetDefault("database.user", "adz4needz")
	v.SetDefault("database.password", "adz4needz")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("attendance.timezone", "Asia/Kolkata")
	v.SetDefault("attendance.officeStart", "10:00")
	v.SetDefault("attendance.gracePeriod", 15*time.Minute)
	v.SetDefault("attendance.absenteeSchedule", "55 23 * * 1-6") // office days are Monday to Saturday

	v.SetDefault("uploads.maxFileSize", 5<<20)
}

// NewConfig loads the configuration from defaults, the optional config/.env.<env> file and the environment.
// Environment variables are prefixed with the env name, eg. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir, _ := os.Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	conf.WorkDir = workDir
	return conf
}

// NewTestConfig returns a config suitable for tests: no external services, in-memory storage.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("testMode", true)
	v.Set("database.engine", "memory")

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		panic(fmt.Sprintf("config.Unmarshal: %v", err))
	}
	conf.Env = "TEST"
	return conf
}
