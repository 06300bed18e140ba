package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	MongoURI    string `envconfig:"MONGO_URI"`
	MongoDB     string `envconfig:"MONGO_DB" default:"storefront"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongo"`
	Port        string `envconfig:"PORT" default:"8080"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogFile   string `envconfig:"LOG_FILE"`

	UploadDir           string `envconfig:"UPLOAD_DIR" default:"public/uploads"`
	UploadURLPrefix     string `envconfig:"UPLOAD_URL_PREFIX" default:"/public/uploads"`
	MaxUploadBytes      int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`
	DefaultProductImage string `envconfig:"DEFAULT_PRODUCT_IMAGE" default:"/public/uploads/sample.image.jpg"`
	DefaultProfileImage string `envconfig:"DEFAULT_PROFILE_IMAGE" default:"defaultuserpic.png"`

	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"2m"`
	CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`

	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

// LoadConfig carga .env (solo si existe) y luego las variables de entorno
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	// En producción no hay .env y se usan las variables del sistema
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			logger.Warnf("⚠️ Error loading .env file: %v", err)
		} else {
			logger.Info("✅ .env file loaded successfully")
		}
	} else {
		logger.Info("🌐 Using system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=%s", DriverMongo)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// HasAdminSeed indica si hay que crear la cuenta de administrador al arrancar
func (c *Config) HasAdminSeed() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}
