package config

import (
	"os"
	"strconv"
)

type Config struct {
	DB       *DBconfig
	RabbitMq *RabbitMqconfig
	Srv      *Serviceconfig
	App      *Appconfig
	Log      *Loggerconfig
}

type DBconfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	MaxRetries int    `yaml:"max_retries"`
}

type RabbitMqconfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type Serviceconfig struct {
	OrderServicePort  string `yaml:"order_service"`
	AuthServicePort   string `yaml:"auth_service"`
	DriverGatewayPort string `yaml:"driver_gateway"`
	AdminServicePort  string `yaml:"admin_service"`
}

type Appconfig struct {
	JwtSecret string `yaml:"jwt_secret"`

	// Fee policy knobs, all amounts in ETB.
	DeliveryFee float64 `yaml:"delivery_fee"`
	PlatformFee float64 `yaml:"platform_fee"`
	PaymentFee  float64 `yaml:"payment_fee"`

	// Idempotency records expire after this many seconds.
	IdempotencyTTL int `yaml:"idempotency_ttl"`
}

type Loggerconfig struct {
	Level string `yaml:"level"`
}

func New() (*Config, error) {
	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			return def
		}
		return val
	}

	getEnvFloat := func(key string, def float64) float64 {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return def
		}
		return val
	}

	cnf := &Config{
		DB: &DBconfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "fooddash_user"),
			Password:   getEnv("DB_PASSWORD", "fooddash_pass"),
			Database:   getEnv("DB_NAME", "fooddash_db"),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
		},
		RabbitMq: &RabbitMqconfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Srv: &Serviceconfig{
			OrderServicePort:  getEnv("ORDER_SERVICE_PORT", "3000"),
			AuthServicePort:   getEnv("AUTH_SERVICE_PORT", "3001"),
			DriverGatewayPort: getEnv("DRIVER_GATEWAY_PORT", "3002"),
			AdminServicePort:  getEnv("ADMIN_SERVICE_PORT", "3004"),
		},
		App: &Appconfig{
			JwtSecret:      getEnv("JWT_SECRET", "dev-secret"),
			DeliveryFee:    getEnvFloat("DELIVERY_FEE_ETB", 50),
			PlatformFee:    getEnvFloat("PLATFORM_FEE_ETB", 10),
			PaymentFee:     getEnvFloat("PAYMENT_FEE_ETB", 5),
			IdempotencyTTL: getEnvInt("IDEMPOTENCY_TTL_SECONDS", 3600),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	return cnf, nil
}
