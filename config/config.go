package config

import (
	"log"

	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                int    `env:"PORT" envDefault:"8080"`
	Dsn                 string `env:"DSN" envDefault:"postgres://localhost:5432/meetspot"`
	JwtSecret           string `env:"JWT_SECRET"`
	JwtExpires          string `env:"JWT_EXPIRES" envDefault:"15m"`
	RefreshSecret       string `env:"REFRESH_SECRET"`
	RefreshExpiry       string `env:"REFRESH_EXPIRY" envDefault:"720h"`
	GoogleClientID      string `env:"GOOGLE_CLIENT_ID"`
	FCMProjectID        string `env:"FCM_PROJECT_ID"`
	FCMCredentialsFile  string `env:"FCM_CREDENTIALS_FILE"`
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	DefaultRadiusMeters float64 `env:"DEFAULT_RADIUS_METERS" envDefault:"5000"`
	FinishSweepInterval string `env:"FINISH_SWEEP_INTERVAL" envDefault:"1m"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Printf("[Env]: unable to load .env file %v", loadErr)
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		log.Printf("[Env]: failed to parse environment variables: %v", parseErr)
	}

	return &cfg
}
