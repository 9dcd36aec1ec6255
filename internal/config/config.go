package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	LogLevel       string
	UpworkClientID string
	UpworkSecret   string
	UpworkBaseURL  string
	CallbackURL    string
}

// New loads configuration from the environment. A local .env file is
// applied first when present; real environment variables win.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:     getenv("LISTENADDR", ":8080"),
		LogLevel:       os.Getenv("LOGLEVEL"),
		UpworkClientID: os.Getenv("UPWORKCLIENTID"),
		UpworkSecret:   os.Getenv("UPWORKSECRET"),
		UpworkBaseURL:  getenv("UPWORKBASEURL", "https://api.upwork.com"),
		CallbackURL:    os.Getenv("UPWORKCALLBACKURL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
