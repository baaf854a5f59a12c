package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/services"
)

// Config holds everything main needs to start the server
type Config struct {
	ConnectionString   string
	JWTSecretKey       string
	JWTIssuer          string
	JWTAudience        string
	JWTTokenDuration   time.Duration
	AllowedOrigins     []string
	ElasticsearchURI   string
	ElasticsearchIndex string
	Port               string
	Debug              bool
}

// LoadConfig reads the environment, after loading .env when one exists
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	duration, err := getEnvDuration("JWT_TOKEN_DURATION", services.DefaultTokenDuration)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ConnectionString:   getEnv("CONNECTION_STRING", "file:taskplanner.db"),
		JWTSecretKey:       os.Getenv("JWT_SECRET_KEY"),
		JWTIssuer:          getEnv("JWT_ISSUER", "TaskPlannerAPI"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "TaskPlannerAPIUsers"),
		JWTTokenDuration:   duration,
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		ElasticsearchURI:   os.Getenv("ELASTICSEARCH_URI"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", services.DefaultSearchIndex),
		Port:               getEnv("PORT", "3001"),
		Debug:              getEnvBool("DEBUG", false),
	}
	if cfg.JWTSecretKey == "" {
		return nil, services.ErrMissingSigningKey
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.WithField("key", key).Warnf("Ignoring invalid boolean %q", raw)
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return value, nil
}

func getEnvList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
