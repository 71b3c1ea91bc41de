package database

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	options := map[string]string{
		"host":   host,
		"port":   fmt.Sprintf("%d", port),
		"user":   cfg.User,
		"dbname": cfg.Name,
	}
	if cfg.Password != "" {
		options["password"] = cfg.Password
	}
	options["sslmode"] = "disable"
	for key, value := range cfg.Options {
		options[key] = value
	}

	return encodeOptions(options, " "), nil
}
