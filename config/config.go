package config

import (
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/alisha-sapkal/aptos/internal/ledger"
	"github.com/alisha-sapkal/aptos/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

type AptosConfig struct {
	NodeURL       string
	LedgerTimeout time.Duration
}

func LoadAptosConfig() (*AptosConfig, error) {
	nodeURL := os.Getenv("APTOS_NODE_URL")
	if nodeURL == "" {
		return nil, fmt.Errorf("APTOS_NODE_URL is required")
	}

	timeout := 5 * time.Second
	if raw := os.Getenv("APTOS_LEDGER_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid APTOS_LEDGER_TIMEOUT: %v", err)
		}
		timeout = parsed
	}

	return &AptosConfig{
		NodeURL:       nodeURL,
		LedgerTimeout: timeout,
	}, nil
}

func InitAptosClient(cfg *AptosConfig) (*ledger.AptosClient, error) {
	client := ledger.NewAptosClient(cfg.NodeURL, cfg.LedgerTimeout)

	return client, nil
}

type PinataConfig struct {
	JWT string
}

func LoadPinataConfig() (*PinataConfig, error) {
	return &PinataConfig{
		JWT: os.Getenv("PINATA_JWT"),
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	// TranslateError lets the ticket store see unique-key conflicts as
	// gorm.ErrDuplicatedKey instead of a driver-specific error.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.Role{}, &models.User{}, &models.Event{}, &models.Ticket{})
	if err != nil {
		return nil, err
	}

	seedRoles(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: "organizer"},
		{Name: "staff"},
		{Name: "admin"},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}
