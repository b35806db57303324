package config

import (
	"log"

	"github.com/spf13/viper"
)

// MaxMembersDefault is the community capacity ceiling.
const MaxMembersDefault = 144000

type Config struct {
	DatabaseURL    string   `mapstructure:"database_url"`
	ServerPort     string   `mapstructure:"server_port"`
	StorageDriver  string   `mapstructure:"storage_driver"`
	MaxMembers     int      `mapstructure:"max_members"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Seed           Seed     `mapstructure:"seed"`
}

// Seed configures the founder bootstrap for an empty store.
type Seed struct {
	Enabled      bool   `mapstructure:"enabled"`
	FounderName  string `mapstructure:"founder_name"`
	FounderEmail string `mapstructure:"founder_email"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.StorageDriver == "" {
		config.StorageDriver = "postgres"
	}
	if config.MaxMembers == 0 {
		config.MaxMembers = MaxMembersDefault
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if config.Seed.FounderName == "" {
		config.Seed.FounderName = "Founder"
	}
	if config.Seed.FounderEmail == "" {
		config.Seed.FounderEmail = "founder@144k.com"
	}

	if config.StorageDriver == "postgres" && config.DatabaseURL == "" {
		log.Fatal("database_url must be set for the postgres storage driver")
	}

	return &config
}
