package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

type Config struct {
	OrdersFile    string `mapstructure:"orders_file"`
	PaymentsFile  string `mapstructure:"payments_file"`
	Datasource    string `mapstructure:"datasource"`
	DatabaseURL   string `mapstructure:"database_url"`
	ModelFile     string `mapstructure:"model_file"`
	FeaturesFile  string `mapstructure:"features_file"`
	SLADays       int    `mapstructure:"sla_days"`
	ListenAddr    string `mapstructure:"listen_addr"`
	KafkaEnabled  bool   `mapstructure:"kafka_enabled"`
	KafkaBrokers  string `mapstructure:"kafka_broker_list"`
	SnapshotTopic string `mapstructure:"snapshot_topic"`
	PredictTopic  string `mapstructure:"prediction_topic"`
	// Snapshot export
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	OutputFormat      string             `mapstructure:"output_format"`
	OutputDestination string             `mapstructure:"output_destination"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	// Demo data generation
	Seed                int       `mapstructure:"seed"`
	SeedOrders          int       `mapstructure:"seed_orders"`
	StartDate           time.Time `mapstructure:"start_date"`
	EndDate             time.Time `mapstructure:"end_date"`
	UndeliveredFraction float64   `mapstructure:"undelivered_fraction"`
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("orders_file", "data/cleaned/orders_cleaned.csv")
	viper.SetDefault("payments_file", "data/cleaned/payments_cleaned.csv")
	viper.SetDefault("datasource", "csv")
	viper.SetDefault("model_file", "models/delivery_delay_model.json")
	viper.SetDefault("features_file", "models/model_features.json")
	viper.SetDefault("sla_days", DefaultSLADays)
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("snapshot_topic", "kpi.snapshot.computed")
	viper.SetDefault("prediction_topic", "delay.prediction.made")
	viper.SetDefault("output_format", "csv")
	viper.SetDefault("output_destination", "local")
	viper.SetDefault("output_folder", "snapshots")
	viper.SetDefault("seed", 42)
	viper.SetDefault("seed_orders", 5000)
	viper.SetDefault("undelivered_fraction", 0.03)
	viper.SetDefault("start_date", time.Now().AddDate(-1, 0, 0).Format(time.RFC3339))
	viper.SetDefault("end_date", time.Now().Format(time.RFC3339))

	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if config.Datasource == "postgres" && config.DatabaseURL == "" {
		return nil, fmt.Errorf("datasource is postgres but database_url is empty")
	}

	return &config, nil
}
