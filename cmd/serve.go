package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chrisdamba/opsboard/internal/dataset"
	"github.com/chrisdamba/opsboard/internal/events"
	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/chrisdamba/opsboard/internal/predictor"
	"github.com/chrisdamba/opsboard/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the datasets and serve the dashboard API",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		source, closeSource, err := buildSource(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialise dataset source: %v", err)
		}
		defer closeSource()

		pred, err := predictor.Load(cfg.ModelFile, cfg.FeaturesFile)
		if err != nil {
			log.Fatalf("Failed to load delay classifier: %v", err)
		}

		publisher, err := events.NewPublisher(cfg)
		if err != nil {
			log.Fatalf("Failed to create event publisher: %v", err)
		}
		defer publisher.Close()

		srv := server.New(cfg, source, pred, publisher)
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("Server exited: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen-addr", ":8080", "Address the dashboard API listens on")
	serveCmd.Flags().String("model-file", "models/delivery_delay_model.json", "Path to the pre-trained classifier artifact")
	serveCmd.Flags().String("features-file", "models/model_features.json", "Path to the expected-feature-list artifact")

	viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen-addr"))
	viper.BindPFlag("model_file", serveCmd.Flags().Lookup("model-file"))
	viper.BindPFlag("features_file", serveCmd.Flags().Lookup("features-file"))
}

// buildSource picks the configured dataset source. The returned cleanup is
// a no-op for CSV.
func buildSource(ctx context.Context, cfg *models.Config) (dataset.Source, func(), error) {
	switch cfg.Datasource {
	case "csv":
		return dataset.NewCSVSource(cfg), func() {}, nil
	case "postgres":
		source, err := dataset.NewPostgresSource(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return source, source.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported datasource: %s", cfg.Datasource)
	}
}
