package cmd

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/chrisdamba/opsboard/internal/events"
	"github.com/chrisdamba/opsboard/internal/export"
	"github.com/chrisdamba/opsboard/internal/kpi"
	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Compute the KPI snapshot once, print it, and optionally export it",
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

		orders, payments, err := source.Load(ctx)
		if err != nil {
			log.Fatalf("Failed to load datasets: %v", err)
		}

		snapshot := kpi.Compute(orders, payments, cfg.SLADays)
		printSnapshot(snapshot)

		publisher, err := events.NewPublisher(cfg)
		if err != nil {
			log.Fatalf("Failed to create event publisher: %v", err)
		}
		defer publisher.Close()
		if err := publisher.SnapshotComputed(snapshot); err != nil {
			log.Printf("Failed to publish snapshot event: %v", err)
		}

		if cfg.OutputPath != "" || cfg.OutputDestination != "local" {
			exporter, err := export.NewWriter(cfg)
			if err != nil {
				log.Fatalf("Failed to create exporter: %v", err)
			}
			if err := exporter.Export(snapshot); err != nil {
				log.Fatalf("Failed to export snapshot: %v", err)
			}
			log.Printf("Snapshot exported as %s to %s", cfg.OutputFormat, cfg.OutputDestination)
		}
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().String("output-path", "", "Local directory to export the snapshot into")
	snapshotCmd.Flags().String("output-format", "csv", "Export format: csv, json or parquet")
	snapshotCmd.Flags().String("output-destination", "local", "Export destination: local or s3")

	viper.BindPFlag("output_path", snapshotCmd.Flags().Lookup("output-path"))
	viper.BindPFlag("output_format", snapshotCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output_destination", snapshotCmd.Flags().Lookup("output-destination"))
}

func printSnapshot(snapshot kpi.Snapshot) {
	fmt.Printf("Total Orders:        %d\n", snapshot.TotalOrders)
	fmt.Printf("Total Revenue:       %.0f\n", math.Round(snapshot.TotalRevenue))
	if math.IsNaN(snapshot.AvgDeliveryDays) {
		fmt.Println("Avg Delivery Time:   no data")
		fmt.Println("Late Delivery Rate:  no data")
	} else {
		fmt.Printf("Avg Delivery Time:   %.1f days\n", snapshot.AvgDeliveryDays)
		fmt.Printf("Late Delivery Rate:  %.1f%%\n", snapshot.LatePercentage)
	}

	fmt.Println("\nOrders Trend (Monthly)")
	for _, point := range snapshot.MonthlyTrend {
		fmt.Printf("  %s  %d\n", point.Month, point.Orders)
	}

	fmt.Println("\nDelivery SLA Performance")
	for _, status := range snapshot.SLABreakdown {
		fmt.Printf("  %-8s %d\n", status.Status, status.Count)
	}
}
