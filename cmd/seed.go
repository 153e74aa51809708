package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/chrisdamba/opsboard/internal/generator"
	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo orders and payments CSVs at the configured paths",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		gen := generator.New(cfg)
		if err := gen.Run(); err != nil {
			log.Fatalf("Failed to generate demo data: %v", err)
		}
		log.Printf("Wrote %d demo orders to %s and payments to %s",
			cfg.SeedOrders, cfg.OrdersFile, cfg.PaymentsFile)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int("seed", 42, "Random seed for demo data generation")
	seedCmd.Flags().Int("seed-orders", 5000, "Number of demo orders to generate")
	seedCmd.Flags().Float64("undelivered-fraction", 0.03, "Fraction of orders with no delivery scan")

	viper.BindPFlag("seed", seedCmd.Flags().Lookup("seed"))
	viper.BindPFlag("seed_orders", seedCmd.Flags().Lookup("seed-orders"))
	viper.BindPFlag("undelivered_fraction", seedCmd.Flags().Lookup("undelivered-fraction"))
}
