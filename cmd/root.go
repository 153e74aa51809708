package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "opsboard",
	Short: "Operational BI dashboard backend for order and delivery KPIs",
	Long: `opsboard loads cleaned order and payment exports, computes revenue and
delivery-SLA metrics, serves them to the dashboard front-end over HTTP, and
scores delivery-delay risk with a pre-trained classifier.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.opsboard.yaml)")

	rootCmd.PersistentFlags().String("orders-file", "data/cleaned/orders_cleaned.csv", "Path to the cleaned orders CSV")
	rootCmd.PersistentFlags().String("payments-file", "data/cleaned/payments_cleaned.csv", "Path to the cleaned payments CSV")
	rootCmd.PersistentFlags().String("datasource", "csv", "Dataset source: csv or postgres")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection string (datasource=postgres)")
	rootCmd.PersistentFlags().Int("sla-days", 7, "Delivery SLA threshold in whole days")
	rootCmd.PersistentFlags().Bool("kafka-enabled", false, "Publish snapshot and prediction events to Kafka")
	rootCmd.PersistentFlags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")

	viper.BindPFlag("orders_file", rootCmd.PersistentFlags().Lookup("orders-file"))
	viper.BindPFlag("payments_file", rootCmd.PersistentFlags().Lookup("payments-file"))
	viper.BindPFlag("datasource", rootCmd.PersistentFlags().Lookup("datasource"))
	viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("sla_days", rootCmd.PersistentFlags().Lookup("sla-days"))
	viper.BindPFlag("kafka_enabled", rootCmd.PersistentFlags().Lookup("kafka-enabled"))
	viper.BindPFlag("kafka_broker_list", rootCmd.PersistentFlags().Lookup("kafka-broker-list"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".opsboard")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
