// cartctl is a terminal cart client. It drives the same synchronizer the
// storefront embeds, so guest carts, login reconciliation, and optimistic
// remote replication all behave exactly as they do in the web client.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	apiURL   string
	stateDir string
	verbose  bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cartctl",
	Short: "SOLEKTA cart client",
	Long: `cartctl manages a SOLEKTA shopping cart from the terminal.

The cart lives locally and is replicated to the cart service while a
session token is present. Without a token the cart is read-only: run
'cartctl login' with a JWT issued by the storefront to mutate it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cartctl"
	}
	return filepath.Join(home, ".cartctl")
}

func main() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", getEnv("CART_API_URL", "http://localhost:8081/api"), "cart service base URL")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", getEnv("CARTCTL_DIR", defaultStateDir()), "directory for the local cart and session token")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	addItemCmd.Flags().Int64Var(&addProductID, "product", 0, "product ID")
	addItemCmd.Flags().StringVar(&addName, "name", "", "product name")
	addItemCmd.Flags().Float64Var(&addPrice, "price", 0, "unit price")
	addItemCmd.Flags().IntVar(&addQuantity, "quantity", 1, "quantity")
	addItemCmd.MarkFlagRequired("product")
	addItemCmd.MarkFlagRequired("price")

	addServiceCmd.Flags().Int64Var(&svcID, "service", 0, "service ID")
	addServiceCmd.Flags().StringVar(&svcName, "name", "", "service name")
	addServiceCmd.Flags().IntVar(&svcPeriod, "period", 1, "rental period length")
	addServiceCmd.Flags().StringVar(&svcPeriodType, "period-type", "DAILY", "rental period type (HOURLY or DAILY)")
	addServiceCmd.Flags().Float64Var(&svcPrice, "price", 0, "price per period")
	addServiceCmd.MarkFlagRequired("service")
	addServiceCmd.MarkFlagRequired("price")

	rootCmd.AddCommand(
		loginCmd,
		logoutCmd,
		statusCmd,
		showCmd,
		addItemCmd,
		updateCmd,
		removeCmd,
		addServiceCmd,
		removeServiceCmd,
		clearCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
