// Command adctl is the operator CLI for the ad studio backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "adctl",
	Short:         "Operate the ad studio backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	pricingCmd.Flags().StringVar(&pricingFile, "file", "", "Pricing YAML to validate (default: PRICING_FILE or built-in)")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "operator", "Role claim: operator, editor or viewer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Lifetime (default: JWT_EXPIRATION)")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(pricingCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(platformsCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if verbose {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}
