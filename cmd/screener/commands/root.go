package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	universeFlag string
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Oversold growth stock screener",
	Long: `Oversold Growth Screener CLI

S&P 500 / NASDAQ-100 종목을 12개 기준으로 걸러
과매도 + 고성장 상위 10개 종목을 선정합니다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener api
  go run ./cmd/screener screen --force
  go run ./cmd/screener scheduler start
  go run ./cmd/screener export --out shortlist.xlsx
  go run ./cmd/screener cache show`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags (환경변수보다 우선)
	rootCmd.PersistentFlags().StringVar(&universeFlag, "universe", "", "universe to screen (sp500|nasdaq100|both), overrides UNIVERSE_SOURCE")
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML, overrides SCREENER_STRATEGY_FILE")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
