package cmd

import (
	"fmt"
	"os"

	"github.com/scribeworks/scribe/pkg/config"
	"github.com/scribeworks/scribe/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Chat with your transcribed media",
	Long:  `scribe streams answers about transcribed media files, with citations back to the exact timestamps that substantiate them.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", ".scribe/settings.yaml", "config file")

	rootCmd.PersistentFlags().StringP("endpoint", "e", "", "websocket chat endpoint")
	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))

	rootCmd.PersistentFlags().StringP("username", "u", "", "username sent with each request")
	viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().Bool("strict-decode", false, "fail on malformed stream frames instead of skipping them")
	viper.BindPFlag("chat.strict_decode", rootCmd.PersistentFlags().Lookup("strict-decode"))
}

func initConfig() {
	if err := config.Init(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
}
