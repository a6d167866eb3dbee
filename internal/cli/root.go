// Package cli implements the cmimpute command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brookluers/cmimpute/internal/config"
)

// Version is the release of the command.
const Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cmimpute",
	Short: "Conditional mean imputation of censored covariates",
	Long: `cmimpute replaces right-censored values of a covariate by their
conditional mean given that the true value exceeds the censoring time,
using a Kaplan-Meier curve or a Cox model of the censored variable.

Multiple imputation draws bootstrap samples, imputes each completed data
set and pools a linear regression with Rubin's rules.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cmimpute %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.cmimpute/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	// Model flags shared by impute, mi and curve
	pf.String("time", "w", "column holding min(X, C)")
	pf.String("event", "delta", "column holding the event indicator")
	pf.StringSlice("covariates", nil, "covariates of a Cox model (Kaplan-Meier if empty)")
	pf.String("tail", "expo", "tail policy (zero, carryforward, expo)")
	pf.String("before-first", "origin", "censored times before the first event (origin, error)")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("time", pf.Lookup("time"))
	_ = viper.BindPFlag("event", pf.Lookup("event"))
	_ = viper.BindPFlag("covariates", pf.Lookup("covariates"))
	_ = viper.BindPFlag("tail", pf.Lookup("tail"))
	_ = viper.BindPFlag("before_first", pf.Lookup("before-first"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	config.Bind(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".cmimpute"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// settings loads the configuration and builds its logger.
func settings() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return cfg, nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	log, err := cfg.Logger()
	if err != nil {
		return cfg, nil, err
	}
	log.SetOutput(os.Stderr)
	return cfg, log, nil
}
