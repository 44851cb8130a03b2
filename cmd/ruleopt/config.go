package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initConfig() error {
	if flagCfgFile != "" {
		viper.SetConfigType("yaml")
		viper.SetConfigFile(flagCfgFile)
		return viper.ReadInConfig()
	}
	return nil
}

func bindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&flagCfgFile, "config", "", "config file overlaying the flags below")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	cmd.PersistentFlags().String("input", "", "path to the YAML table document to optimize (required)")
	cmd.PersistentFlags().String("output", "", "path to write the optimized table as rule text; defaults to stdout")
	cmd.PersistentFlags().Int("max-columns", 0, "selector registry column cap per chain; 0 uses the built-in default")

	cmd.PersistentFlags().Bool("stats-enabled", false, "serve Prometheus metrics over HTTP while optimizing")
	cmd.PersistentFlags().String("stats-listen", "0.0.0.0", "listen address for the Prometheus endpoint")
	cmd.PersistentFlags().String("stats-port", "10234", "listen port for the Prometheus endpoint")

	viper.BindPFlag("input", cmd.PersistentFlags().Lookup("input"))
	viper.BindPFlag("output", cmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("max-columns", cmd.PersistentFlags().Lookup("max-columns"))
	viper.BindPFlag("stats-enabled", cmd.PersistentFlags().Lookup("stats-enabled"))
	viper.BindPFlag("stats-listen", cmd.PersistentFlags().Lookup("stats-listen"))
	viper.BindPFlag("stats-port", cmd.PersistentFlags().Lookup("stats-port"))
}
