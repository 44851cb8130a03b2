package main

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comcast-ravel/ruleopt/pkg/optimizer"
	"github.com/comcast-ravel/ruleopt/pkg/ruleset"
)

var (
	flagDebug   bool
	flagCfgFile string

	logger *logrus.Logger
	log    logrus.FieldLogger

	logLevel logrus.Level = logrus.InfoLevel
)

func init() {
	logger = logrus.New()
	logger.Formatter = new(logrus.TextFormatter)
	logger.Formatter.(*logrus.TextFormatter).FullTimestamp = true
	logger.SetLevel(logLevel)
	logger.Out = os.Stderr

	log = logger.WithFields(logrus.Fields{"cmd": "ruleopt"})

	cobra.OnInitialize(func() {
		if flagDebug {
			logger.SetLevel(logrus.DebugLevel)
			logger.Debugln("Debug logging enabled!")
		}
		if err := initConfig(); err != nil {
			log.Error(err)
			os.Exit(1)
		}
	})

	bindFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:           "ruleopt",
	Short:         "ruleopt merges adjacent packet-filter rules that differ only in matched values",
	Long:          "ruleopt reads a table of chains and rules, merges every adjacent run of rules that differ only in the values they match, and writes the optimized table back out.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOptimize,
}

func runOptimize(cmd *cobra.Command, args []string) error {
	inputPath := viper.GetString("input")
	if inputPath == "" {
		return fmt.Errorf("--input is required")
	}

	data, err := ioutil.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	table, err := ruleset.DecodeTable(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inputPath, err)
	}

	if viper.GetBool("stats-enabled") {
		addr := viper.GetString("stats-listen") + ":" + viper.GetString("stats-port")
		go serveMetrics(addr)
	}

	opts := optimizer.Options{MaxColumns: viper.GetInt("max-columns")}
	o := optimizer.NewOptimizer(log, ruleset.TextPrinter{}, ruleset.BufferLineRecovery{}, os.Stderr, opts)

	commands := []ruleset.Command{{Op: ruleset.CommandAddTable, Table: table}}
	if status := o.Optimize(commands); status != 0 {
		return fmt.Errorf("optimizer reported a non-zero status: %d", status)
	}

	out := os.Stdout
	outputPath := viper.GetString("output")
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}
	writeTable(out, table)
	return nil
}

func writeTable(w *os.File, table *ruleset.Table) {
	printer := ruleset.TextPrinter{}
	fmt.Fprintf(w, "table %s %s {\n", table.Family, table.Name)
	for name, chain := range table.Chains {
		fmt.Fprintf(w, "  chain %s {\n", name)
		for _, r := range chain.Rules {
			fmt.Fprintf(w, "    %s\n", printer.PrintRule(r))
		}
		fmt.Fprintln(w, "  }")
	}
	fmt.Fprintln(w, "}")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.WithField("addr", addr).Info("serving Prometheus metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("metrics listener exited")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorln("ruleopt exited with error:", err)
		os.Exit(1)
	}
}
