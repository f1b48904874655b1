// Package cmd implements the techdata command line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emlab/techdata/internal/build"
)

var (
	// cfgFile parameter
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   build.AppName,
		Short: "Query technology cost data produced by the PyPSA technology-data workflow.",
		Long: `techdata syncs the PyPSA technology-data repository, runs its snakemake
workflow, and answers point queries against the resulting cost tables.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func registerCommands() {
	rootCmd.AddCommand(technologiesCmd())
	rootCmd.AddCommand(parametersCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(versionCmd())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/techdata/config.yaml)")
	pf.StringP("dir", "d", "", "target directory for the workflow checkout and output")
	pf.String("data-version", "latest", "technology-data version tag (e.g. v0.6.2)")
	pf.String("repo", "", "workflow repository URL")
	pf.StringArrayP("set", "s", nil, "workflow parameter override (key=value, repeatable)")
	pf.Bool("debug", false, "enable debug logging")
	pf.BoolP("quiet", "q", false, "suppress log output")

	for _, flag := range []string{"dir", "data-version", "repo", "debug", "quiet"} {
		_ = viper.BindPFlag(flag, pf.Lookup(flag))
	}
	viper.SetEnvPrefix(strings.ToUpper(build.AppName))
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(initialize)

	registerCommands()
}

func initialize() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("$HOME/.config/" + build.AppName)
	}
	// The config file is optional.
	_ = viper.ReadInConfig()
}
