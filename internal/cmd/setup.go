package cmd

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emlab/techdata"
	"github.com/emlab/techdata/internal/logger"
)

// newClient builds a techdata client from the global flags and viper
// settings. Construction performs the sync/run pipeline, so this can block
// for the duration of an engine run.
func newClient(cmd *cobra.Command) (*techdata.Client, error) {
	var logOpts []logger.Option
	if viper.GetBool("debug") {
		logOpts = append(logOpts, logger.WithDebug())
	}
	if viper.GetBool("quiet") {
		logOpts = append(logOpts, logger.WithQuiet())
	}
	lg := logger.NewLogger(logOpts...)
	ctx := logger.WithLogger(cmd.Context(), lg)

	overrides, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return nil, err
	}
	params, err := parseOverrides(overrides)
	if err != nil {
		return nil, err
	}

	opts := []techdata.Option{
		techdata.WithVersion(viper.GetString("data-version")),
		techdata.WithLogger(lg),
	}
	if len(params) > 0 {
		opts = append(opts, techdata.WithParams(params))
	}
	if repo := viper.GetString("repo"); repo != "" {
		opts = append(opts, techdata.WithRepository(repo))
	}

	return techdata.New(ctx, viper.GetString("dir"), opts...)
}

// parseOverrides turns repeated key=value flags into a parameter map. Values
// are decoded as YAML scalars so numbers and booleans keep their types.
func parseOverrides(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid override %q, expected key=value", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}
