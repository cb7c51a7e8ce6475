package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change preferences",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one preference",
	Long: `Writes one key to the config file. Lists are comma separated.

	bloom config set practice.weekly_goal_minutes 200
	bloom config set feedback.ambient rain
	bloom config set reminder.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(configPath, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", strings.ToLower(args[0]), args[1])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every key with its current value",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", configPath)
		for _, k := range config.Keys() {
			v, _ := config.Lookup(cfg, k)
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", k, v)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configListCmd)
}
