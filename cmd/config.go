package cmd

import (
	"io"

	"github.com/mikesmitty/thermocycle/pkg/cycler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeSettings(cmd.OutOrStdout(), cycler.LoadSettings(viper.GetViper()))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func writeSettings(w io.Writer, s cycler.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
