package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AppProperties is bound from the "myapp" prefix, e.g. myapp.secret.
type AppProperties struct {
	Secret string `mapstructure:"secret"`
}

var runKey string

// runCmd prints one property, the way an application would read it at startup.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Print a resolved property and bind the myapp properties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := startSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		value, ok, err := s.result.Environment.Lookup(runKey)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(cmd.OutOrStdout(), value)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "null")
		}

		var props AppProperties
		if err := s.result.Environment.Bind("myapp", &props); err != nil {
			return err
		}
		s.log.Info("run.myapp_bound", zap.Bool("secret_set", props.Secret != ""))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runKey, "key", "foo", "property to print")
	rootCmd.AddCommand(runCmd)
}
