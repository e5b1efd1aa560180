package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Checker-Finance/secretprops/pkg/utils"
)

var showValues bool

// listCmd prints the properties produced from secrets.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the properties loaded from the secret backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := startSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		src := s.result.Secrets
		if src == nil {
			return fmt.Errorf("secret properties are disabled (SECRETS_ENABLED=false)")
		}

		out := cmd.OutOrStdout()
		for _, name := range src.PropertyNames() {
			if !showValues {
				fmt.Fprintln(out, name)
				continue
			}
			value, _ := src.Property(name)
			fmt.Fprintf(out, "%s=%s\n", name, utils.MaskSecret(value))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&showValues, "show-values", false, "print masked values next to the names")
	rootCmd.AddCommand(listCmd)
}
