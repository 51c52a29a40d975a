package codegen

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewCommand creates a generate command for supplied types; programs embed it into their own main,
// typically invoked through go:generate
func NewCommand(generator *Generator, types ...reflect.Type) *cobra.Command {
	var outputRoot string
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Generate encoder units",
		Long: `Generate ahead-of-time encoder units for registered types.

Each unit registers itself on init, blank import the output packages to use them in static mode.

Examples:
  go run ./cmd/encoders generate -o internal/encoders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			successColor := color.New(color.FgGreen, color.Bold)
			errorColor := color.New(color.FgRed, color.Bold)
			if outputRoot == "" {
				return errors.New("output root required")
			}
			locations, err := generator.Generate(cmd.Context(), outputRoot, types...)
			if err != nil {
				errorColor.Fprintf(cmd.ErrOrStderr(), "generation failed: %v\n", err)
				return err
			}
			for _, location := range locations {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ %s\n", location)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputRoot, "output", "o", "", "output root directory")
	return cmd
}
