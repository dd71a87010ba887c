// Package version implements the coxswain version command.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coxswain-dev/coxswain/pkg/version"
)

// Cmd is the Cobra object representing the coxswain version command.
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of this binary",
	Example: `  coxswain version`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s\n", version.VERSION)
	},
}
