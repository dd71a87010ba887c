// Package errors implements the coxswain errors command.
package errors

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coxswain-dev/coxswain/pkg/status"

	// Each package registers the error codes it owns when imported.
	_ "github.com/coxswain-dev/coxswain/pkg/applier"
	_ "github.com/coxswain-dev/coxswain/pkg/cluster"
	_ "github.com/coxswain-dev/coxswain/pkg/core"
	_ "github.com/coxswain-dev/coxswain/pkg/diff"
	_ "github.com/coxswain-dev/coxswain/pkg/render"
	_ "github.com/coxswain-dev/coxswain/pkg/source"
)

// Cmd is the Cobra object representing the coxswain errors command.
var Cmd = &cobra.Command{
	Use:   "errors",
	Short: "List every error code this binary can emit",
	Long: `Prints the registered error codes, one per line. Status.errors entries on an
Application carry these codes.
`,
	Example: `  coxswain errors`,
	Args:    cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		for _, code := range status.CodeRegistry() {
			fmt.Printf("CSW%s\n", code)
		}
	},
}
