// Package flags holds flag values shared between coxswain subcommands.
package flags

import "github.com/spf13/cobra"

const (
	// OutputName is the flag name for Output below.
	OutputName = "output"

	// OutputJSON prints full objects as indented JSON.
	OutputJSON = "json"
	// OutputYAML prints full objects as YAML.
	OutputYAML = "yaml"
	// OutputNameOnly prints one object name per line.
	OutputNameOnly = "name"
)

var (
	// Output selects the output format of get commands.
	Output string
)

// AddOutput adds the -o flag to cmd.
func AddOutput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&Output, OutputName, "o", OutputJSON,
		`Output format. One of: json|yaml|name.`)
}
