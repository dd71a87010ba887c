package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	errorscmd "github.com/coxswain-dev/coxswain/cmd/coxswain/errors"
	"github.com/coxswain-dev/coxswain/cmd/coxswain/exitcodes"
	"github.com/coxswain-dev/coxswain/cmd/coxswain/get"
	synccmd "github.com/coxswain-dev/coxswain/cmd/coxswain/sync"
	"github.com/coxswain-dev/coxswain/cmd/coxswain/version"
	pkgversion "github.com/coxswain-dev/coxswain/pkg/version"
)

var (
	rootCmd = &cobra.Command{
		Use: "coxswain",
		Short: fmt.Sprintf(
			"Inspect and sync the Applications coxswain manages (version %v)", pkgversion.VERSION),
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(errorscmd.Cmd)
	rootCmd.AddCommand(get.Cmd)
	rootCmd.AddCommand(synccmd.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func init() {
	// Expose the klog flags so -v raises verbosity on any subcommand.
	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
}

func main() {
	// klog gripes if you don't parse flags before making any logging statements.
	flag.CommandLine.Parse([]string{}) // nolint:errcheck
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcodes.Of(err))
	}
}
