// Package get implements the coxswain get commands.
package get

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/cli-runtime/pkg/printers"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/cmd/coxswain/flags"
	"github.com/coxswain-dev/coxswain/cmd/coxswain/util"
	"github.com/coxswain-dev/coxswain/pkg/api/gitops"
	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
)

func init() {
	flags.AddOutput(applicationsCmd)
	Cmd.AddCommand(applicationsCmd)
	Cmd.AddCommand(applicationCmd)
}

// Cmd is the Cobra object representing the coxswain get command.
var Cmd = &cobra.Command{
	Use:   "get",
	Short: "Print Applications managed by coxswain",
}

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "Print all Applications",
	Long: `Prints the Applications the cluster's coxswain reconciler manages,
as indented JSON by default.
`,
	Example: `  coxswain get applications
  coxswain get applications -o yaml
  coxswain get applications -o name`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := util.NewClient()
		if err != nil {
			return err
		}

		list := &v1alpha1.ApplicationList{}
		if err := c.List(context.Background(), list, client.InNamespace(gitops.ControllerNamespace)); err != nil {
			return errors.Wrap(err, "failed to list Applications")
		}

		if flags.Output == flags.OutputNameOnly {
			for _, app := range list.Items {
				fmt.Println(app.Name)
			}
			return nil
		}

		printer, err := printerFor(flags.Output)
		if err != nil {
			return err
		}
		// The printers refuse objects without an explicit GVK.
		list.GetObjectKind().SetGroupVersionKind(v1alpha1.SchemeGroupVersion.WithKind("ApplicationList"))
		return printer.PrintObj(list, os.Stdout)
	},
}

func printerFor(format string) (printers.ResourcePrinter, error) {
	switch format {
	case flags.OutputJSON:
		return &printers.JSONPrinter{}, nil
	case flags.OutputYAML:
		return &printers.YAMLPrinter{}, nil
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}

var applicationCmd = &cobra.Command{
	Use:   "application NAME status",
	Short: "Print the status of one Application",
	Long: `Prints the status of the named Application as indented JSON,
including its sync state, health, and the result of the last requested sync.
`,
	Example: `  coxswain get application guestbook status`,
	Args:    cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		if args[1] != "status" {
			return errors.Errorf("unknown field %q; only status is supported", args[1])
		}

		c, err := util.NewClient()
		if err != nil {
			return err
		}

		app := &v1alpha1.Application{}
		key := client.ObjectKey{Namespace: gitops.ControllerNamespace, Name: args[0]}
		if err := c.Get(context.Background(), key, app); err != nil {
			if apierrors.IsNotFound(err) {
				return errors.Errorf("Application %q not found in namespace %s", args[0], gitops.ControllerNamespace)
			}
			return errors.Wrapf(err, "failed to get Application %q", args[0])
		}
		return util.PrintJSON(app.Status)
	},
}
