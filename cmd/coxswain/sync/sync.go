// Package sync implements the coxswain sync command.
package sync

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/cmd/coxswain/exitcodes"
	"github.com/coxswain-dev/coxswain/cmd/coxswain/util"
	"github.com/coxswain-dev/coxswain/pkg/api/gitops"
	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/metadata"
	"github.com/coxswain-dev/coxswain/pkg/render"
)

var (
	dryRun  bool
	timeout time.Duration
)

const pollInterval = time.Second

func init() {
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Evaluate the sync without changing the cluster.")
	Cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute,
		"Time to wait for the sync to report a result.")
}

// Cmd is the Cobra object representing the coxswain sync command.
var Cmd = &cobra.Command{
	Use:   "sync NAME",
	Short: "Request a sync of one Application",
	Long: `Asks the reconciler to sync the named Application regardless of its
sync policy, waits for the result, and prints it as indented JSON.

The exit code reports the outcome: 0 on success, 10 when rendering the
source failed, 11 when applying resources failed, 12 when no result
arrived in time.
`,
	Example: `  coxswain sync guestbook
  coxswain sync guestbook --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := util.NewClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		name := args[0]
		key := client.ObjectKey{Namespace: gitops.ControllerNamespace, Name: name}

		req := metadata.NewSyncRequest(dryRun)
		err = retry.RetryOnConflict(retry.DefaultRetry, func() error {
			app := &v1alpha1.Application{}
			if err := c.Get(ctx, key, app); err != nil {
				return err
			}
			if err := metadata.SetSyncRequest(app, req); err != nil {
				return err
			}
			return c.Update(ctx, app)
		})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return errors.Errorf("Application %q not found in namespace %s", name, gitops.ControllerNamespace)
			}
			return errors.Wrapf(err, "failed to request a sync of Application %q", name)
		}

		app := &v1alpha1.Application{}
		err = wait.PollImmediate(pollInterval, timeout, func() (bool, error) {
			if err := c.Get(ctx, key, app); err != nil {
				return false, err
			}
			last := app.Status.LastSyncResult
			return last != nil && last.ID == req.ID, nil
		})
		if err == wait.ErrWaitTimeout {
			return exitcodes.WithCode(exitcodes.Timeout,
				errors.Errorf("Application %q did not report a result within %s", name, timeout))
		}
		if err != nil {
			return errors.Wrapf(err, "failed while waiting for the sync of Application %q", name)
		}

		result := app.Status.LastSyncResult
		if err := util.PrintJSON(result); err != nil {
			return err
		}
		if result.Status == v1alpha1.SyncResultSucceeded {
			return nil
		}
		return exitcodes.WithCode(failureCode(app), errors.Errorf("sync failed: %s", result.Message))
	},
}

// failureCode classifies a failed sync by the errors the reconciler reported.
func failureCode(app *v1alpha1.Application) int {
	for _, e := range app.Status.Errors {
		if e.Code == render.RenderErrorCode {
			return exitcodes.RenderFailure
		}
	}
	return exitcodes.ApplyFailure
}
