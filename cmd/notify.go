package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/pkgmgr"
)

var (
	notifyCategory string
	notifyKind     string
	notifyPhase    string
	notifyProgress int
	notifyError    string
)

var notifyCmd = &cobra.Command{
	Use:   "notify <package_id>",
	Short: "Queue a package lifecycle event for the daemon",
	Long: `Write one lifecycle event into the spool directory. The running daemon
picks it up, handles it and removes the file.

Examples:
  mlagent notify app1                                  # install completed
  mlagent notify app1 --kind uninstall --phase started
  mlagent notify app1 --category rpk --kind update --phase completed`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := buildEvent(args[0])
		if err != nil {
			return err
		}
		path, err := notify(cfg, ev)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringVar(&notifyCategory, "category", "", "package category (default: package_category from config)")
	notifyCmd.Flags().StringVar(&notifyKind, "kind", string(pkgmgr.KindInstall), "install, uninstall, update or resource_copy")
	notifyCmd.Flags().StringVar(&notifyPhase, "phase", string(pkgmgr.PhaseCompleted), "started, processing, completed or failed")
	notifyCmd.Flags().IntVar(&notifyProgress, "progress", 100, "progress 0-100")
	notifyCmd.Flags().StringVar(&notifyError, "error", "", "error code reported by the package manager")
}

func buildEvent(packageID string) (pkgmgr.LifecycleEvent, error) {
	category := notifyCategory
	if category == "" {
		category = cfg.PackageCategory
	}
	var kind pkgmgr.EventKind
	_ = kind.UnmarshalText([]byte(notifyKind))
	var phase pkgmgr.EventPhase
	_ = phase.UnmarshalText([]byte(notifyPhase))
	if kind == pkgmgr.KindUnknown || phase == pkgmgr.PhaseUnknown {
		return pkgmgr.LifecycleEvent{}, fmt.Errorf("unknown event %s/%s", notifyKind, notifyPhase)
	}
	if notifyProgress < 0 || notifyProgress > 100 {
		return pkgmgr.LifecycleEvent{}, fmt.Errorf("%w: %d", pkgmgr.ErrInvalidProgress, notifyProgress)
	}

	ev := pkgmgr.NewEvent(category, packageID, kind, phase)
	ev.Progress = notifyProgress
	ev.Error = notifyError
	return ev, nil
}

// notify spools ev and returns the file written.
func notify(c config.Config, ev pkgmgr.LifecycleEvent) (string, error) {
	path, err := pkgmgr.Enqueue(c.SpoolDir, ev)
	if err != nil {
		return "", fmt.Errorf("queueing event: %w", err)
	}
	return path, nil
}
