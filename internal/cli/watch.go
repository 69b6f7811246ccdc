package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 250 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <calls.csv>",
	Short: "Re-bill a call detail file whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addBillFlags(watchCmd.Flags())
}

func runWatch(cmd *cobra.Command, args []string) error {
	if args[0] == "-" {
		return fmt.Errorf("watch needs a file path, not stdin")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := initApp(cfg, nil)
	if err != nil {
		return err
	}

	req, err := prepareBill(a, cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	rebill := func() {
		if _, err := req.run(ctx, out, a); err != nil {
			a.logger.Error("billing failed", "file", req.path, "error", err)
		}
	}

	rebill()
	return watchFile(ctx, req.path, watchDebounce, a.logger, rebill)
}

// watchFile calls onChange after path is written or re-created, until ctx
// is done. Bursts of events within debounce collapse into one call.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that save atomically keep working.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	filename := filepath.Base(path)

	logger.Info("watching calls file", "path", path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Debug("calls file changed", "event", event.Op.String(), "file", event.Name)
				timer.Reset(debounce)
			}

		case <-timer.C:
			if _, err := os.Stat(path); err != nil {
				logger.Warn("calls file unavailable", "path", path, "error", err)
				continue
			}
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
