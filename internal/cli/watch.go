package cli

import (
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/singleflight"
)

// debounceDelay coalesces the burst of events an editor emits on save
// (write, chmod, rename-into-place) into one rebuild.
const debounceDelay = 200 * time.Millisecond

// debouncer collapses a burst of triggers into one fire on C after a
// quiet period. The zero channel before the first trigger never fires.
type debouncer struct {
	delay time.Duration
	timer *time.Timer
}

func newDebouncer(d time.Duration) *debouncer {
	return &debouncer{delay: d}
}

// C is the fire channel. It is nil until the first trigger, which blocks
// that select case.
func (d *debouncer) C() <-chan time.Time {
	if d.timer == nil {
		return nil
	}
	return d.timer.C
}

// trigger starts or restarts the quiet-period countdown. A timer that
// already fired but was not consumed must be drained before Reset, or
// the stale fire would leak through on top of the rescheduled one.
func (d *debouncer) trigger() {
	if d.timer == nil {
		d.timer = time.NewTimer(d.delay)
		return
	}
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(d.delay)
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}

// newWatchCommand rebuilds the document every time it changes on disk.
func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <studio.yaml>",
		Short: "Rebuild the studio document whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()

			// Watch the directory, not the file: editors replace files by
			// rename, which drops a direct file watch.
			if err := w.Add(filepath.Dir(path)); err != nil {
				return err
			}

			var group singleflight.Group
			run := func() {
				// Concurrent triggers while a rebuild is in flight share
				// its result instead of queueing another run.
				group.Do("rebuild", func() (interface{}, error) {
					st, err := runRebuild(path, logger)
					if err != nil {
						logger.Error("rebuild failed", "error", err)
						return nil, err
					}
					report(cmd.OutOrStdout(), st)
					if len(st.Errors) > 0 {
						logger.Warn("rebuild finished with failures", "failed", len(st.Errors))
					} else {
						logger.Info("rebuild ok", "ops", st.Graph.Len())
					}
					return nil, nil
				})
			}

			logger.Info("watching", "path", path)
			run()

			deb := newDebouncer(debounceDelay)
			defer deb.stop()

			for {
				select {
				case <-ctx.Done():
					logger.Info("watch stopped")
					return nil

				case <-deb.C():
					go run()

				case ev, ok := <-w.Events:
					if !ok {
						return nil
					}
					if ev.Name != path {
						continue
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
						deb.trigger()
					}

				case watchErr, ok := <-w.Errors:
					if !ok {
						return nil
					}
					logger.Error("watch error", "error", watchErr)
				}
			}
		},
	}
}
