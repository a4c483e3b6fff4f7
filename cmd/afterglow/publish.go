package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"afterglow/internal/app"
	"afterglow/internal/publish"
)

// eventBuffer bounds how far rendering may lag behind the pipeline.
const eventBuffer = 256

// thumbnails command
var thumbnailsCmd = &cobra.Command{
	Use:   "thumbnails",
	Short: "Generate missing thumbnails and prune stale ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		events, wait := startRenderer()
		a, err := newLocalApp(ctx, cmd, events)
		if err != nil {
			wait()
			return err
		}
		defer func() {
			a.Close()
			wait()
		}()

		res, err := a.Thumbnails(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Generated %d, up to date %d, failed %d\n", res.Generated, res.Skipped, len(res.Failures))
		for _, f := range res.Failures {
			fmt.Printf("  %s\n", f.Error())
		}
		return nil
	},
}

// publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Preview, confirm and publish the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		ctx, stop := context.WithCancel(context.Background())
		defer stop()

		events, wait := startRenderer()
		a, err := newApp(ctx, cmd, "publish", events)
		if err != nil {
			wait()
			return err
		}
		defer func() {
			a.Close()
			wait()
		}()

		intr := newInterrupter(a, stop)
		defer intr.Stop()

		plan, err := a.Preview(ctx)
		if err != nil {
			return fmt.Errorf("preview failed: %w", err)
		}
		printPlan(plan)

		if plan.Transfers() == 0 {
			a.Discard(plan.ID)
			fmt.Println("Nothing to publish.")
			return nil
		}
		if !yes {
			ok, err := confirm(fmt.Sprintf("Publish %d upload(s) and %d delete(s)?", len(plan.ToUpload), len(plan.ToDelete)))
			if err != nil {
				return err
			}
			if !ok {
				a.Discard(plan.ID)
				fmt.Println("Publish aborted.")
				return nil
			}
		}

		intr.Watch(plan.ID)
		res, err := a.Execute(ctx, plan.ID)
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
		if res.State == publish.StateCancelled {
			fmt.Printf("Publish cancelled after %d upload(s) and %d delete(s)\n", res.Uploaded, res.Deleted)
			return nil
		}
		fmt.Printf("Published: %d uploaded, %d deleted, %d unchanged\n", res.Uploaded, res.Deleted, res.Unchanged)
		return nil
	},
}

// newLocalApp opens an app that never touches the remote.
func newLocalApp(ctx context.Context, cmd *cobra.Command, emitter publish.Emitter) (*app.AfterglowApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts := app.Options{Operation: "thumbnails", Emitter: emitter, LocalOnly: true}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts.LogEcho = os.Stderr
	}
	return app.NewAfterglowApp(ctx, cfg, opts)
}

// startRenderer prints events on stderr until wait is called. wait closes
// the emitter, so nothing may emit afterwards.
func startRenderer() (*publish.ChannelEmitter, func()) {
	events := publish.NewChannelEmitter(eventBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		renderEvents(os.Stderr, events.Events())
	}()

	var once sync.Once
	return events, func() {
		once.Do(func() {
			events.Close()
			<-done
		})
	}
}

// interrupter maps the first Ctrl-C during an execute to a plan
// cancellation and any other Ctrl-C to aborting the context.
type interrupter struct {
	mu      sync.Mutex
	a       *app.AfterglowApp
	abort   context.CancelFunc
	planID  string
	pending bool
	sig     chan os.Signal
	quit    chan struct{}
}

func newInterrupter(a *app.AfterglowApp, abort context.CancelFunc) *interrupter {
	i := &interrupter{
		a:     a,
		abort: abort,
		sig:   make(chan os.Signal, 2),
		quit:  make(chan struct{}),
	}
	signal.Notify(i.sig, os.Interrupt)
	go i.loop()
	return i
}

// Watch marks planID as executing.
func (i *interrupter) Watch(planID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.planID = planID
}

func (i *interrupter) Stop() {
	signal.Stop(i.sig)
	close(i.quit)
}

func (i *interrupter) loop() {
	for {
		select {
		case <-i.quit:
			return
		case <-i.sig:
			i.mu.Lock()
			planID, pending := i.planID, i.pending
			i.pending = true
			i.mu.Unlock()

			if planID == "" || pending {
				i.abort()
				continue
			}
			fmt.Fprintln(os.Stderr, "\nCancelling after the current transfer (Ctrl-C again to abort)...")
			if err := i.a.Cancel(planID); err != nil {
				i.abort()
			}
		}
	}
}

func init() {
	publishCmd.Flags().BoolP("yes", "y", false, "Publish without asking for confirmation")
}
