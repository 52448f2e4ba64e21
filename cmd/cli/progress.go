package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/yourusername/pin-extract-go/internal/app"
)

var progressCmd = &cobra.Command{
	Use:    "progress",
	Short:  "Follow the progress of the current batch",
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		return followProgress()
	},
}

// eventsURL turns the server URL into the event stream's websocket URL
func eventsURL() (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/events"
	return u.String(), nil
}

// batchBar renders one batch as a progress bar
type batchBar struct {
	bar     *mpb.Bar
	batchID string
	failed  atomic.Int64
}

func newBatchBar(p *mpb.Progress, ev app.Event) *batchBar {
	b := &batchBar{batchID: ev.BatchID}
	name := "batch"
	if len(ev.BatchID) >= 8 {
		name = "batch " + ev.BatchID[:8]
	}
	b.bar = p.AddBar(int64(ev.Stats.Total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Any(func(decor.Statistics) string {
				if n := b.failed.Load(); n > 0 {
					return fmt.Sprintf(" %d failed", n)
				}
				return ""
			}),
		),
	)
	return b
}

func (b *batchBar) update(ev app.Event) {
	b.failed.Store(int64(ev.Stats.Failed))
	b.bar.SetTotal(int64(ev.Stats.Total), false)
	b.bar.SetCurrent(int64(ev.Stats.Settled()))
}

// followProgress renders scheduler events until the batch completes or is cancelled
func followProgress() error {
	var stats statsResponse
	if err := call(http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		return err
	}
	if stats.State != string(app.StateRunning) {
		fmt.Printf("No batch running (last: %d/%d completed, %d failed)\n",
			stats.Stats.Completed, stats.Stats.Total, stats.Stats.Failed)
		return nil
	}

	wsURL, err := eventsURL()
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	p := mpb.New(mpb.WithWidth(48))
	var current *batchBar

	for {
		var ev app.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if current != nil {
				current.bar.Abort(false)
			}
			p.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event stream closed: %w", err)
		}
		if ev.Type == app.EventSingleUpdate || ev.BatchID == "" {
			continue
		}

		if current == nil || current.batchID != ev.BatchID {
			if current != nil {
				current.bar.Abort(false)
			}
			current = newBatchBar(p, ev)
		}
		current.update(ev)

		switch ev.Type {
		case app.EventBatchCompleted:
			current.bar.SetTotal(-1, true)
			p.Wait()
			fmt.Printf("Batch complete: %d completed, %d failed\n", ev.Stats.Completed, ev.Stats.Failed)
			return nil
		case app.EventBatchCancelled:
			current.bar.Abort(false)
			p.Wait()
			fmt.Printf("Batch cancelled: %d completed, %d failed of %d\n", ev.Stats.Completed, ev.Stats.Failed, ev.Stats.Total)
			return nil
		}
	}
}
