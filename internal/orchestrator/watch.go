package orchestrator

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs batches until ctx is cancelled. Between batches it waits for
// the poll interval, but wakes early when an answer file appears in the
// clarification directory. Polling remains the durability mechanism; the
// watcher only shortens the wait.
func (o *Orchestrator) Watch(ctx context.Context) error {
	answered := o.watchAnswers(ctx)

	for {
		if _, err := o.RunOnce(ctx); err != nil {
			o.log.Error("batch failed", "error", err)
		}

		o.log.Info("waiting for next poll", "interval", o.cfg.PollInterval().String())
		timer := time.NewTimer(o.cfg.PollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-answered:
			timer.Stop()
			o.log.Info("answer file detected, polling early")
		case <-timer.C:
		}
	}
}

// watchAnswers returns a channel that receives when an answer file is
// written to the clarification directory. Watcher setup failure is
// non-fatal; the poll loop still picks answers up.
func (o *Orchestrator) watchAnswers(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	dir := o.clarify.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		o.log.Warn("cannot create clarification dir, relying on polling", "error", err)
		return ch
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		o.log.Warn("cannot create file watcher, relying on polling", "error", err)
		return ch
	}
	if err := watcher.Add(dir); err != nil {
		o.log.Warn("cannot watch clarification dir, relying on polling", "error", err)
		watcher.Close()
		return ch
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				if !strings.HasSuffix(ev.Name, ".answer.md") {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				o.log.Warn("file watcher error", "error", err)
			}
		}
	}()

	return ch
}
