package ui

import (
	"context"
	"log/slog"
)

// TeeEvents writes every event to logger as a "colek.event" record and
// forwards it. The returned channel closes after events does.
func TeeEvents(events <-chan Event, logger *slog.Logger) <-chan Event {
	out := make(chan Event, cap(events))
	go func() {
		defer close(out)
		for ev := range events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("path", ev.Path),
				slog.Int64("size", ev.Size),
				slog.Int("worker", ev.WorkerID),
			}
			if ev.Other != "" {
				attrs = append(attrs, slog.String("other", ev.Other))
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			logger.LogAttrs(context.Background(), slog.LevelInfo, "colek.event", attrs...)
			out <- ev
		}
	}()
	return out
}
