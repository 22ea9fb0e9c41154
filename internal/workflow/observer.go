package workflow

import (
	"context"
	"log/slog"
)

// StageEvent reports a completed stage.
type StageEvent struct {
	Task    string `json:"task"`
	Stage   Stage  `json:"stage"`
	Attempt int    `json:"attempt"`
	Passing bool   `json:"passing"`
}

// Observer receives stage notifications. Delivery never blocks the machine:
// observers other than ChannelObserver run on their own goroutine, in stage
// order, and a panic is recovered and logged.
type Observer interface {
	OnStage(ctx context.Context, e StageEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e StageEvent)

func (f ObserverFunc) OnStage(ctx context.Context, e StageEvent) {
	f(ctx, e)
}

// ChannelObserver forwards events to a channel, dropping any event the
// receiver is not ready for. It is delivered inline.
type ChannelObserver struct {
	ch chan<- StageEvent
}

func NewChannelObserver(ch chan<- StageEvent) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

func (o *ChannelObserver) OnStage(_ context.Context, e StageEvent) {
	select {
	case o.ch <- e:
	default:
	}
}

func (*ChannelObserver) inline() {}

type noopObserver struct{}

func (noopObserver) OnStage(context.Context, StageEvent) {}

func (noopObserver) inline() {}

type inliner interface {
	inline()
}

// notifier delivers a machine's events. Asynchronous deliveries are chained
// so each waits for the previous one.
type notifier struct {
	obs    Observer
	logger *slog.Logger
	last   chan struct{}
}

func newNotifier(rt *Runtime) *notifier {
	return &notifier{obs: rt.observer(), logger: rt.logger()}
}

func (n *notifier) notify(ctx context.Context, e StageEvent) {
	ctx = context.WithoutCancel(ctx)

	if _, ok := n.obs.(inliner); ok {
		n.deliver(ctx, e)
		return
	}

	prev := n.last
	done := make(chan struct{})
	n.last = done

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		n.deliver(ctx, e)
	}()
}

func (n *notifier) deliver(ctx context.Context, e StageEvent) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.WarnContext(ctx, "observer panicked", "task", e.Task, "stage", e.Stage, "panic", r)
		}
	}()
	n.obs.OnStage(ctx, e)
}

// flush waits for pending deliveries or ctx.
func (n *notifier) flush(ctx context.Context) error {
	if n.last == nil {
		return nil
	}
	select {
	case <-n.last:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
