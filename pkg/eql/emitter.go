package eql

import "context"

// Emitter is a lazily-produced stream of Bindings, the Go analogue of
// the Python engine's evaluate() generator and of gokando's
// ChannelResultStream (stream.go) in core.go. Producers run in their
// own goroutine and push bindings through ch; consumers pull with
// Next until ok is false, and must call Close to release the
// producer goroutine on early exit.
type Emitter struct {
	ch   chan Binding
	done chan struct{}
}

// newEmitter allocates an Emitter with the given channel buffer.
func newEmitter(buffer int) *Emitter {
	return &Emitter{
		ch:   make(chan Binding, buffer),
		done: make(chan struct{}),
	}
}

// Next blocks until a binding is available, the producer finishes, or
// ctx is cancelled.
func (e *Emitter) Next(ctx context.Context) (Binding, bool) {
	select {
	case b, ok := <-e.ch:
		return b, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Close signals the producer to stop; safe to call multiple times and
// safe to call before the producer has finished.
func (e *Emitter) Close() {
	select {
	case <-e.done:
	default:
		close(e.done)
	}
}

// emit is used by producer goroutines to push a binding, respecting
// both context cancellation and an early consumer Close.
func (e *Emitter) emit(ctx context.Context, b Binding) bool {
	select {
	case e.ch <- b:
		return true
	case <-e.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// closeProducer is called by the producer goroutine when it has no
// more bindings to emit.
func (e *Emitter) closeProducer() {
	close(e.ch)
}

// Emit is a Generator implementation: it starts produce in its own
// goroutine, feeding an Emitter that the caller drains lazily. This
// is the single place a new goroutine is spawned per node evaluation,
// matching the cooperative, single-threaded-per-query concurrency
// model: only one Emitter is being drained at a time per branch.
func Emit(ctx context.Context, produce func(ctx context.Context, yield func(Binding) bool)) *Emitter {
	e := newEmitter(0)
	go func() {
		defer e.closeProducer()
		produce(ctx, func(b Binding) bool {
			return e.emit(ctx, b)
		})
	}()
	return e
}

// Collect drains up to n bindings from e (n<=0 means unbounded).
func Collect(ctx context.Context, e *Emitter, n int) []Binding {
	var out []Binding
	for n <= 0 || len(out) < n {
		b, ok := e.Next(ctx)
		if !ok {
			break
		}
		out = append(out, b)
	}
	e.Close()
	return out
}
