// Package bridge carries the single summary request of an analysis cycle
// from the page side to the summarization side and the response back.
package bridge

import (
	"context"
	"fmt"

	"github.com/dtnitsch/inbox-digest/models"
)

// Handler is the summarization side. *summarizer.Orchestrator satisfies it.
// ok is false when the request was rejected and no response is sent.
type Handler interface {
	Handle(ctx context.Context, req models.SummaryRequest) (resp models.SummaryResponse, ok bool)
}

// Sender is the page side's view of the exchange. ok false with a nil error
// means the other side deliberately sent no response.
type Sender interface {
	Send(ctx context.Context, req models.SummaryRequest) (resp models.SummaryResponse, ok bool, err error)
}

// Local runs every request on its own goroutine inside the process.
type Local struct {
	handler Handler
}

func NewLocal(h Handler) *Local {
	return &Local{handler: h}
}

type result struct {
	resp models.SummaryResponse
	ok   bool
	err  error
}

// Send waits for the handler or for ctx. A cancelled wait leaves the request
// running; its response is dropped.
func (l *Local) Send(ctx context.Context, req models.SummaryRequest) (models.SummaryResponse, bool, error) {
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		resp, ok := l.handler.Handle(context.WithoutCancel(ctx), req)
		ch <- result{resp: resp, ok: ok}
	}()

	select {
	case r := <-ch:
		return r.resp, r.ok, r.err
	case <-ctx.Done():
		return models.SummaryResponse{}, false, ctx.Err()
	}
}
