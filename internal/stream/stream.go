// Package stream implements the bidirectional stream coordinator (C5):
// three cooperating tasks (receiver, dispatch workers, sender) bridging
// one gRPC bidi stream, per §4.5. This is deliberately not collapsed into
// a single event loop — per §9's design note, the three-task split is
// what gives the natural backpressure point and the clean termination
// proof (the sender's close is the only place that decides stream end).
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	pipelinev1 "tikapipe/gen/go/tikapipe/pipeline/v1"
	"tikapipe/internal/dispatch"
	"tikapipe/pkg/config"
	"tikapipe/pkg/logger"
	"tikapipe/pkg/metrics"
	"tikapipe/pkg/telemetry"
)

type serverStream interface {
	Send(*pipelinev1.FetchAndParseReply) error
	Recv() (*pipelinev1.FetchAndParseRequest, error)
}

// Coordinator bridges one bidi stream to the dispatcher.
type Coordinator struct {
	dispatcher *dispatch.Dispatcher
	inFlightCap int
	cancelOnDisconnect bool
}

// New builds a Coordinator. inFlightCap (W in §4.5) is poolSize times the
// configured multiplier, defaulting to poolSize when unset.
func New(d *dispatch.Dispatcher, poolSize int, cfg config.StreamConfig) *Coordinator {
	mult := cfg.InFlightMultiplier
	if mult <= 0 {
		mult = 1
	}
	cap := poolSize * mult
	if cap <= 0 {
		cap = 1
	}
	return &Coordinator{
		dispatcher:         d,
		inFlightCap:        cap,
		cancelOnDisconnect: cfg.CancelInFlightOnDisconnect,
	}
}

// errTransport marks outbound write failures, which per §4.5 must cancel
// all outstanding dispatchers, discard already-produced replies, and
// terminate the stream with the wrapped cause.
type errTransport struct{ cause error }

func (e *errTransport) Error() string { return "stream transport error: " + e.cause.Error() }
func (e *errTransport) Unwrap() error { return e.cause }

// Run drives the stream to completion: fans inbound requests out to up to
// inFlightCap concurrent dispatchers and serializes their replies back in
// completion order (§4.5).
func (c *Coordinator) Run(ctx context.Context, s serverStream) error {
	ctx, span := telemetry.StartSpan(ctx, "stream.Run")
	defer span.End()
	telemetry.SetAttributes(ctx, attribute.Int(telemetry.AttrStreamInFlight, c.inFlightCap))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inFlight := make(chan struct{}, c.inFlightCap)
	dispatchCh := make(chan *pipelinev1.FetchAndParseRequest)
	replyCh := make(chan *pipelinev1.FetchAndParseReply, c.inFlightCap)

	var receiveErr error
	var receiverWG sync.WaitGroup
	receiverWG.Add(1)
	go func() {
		defer receiverWG.Done()
		defer close(dispatchCh)

		for {
			req, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				receiveErr = fmt.Errorf("stream receive: %w", err)
				if c.cancelOnDisconnect {
					cancel()
				}
				return
			}

			select {
			case inFlight <- struct{}{}:
			case <-ctx.Done():
				return
			}
			if len(inFlight) == cap(inFlight) {
				if m := metrics.Get(); m != nil {
					m.RecordBackpressure()
				}
			}

			select {
			case dispatchCh <- req:
			case <-ctx.Done():
				<-inFlight
				return
			}
		}
	}()

	var dispatchWG sync.WaitGroup
	for i := 0; i < c.inFlightCap; i++ {
		dispatchWG.Add(1)
		go func() {
			defer dispatchWG.Done()
			for req := range dispatchCh {
				reply := c.dispatcher.Dispatch(ctx, dispatch.Request{
					FetcherID: req.FetcherId,
					FetchKey:  req.FetchKey,
					Metadata:  req.Metadata,
					RequestID: req.RequestId,
				})
				<-inFlight

				select {
				case replyCh <- &pipelinev1.FetchAndParseReply{
					FetchKey:     reply.FetchKey,
					Status:       reply.Status,
					FieldsMap:    reply.FieldsMap,
					ErrorMessage: reply.ErrorMessage,
				}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		dispatchWG.Wait()
		close(replyCh)
	}()

	var transportErr error
	for reply := range replyCh {
		if err := s.Send(reply); err != nil {
			transportErr = &errTransport{cause: err}
			cancel()
			break
		}
	}

	receiverWG.Wait()

	if transportErr != nil {
		logger.Log.Warn("bidi stream terminated by transport error", "error", transportErr)
		return transportErr
	}
	if receiveErr != nil {
		logger.Log.Debug("bidi stream terminated by receive error", "error", receiveErr)
		return receiveErr
	}
	return nil
}
