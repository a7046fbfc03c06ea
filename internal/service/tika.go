// Package service wires the Tika gRPC surface (§6.1) to the pipeline
// components: the fetcher registry (C1), the request dispatcher (C4), and
// the bidi stream coordinator (C5).
//
// # Thread Safety
//
// TikaService is safe for concurrent use from multiple goroutines; each
// RPC tracks its own lifetime against a shared shutdown signal.
//
// # Graceful Shutdown
//
// Shutdown closes the service to new requests and waits for in-flight
// ones to finish, mirroring the drain behavior of the worker pool it sits
// in front of.
package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pipelinev1 "tikapipe/gen/go/tikapipe/pipeline/v1"
	"tikapipe/internal/dispatch"
	"tikapipe/internal/registry"
	"tikapipe/internal/stream"
	"tikapipe/pkg/apperror"
	"tikapipe/pkg/audit"
	"tikapipe/pkg/config"
	"tikapipe/pkg/logger"
	"tikapipe/pkg/telemetry"
)

// TikaService implements pipelinev1.TikaServer.
type TikaService struct {
	pipelinev1.UnimplementedTikaServer

	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	stream     *stream.Coordinator
	auditLog   audit.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// New constructs a TikaService from its already-built components.
func New(reg *registry.Registry, disp *dispatch.Dispatcher, poolSize int, streamCfg config.StreamConfig, auditLog audit.Logger) *TikaService {
	return &TikaService{
		registry:   reg,
		dispatcher: disp,
		stream:     stream.New(disp, poolSize, streamCfg),
		auditLog:   auditLog,
		shutdownCh: make(chan struct{}),
	}
}

func (s *TikaService) trackRequest() error {
	select {
	case <-s.shutdownCh:
		return status.Error(codes.Unavailable, "service is shutting down")
	default:
	}
	s.wg.Add(1)
	return nil
}

func (s *TikaService) untrackRequest() {
	s.wg.Done()
}

func (s *TikaService) audit(ctx context.Context, method string, action audit.Action, resourceID string, start time.Time, err error) {
	if s.auditLog == nil {
		return
	}
	outcome := audit.OutcomeSuccess
	var errCode, errMsg string
	if err != nil {
		outcome = audit.OutcomeFailure
		errCode = string(apperror.Code(err))
		errMsg = err.Error()
	}
	entry := audit.NewEntry().
		Service("tikapipe-svc").
		Method(method).
		Action(action).
		Outcome(outcome).
		Resource("fetcher", resourceID).
		Duration(time.Since(start)).
		Error(errCode, errMsg).
		Build()

	if logErr := s.auditLog.Log(ctx, entry); logErr != nil {
		logger.Log.Warn("failed to write audit entry", "method", method, "error", logErr)
	}
}

// SaveFetcher creates or replaces a fetcher configuration (§6.1).
func (s *TikaService) SaveFetcher(ctx context.Context, req *pipelinev1.SaveFetcherRequest) (*pipelinev1.SaveFetcherReply, error) {
	if err := s.trackRequest(); err != nil {
		return nil, err
	}
	defer s.untrackRequest()

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "TikaService.SaveFetcher")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.FetcherAttributes(req.FetcherId, req.FetcherClass)...)

	created, err := s.registry.Save(ctx, req.FetcherId, req.FetcherClass, req.FetcherConfigJson)
	action := audit.ActionUpdate
	if created {
		action = audit.ActionCreate
	}
	s.audit(ctx, "SaveFetcher", action, req.FetcherId, start, err)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, apperror.ToGRPC(err)
	}

	return &pipelinev1.SaveFetcherReply{FetcherId: req.FetcherId}, nil
}

// GetFetcher returns a fetcher's introspection view (§6.1).
func (s *TikaService) GetFetcher(ctx context.Context, req *pipelinev1.GetFetcherRequest) (*pipelinev1.GetFetcherReply, error) {
	if err := s.trackRequest(); err != nil {
		return nil, err
	}
	defer s.untrackRequest()

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "TikaService.GetFetcher")
	defer span.End()

	info, err := s.registry.Get(ctx, req.FetcherId)
	s.audit(ctx, "GetFetcher", audit.ActionRead, req.FetcherId, start, err)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, apperror.ToGRPC(err)
	}

	return &pipelinev1.GetFetcherReply{
		FetcherId:    info.FetcherID,
		FetcherClass: info.FetcherClass,
		ParamsMap:    info.ParamsMap,
	}, nil
}

// DeleteFetcher removes a fetcher configuration, subject to registry
// deletion policy (§9 "Delete semantics").
func (s *TikaService) DeleteFetcher(ctx context.Context, req *pipelinev1.DeleteFetcherRequest) (*pipelinev1.DeleteFetcherReply, error) {
	if err := s.trackRequest(); err != nil {
		return nil, err
	}
	defer s.untrackRequest()

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "TikaService.DeleteFetcher")
	defer span.End()

	ok := s.registry.Delete(ctx, req.FetcherId)
	s.audit(ctx, "DeleteFetcher", audit.ActionDelete, req.FetcherId, start, nil)

	return &pipelinev1.DeleteFetcherReply{Success: ok}, nil
}

// ListFetchers returns a point-in-time snapshot of every live fetcher.
func (s *TikaService) ListFetchers(ctx context.Context, _ *pipelinev1.Empty) (*pipelinev1.ListFetchersReply, error) {
	if err := s.trackRequest(); err != nil {
		return nil, err
	}
	defer s.untrackRequest()

	ctx, span := telemetry.StartSpan(ctx, "TikaService.ListFetchers")
	defer span.End()

	infos := s.registry.List(ctx)
	out := make([]*pipelinev1.FetcherInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, &pipelinev1.FetcherInfo{
			FetcherId:    info.FetcherID,
			FetcherClass: info.FetcherClass,
			ParamsMap:    info.ParamsMap,
		})
	}
	span.SetAttributes(attribute.Int(telemetry.AttrRegistrySize, len(out)))

	return &pipelinev1.ListFetchersReply{Fetchers: out}, nil
}

// FetchAndParse runs one fetch-and-parse call through the dispatcher
// (§4.4). Per-request failures surface as a reply status, not a gRPC
// error (§7 propagation policy) — the call itself only fails on
// shutdown.
func (s *TikaService) FetchAndParse(ctx context.Context, req *pipelinev1.FetchAndParseRequest) (*pipelinev1.FetchAndParseReply, error) {
	if err := s.trackRequest(); err != nil {
		return nil, err
	}
	defer s.untrackRequest()

	ctx, span := telemetry.StartSpan(ctx, "TikaService.FetchAndParse")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.FetchAttributes(req.FetcherId, req.FetchKey, req.RequestId)...)

	reply := s.dispatcher.Dispatch(ctx, dispatch.Request{
		FetcherID: req.FetcherId,
		FetchKey:  req.FetchKey,
		Metadata:  req.Metadata,
		RequestID: req.RequestId,
	})

	return &pipelinev1.FetchAndParseReply{
		FetchKey:     reply.FetchKey,
		Status:       reply.Status,
		FieldsMap:    reply.FieldsMap,
		ErrorMessage: reply.ErrorMessage,
	}, nil
}

// FetchAndParseBiDirectionalStreaming hands the stream off to the bidi
// coordinator (C5, §4.5).
func (s *TikaService) FetchAndParseBiDirectionalStreaming(stream pipelinev1.Tika_FetchAndParseBiDirectionalStreamingServer) error {
	if err := s.trackRequest(); err != nil {
		return err
	}
	defer s.untrackRequest()

	ctx, span := telemetry.StartSpan(stream.Context(), "TikaService.FetchAndParseBiDirectionalStreaming")
	defer span.End()

	err := s.stream.Run(ctx, stream)
	if err != nil {
		telemetry.SetError(ctx, err)
		logger.Log.Warn("bidi stream ended with error", "error", err)
	}
	return err
}

// Shutdown stops accepting new requests and waits for in-flight ones to
// finish, or for ctx to expire.
func (s *TikaService) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			logger.Log.Info("all requests completed gracefully")
		case <-ctx.Done():
			err = ctx.Err()
			logger.Log.Warn("shutdown timed out with requests still in flight")
		}
	})
	return err
}
