package index

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/meghashyamc/docdisco/logger"
)

// Fetcher pulls documents from the remote integration into the store.
type Fetcher interface {
	RefreshInterestingDocs(ctx context.Context) ([]string, error)
	RefreshAllDocs(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

type Mode string

const (
	ModeInteresting Mode = "interesting"
	ModeAll         Mode = "all"
	ModeReload      Mode = "reload"
)

// Modes lists every refresh mode Refresh accepts.
var Modes = []Mode{ModeInteresting, ModeAll, ModeReload}

func (m Mode) Valid() bool {
	return slices.Contains(Modes, m)
}

const (
	ProgressStatusQueued   = 0
	ProgressStatusStep1    = 10
	ProgressStatusStep2    = 20
	ProgressStatusComplete = 100
	ProgressStatusFailed   = -1

	maxRefreshTime = 2 * time.Hour
)

var (
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrNoIntegration     = errors.New("no remote integration configured")
	ErrUnknownMode       = errors.New("unknown refresh mode")
)

// Service runs refreshes one at a time in the background and records their
// progress under a request id.
type Service struct {
	logger   logger.Logger
	pipeline *Pipeline
	fetcher  Fetcher
	store    StateStore
	interval time.Duration
	running  atomic.Bool
	refreshC chan refreshRequest
}

type refreshRequest struct {
	mode      Mode
	requestID string
}

// New starts the refresh loop. fetcher may be nil, in which case only reloads
// from the store are possible. A positive interval schedules a full refresh
// at that period.
func New(ctx context.Context, logger logger.Logger, pipeline *Pipeline, fetcher Fetcher, store StateStore, interval time.Duration) *Service {
	refreshService := &Service{
		logger:   logger,
		pipeline: pipeline,
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		refreshC: make(chan refreshRequest, 1),
	}

	go refreshService.run(ctx)
	return refreshService
}

// Refresh queues a refresh in the given mode. Only one refresh runs at a time.
func (s *Service) Refresh(ctx context.Context, mode Mode, requestID string) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if mode != ModeReload && s.fetcher == nil {
		return ErrNoIntegration
	}

	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("request to refresh while a refresh is already in progress", "request_id", requestID)
		return ErrRefreshInProgress
	}

	s.setRequestStatus(ctx, requestID, ProgressStatusQueued)
	s.refreshC <- refreshRequest{mode: mode, requestID: requestID}
	return nil
}

// GetStatus retrieves the progress of a refresh request
func (s *Service) GetStatus(ctx context.Context, requestID string) (int, error) {
	status, err := s.store.GetRequestStatus(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("request not found: %w", err)
	}
	return status, nil
}

// ClearAll drops every fetched document and empties the local index.
func (s *Service) ClearAll(ctx context.Context) error {
	s.logger.Info("clearing all state")
	clearStore := s.store.Clear
	if s.fetcher != nil {
		clearStore = s.fetcher.Clear
	}
	if err := clearStore(ctx); err != nil {
		s.logger.Error("failed to clear document store", "err", err.Error())
		return err
	}
	return s.pipeline.Clear(ctx)
}

func (s *Service) run(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 && s.fetcher != nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case req := <-s.refreshC:
			s.refreshWithTimeout(ctx, req)
		case <-tick:
			if !s.running.CompareAndSwap(false, true) {
				s.logger.Debug("skipping scheduled refresh, another refresh is running")
				continue
			}
			req := refreshRequest{mode: ModeAll, requestID: uuid.NewString()}
			s.logger.Info("starting scheduled refresh", "request_id", req.requestID)
			s.setRequestStatus(ctx, req.requestID, ProgressStatusQueued)
			s.refreshWithTimeout(ctx, req)
		case <-ctx.Done():
			s.logger.Info("refresh service stopped", "reason", ctx.Err())
			return
		}
	}
}

func (s *Service) refreshWithTimeout(ctx context.Context, req refreshRequest) {
	defer s.running.Store(false)

	refreshCtx, cancel := context.WithTimeout(ctx, maxRefreshTime)
	defer cancel()

	begin := time.Now()
	if err := s.refresh(refreshCtx, req); err != nil {
		s.logger.Error("refresh failed", "request_id", req.requestID, "mode", req.mode, "err", err.Error())
		s.setRequestStatus(ctx, req.requestID, ProgressStatusFailed)
		return
	}

	s.setRequestStatus(ctx, req.requestID, ProgressStatusComplete)
	s.logger.Info("refresh complete", "request_id", req.requestID, "mode", req.mode, "duration_ms", time.Since(begin).Milliseconds())
}

func (s *Service) refresh(ctx context.Context, req refreshRequest) error {
	switch req.mode {
	case ModeReload:
		s.setRequestStatus(ctx, req.requestID, ProgressStatusStep1)
		return s.pipeline.Reload(ctx)

	case ModeInteresting:
		ids, fetchErr := s.fetcher.RefreshInterestingDocs(ctx)
		return s.reindexFetched(ctx, req.requestID, ids, fetchErr)

	case ModeAll:
		ids, fetchErr := s.fetcher.RefreshAllDocs(ctx)
		return s.reindexFetched(ctx, req.requestID, ids, fetchErr)
	}
	return fmt.Errorf("%w: %q", ErrUnknownMode, req.mode)
}

// reindexFetched indexes whatever was fetched, also before a failure, and
// then reports the fetch error so the request is marked failed.
func (s *Service) reindexFetched(ctx context.Context, requestID string, ids []string, fetchErr error) error {
	s.setRequestStatus(ctx, requestID, ProgressStatusStep1)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(ids) > 0 {
		s.setRequestStatus(ctx, requestID, ProgressStatusStep2)
		if err := s.pipeline.ReindexDocIDs(ctx, ids, true); err != nil {
			return errors.Join(fetchErr, err)
		}
	}
	return fetchErr
}

func (s *Service) setRequestStatus(ctx context.Context, requestID string, status int) {
	if err := s.store.SetRequestStatus(context.WithoutCancel(ctx), requestID, status); err != nil {
		s.logger.Error("failed to update request status", "request_id", requestID, "progress", status, "err", err.Error())
	}
}
