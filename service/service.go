// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package service

import (
	"context"
	"runtime"
	"sync"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/common/logging"
	"github.com/Fantom-foundation/statequery/state/chainstate"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ErrServiceUnavailable is reported for requests sent to a stopped service.
const ErrServiceUnavailable = common.ConstError("state query service unavailable")

// Config tunes the query service.
type Config struct {
	// Workers bounds the number of requests processed concurrently.
	Workers int
	// QueueSize is the capacity of the request channel.
	QueueSize int
}

var DefaultConfig = Config{
	Workers:   runtime.NumCPU(),
	QueueSize: 1024,
}

// Service answers state queries. Requests are accepted one at a time from a
// channel and handed to a bounded pool of workers. Since all queries are
// reads of immutable versions of the state, requests are processed without
// coordination and may complete in any order.
type Service struct {
	reader   chainstate.StateReader
	log      logrus.FieldLogger
	requests chan envelope
	workers  *semaphore.Weighted
	running  sync.WaitGroup

	quit      chan struct{}
	stopped   chan struct{}
	loopDone  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
}

// envelope is a request in transit. The request's reply is delivered by run
// into a channel owned by the caller.
type envelope struct {
	ctx  context.Context
	kind RequestKind
	run  func(reader chainstate.StateReader) error
}

// New creates a service answering queries using the given reader. The
// service must be started before requests are processed.
func New(reader chainstate.StateReader, config Config, logger logrus.FieldLogger) *Service {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	return &Service{
		reader:   reader,
		log:      logging.Component(logger, "service"),
		requests: make(chan envelope, config.QueueSize),
		workers:  semaphore.NewWeighted(int64(config.Workers)),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Start launches the dispatch loop.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.loop(ctx)
		s.log.Info("Started state query service")
	})
}

// Stop shuts the service down. Requests in progress are completed, queued
// and future requests fail with ErrServiceUnavailable.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		// a service that was never started has no loop to wait for
		s.startOnce.Do(func() { close(s.loopDone) })
		if s.cancel != nil {
			s.cancel()
		}
		<-s.loopDone
		s.running.Wait()
		close(s.stopped)
		s.log.Info("Stopped state query service")
	})
}

// Ref returns the client facade of this service.
func (s *Service) Ref() *ServiceRef {
	return &ServiceRef{service: s}
}

// Dispatch sends a request and waits for its response. The kind of the
// response is always req.Kind().ResponseKind().
func (s *Service) Dispatch(ctx context.Context, req Request) (Response, error) {
	return req.dispatch(ctx, s)
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.loopDone)
	for {
		select {
		case <-s.quit:
			return
		case env := <-s.requests:
			// the caller is no longer waiting
			if env.ctx.Err() != nil {
				continue
			}
			if err := s.workers.Acquire(ctx, 1); err != nil {
				return
			}
			s.running.Add(1)
			go func() {
				defer s.running.Done()
				defer s.workers.Release(1)
				if err := env.run(s.reader); err != nil {
					s.log.WithError(err).WithField("request", env.kind).Debug("Request failed")
				}
			}()
		}
	}
}

type result[Resp Response] struct {
	resp Resp
	err  error
}

// call sends a typed request to the service and waits for its response.
func call[Resp Response, Req typedRequest[Resp]](ctx context.Context, s *Service, req Req) (Resp, error) {
	var zero Resp
	reply := make(chan result[Resp], 1)
	env := envelope{
		ctx:  ctx,
		kind: req.Kind(),
		run: func(reader chainstate.StateReader) error {
			resp, err := req.handle(reader)
			reply <- result[Resp]{resp, err}
			return err
		},
	}

	select {
	case <-s.quit:
		return zero, ErrServiceUnavailable
	default:
	}
	select {
	case s.requests <- env:
	case <-s.quit:
		return zero, ErrServiceUnavailable
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.resp, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.stopped:
		select {
		case res := <-reply:
			return res.resp, res.err
		default:
			return zero, ErrServiceUnavailable
		}
	}
}
