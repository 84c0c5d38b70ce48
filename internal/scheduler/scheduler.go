// Package scheduler provides the durable callback abstraction the engine
// uses to chain state-machine steps, and the autonomous game-creation tick.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TimerScheduler is an in-process runAfter implementation backed by
// time.AfterFunc. It delivers each callback at least once: a callback that
// panics is recovered and logged rather than silently dropped, and
// in-flight callbacks are tracked so Stop can wait for them to drain.
type TimerScheduler struct {
	logger zerolog.Logger
	mu     sync.Mutex
	wg     sync.WaitGroup
	stopped bool
}

// New builds a TimerScheduler.
func New(logger zerolog.Logger) *TimerScheduler {
	return &TimerScheduler{logger: logger.With().Str("component", "scheduler").Logger()}
}

// RunAfter enqueues fn to run after delay, on its own goroutine, with a
// background context (the originating request's context has usually
// already ended by the time a timer fires).
func (s *TimerScheduler) RunAfter(delay time.Duration, fn func(ctx context.Context)) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.wg.Add(1)
	s.mu.Unlock()

	time.AfterFunc(delay, func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Msg("scheduled callback panicked")
			}
		}()
		fn(context.Background())
	})
	return nil
}

// Stop marks the scheduler closed to new work and waits for in-flight
// callbacks to finish.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}
