package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// WriteState is the progress of a local-then-remote write.
type WriteState int

const (
	StateUncommitted WriteState = iota
	StateLocalCommitted
	StateRemoteCommitted
	StateCompensated
	// StateFailed means compensation failed and the local write is orphaned.
	StateFailed
)

func (s WriteState) String() string {
	switch s {
	case StateUncommitted:
		return "uncommitted"
	case StateLocalCommitted:
		return "local_committed"
	case StateRemoteCommitted:
		return "remote_committed"
	case StateCompensated:
		return "compensated"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const compensationTimeout = 10 * time.Second

// twoStepWrite commits a local write, then a remote one, and undoes the local
// write when the remote step fails. The caller always gets the error of the
// step that failed first.
type twoStepWrite struct {
	logger     *log.Entry
	local      func(ctx context.Context) error
	remote     func(ctx context.Context) error
	compensate func(ctx context.Context) error
	// orphaned is called with the remote error and the compensation error
	// when compensation fails.
	orphaned func(cause, err error)

	state WriteState
}

func (w *twoStepWrite) State() WriteState {
	return w.state
}

func (w *twoStepWrite) run(ctx context.Context) error {
	if err := w.local(ctx); err != nil {
		w.logger.WithError(err).WithField("state", w.state).Debug("local write failed")
		return err
	}
	w.transition(StateLocalCommitted)

	remoteErr := w.remote(ctx)
	if remoteErr == nil {
		w.transition(StateRemoteCommitted)
		return nil
	}
	w.logger.WithError(remoteErr).Warn("remote write failed, compensating")

	// the request context may already be done
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := w.compensate(cctx); err != nil {
		w.transition(StateFailed)
		w.logger.WithError(err).Error("compensation failed, local write orphaned")
		if w.orphaned != nil {
			w.orphaned(remoteErr, err)
		}
		return remoteErr
	}
	w.transition(StateCompensated)
	return remoteErr
}

func (w *twoStepWrite) transition(next WriteState) {
	w.logger.WithFields(log.Fields{"from": w.state, "to": next}).Debug("write state changed")
	w.state = next
}
