// File: server/responder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-coop/adapters"
	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
	"github.com/momentics/hioload-coop/internal/transport"
	"github.com/momentics/hioload-coop/protocol"
)

// ResponderTask waits out its duration, then answers on the connection it
// owns and half-closes it, all within the step that reports Completed.
type ResponderTask struct {
	conn     *transport.Conn
	seconds  int
	now      api.Clock
	log      api.Logger
	ctrl     api.Control
	deadline time.Time
	started  bool
}

// NewResponderTask takes ownership of conn. Nil collaborators get defaults.
func NewResponderTask(conn *transport.Conn, seconds int, now api.Clock, log api.Logger, ctrl api.Control) *ResponderTask {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = control.NopLogger()
	}
	if ctrl == nil {
		ctrl = adapters.NewControlAdapter()
	}
	return &ResponderTask{conn: conn, seconds: seconds, now: now, log: log, ctrl: ctrl}
}

// Name implements api.Named.
func (r *ResponderTask) Name() string {
	return fmt.Sprintf("responder(%s, %ds)", r.conn.PeerAddr(), r.seconds)
}

// Seconds returns the requested duration.
func (r *ResponderTask) Seconds() int {
	return r.seconds
}

// Step implements api.Task. The deadline is fixed on the first step.
func (r *ResponderTask) Step() (api.Status, error) {
	now := r.now()
	if !r.started {
		r.started = true
		r.deadline = now.Add(time.Duration(r.seconds) * time.Second)
		r.log.Debugf("responder: sleeping for %d seconds", r.seconds)
	}
	if now.Before(r.deadline) {
		return api.Suspended, nil
	}
	return api.Completed, r.respond()
}

func (r *ResponderTask) respond() error {
	defer r.conn.Close()

	if _, err := r.conn.Write(protocol.Response(r.seconds)); err != nil {
		r.ctrl.AddMetric("responder.failed", 1)
		return fmt.Errorf("respond to %s: %w", r.conn.PeerAddr(), err)
	}
	if err := r.conn.CloseWrite(); err != nil {
		r.ctrl.AddMetric("responder.failed", 1)
		return fmt.Errorf("half-close %s: %w", r.conn.PeerAddr(), err)
	}
	r.conn.DrainPending()
	r.ctrl.AddMetric("responder.responses", 1)
	r.log.Infof("responder: processed GET request: /%d", r.seconds)
	return nil
}

// abort releases the connection of a responder that will never run.
func (r *ResponderTask) abort() {
	r.conn.Close()
}
