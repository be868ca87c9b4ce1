// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"

	"github.com/jeranaias/parley-tui/internal/session"
)

// =============================================================================
// CANCEL FUNCTION MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager holds the cancel function of the in-flight call. It must be
// used as a pointer so Bubble Tea's model copies share one mutex.
type cancelManager struct {
	mu     sync.Mutex
	call   *session.Call
	cancel context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// start derives a cancellable context for call, replacing any previous one.
func (cm *cancelManager) start(call *session.Call) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancel != nil {
		cm.cancel()
	}
	cm.call, cm.cancel = call, cancel
	return ctx
}

// cancelCurrent cancels the in-flight call, if any. It reports whether there
// was one.
func (cm *cancelManager) cancelCurrent() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancel == nil {
		return false
	}
	cm.cancel()
	cm.call, cm.cancel = nil, nil
	return true
}

// release drops the context of call once its reply arrived. A reply from an
// older call leaves the current one alone.
func (cm *cancelManager) release(call *session.Call) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.call != call || cm.cancel == nil {
		return
	}
	// RELIABILITY: always cancel so the context's resources are freed
	cm.cancel()
	cm.call, cm.cancel = nil, nil
}
