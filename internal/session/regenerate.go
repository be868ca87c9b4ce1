// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// =============================================================================
// REGENERATE
// =============================================================================

// Regenerate replaces an assistant turn. It finds the nearest user turn
// before turnID, drops turnID and everything after it, and returns a Call
// that resends that user turn's content. No new user turn is appended.
//
// Returns (nil, nil) when there is nothing to do: turnID is unknown, is not
// an assistant turn, or has no user turn before it. These indicate a stale
// reference and are not reported to the user. ErrPending and ErrClosed are
// returned without side effects.
func (c *Controller) Regenerate(turnID string) (*Call, error) {
	c.mu.Lock()
	if err := c.checkIdleLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	tr := c.sess.transcript
	index := tr.IndexOf(turnID)
	target, ok := tr.At(index)
	if !ok || !target.IsAssistant() {
		c.mu.Unlock()
		c.logger.Debug("regenerate ignored", "turn_id", turnID, "reason", "not an assistant turn")
		return nil, nil
	}

	user, _, ok := tr.FindLastUserBefore(index)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("regenerate ignored", "turn_id", turnID, "reason", "no preceding user turn")
		return nil, nil
	}

	tr.TruncateAt(index)
	call := c.beginLocked(KindRegenerate, user.Content)
	snap, observers := c.sess.snapshot(), c.observersLocked()
	c.mu.Unlock()

	c.logger.Debug("regenerating", "turn_id", turnID, "turns", snap.Len())
	emit(observers, snap)
	return call, nil
}

// RegenerateLast regenerates the newest assistant turn.
func (c *Controller) RegenerateLast() (*Call, error) {
	return c.Regenerate(c.LastAssistantID())
}
