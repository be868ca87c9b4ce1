// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Indicator is the read-only typing signal. It has no state of its own and
// mirrors the controller's pending flag.
type Indicator struct {
	ctrl *Controller
}

// Indicator returns the typing signal for this controller.
func (c *Controller) Indicator() Indicator {
	return Indicator{ctrl: c}
}

// Visible reports whether a reply is pending.
func (i Indicator) Visible() bool {
	if i.ctrl == nil {
		return false
	}
	return i.ctrl.Pending()
}
