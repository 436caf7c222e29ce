// SPDX-License-Identifier: MPL-2.0

package provision

// Session is an immutable snapshot of one provisioned runtime. Operations
// that change the active interpreter return a new Session rather than
// mutating an old one, so two goroutines holding the same record always
// agree on what it points at.
type Session struct {
	// PythonPath is the interpreter scripts run with. When VenvPath is
	// set this is the environment's interior interpreter, otherwise the
	// toolchain-managed one.
	PythonPath string

	// Version is the runtime version the session was provisioned for.
	Version string

	// VenvPath is the virtual environment the session is scoped to,
	// empty when running against the managed interpreter directly.
	VenvPath string

	// Reused is true when provisioning found an existing installation
	// instead of performing one.
	Reused bool
}

// InVenv reports whether the session is scoped to a virtual environment.
func (s Session) InVenv() bool {
	return s.VenvPath != ""
}
