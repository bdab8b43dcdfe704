package lifecycle

import "sync"

// The secure-mode flag is process-wide: fixture revert routines consult it to
// bypass access checks that would otherwise block teardown. The revert path
// saves, forces and restores it around each ledger entry.
var (
	secureMu   sync.Mutex
	secureMode bool
)

// SecureMode reports whether access checks are currently bypassed.
func SecureMode() bool {
	secureMu.Lock()
	defer secureMu.Unlock()
	return secureMode
}

// SetSecureMode toggles the access-check bypass flag.
func SetSecureMode(enabled bool) {
	secureMu.Lock()
	defer secureMu.Unlock()
	secureMode = enabled
}

// elevate forces secure mode on and returns a restore func for the prior
// value. The restore runs unconditionally per ledger entry, even when the
// entry's revert fails.
func elevate() (restore func()) {
	secureMu.Lock()
	prior := secureMode
	secureMode = true
	secureMu.Unlock()

	return func() {
		secureMu.Lock()
		secureMode = prior
		secureMu.Unlock()
	}
}
