// Package injector implements the process controller / DLL injector
// described in spec §4.2: launch a target process stalled at its
// entry point, inject native libraries into it, patch a fixed absolute
// address with a pointer to a replacement archive filename, then
// release it to run natively.
package injector

import "errors"

// State is where a Session sits in the lifecycle spec §4.2 describes.
type State int

const (
	// StateStalled: launched, parked at entry point, safe to inject/patch.
	StateStalled State = iota
	// StateReleased: original code restored, thread resumed. Terminal.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateStalled:
		return "stalled"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Errors shared across launch/inject/patch/release (spec §7).
var (
	ErrUnsupportedPlatform    = errors.New("injector: unsupported platform")
	ErrExeNotFound            = errors.New("injector: executable not found")
	ErrExeMalformed           = errors.New("injector: executable could not be parsed as a PE32 image")
	ErrProcessCreateFailed    = errors.New("injector: CreateProcess failed")
	ErrEntryReadFailed        = errors.New("injector: failed to read entry-point bytes")
	ErrEntryPatchFailed       = errors.New("injector: failed to write entry-point stall stub")
	ErrThreadQueryFailed      = errors.New("injector: failed to query thread context")
	ErrEntryReachTimeout      = errors.New("injector: timed out waiting for thread to reach entry point")
	ErrPathCanonicalizeFailed = errors.New("injector: failed to canonicalize library path")
	ErrRemoteAllocFailed      = errors.New("injector: remote allocation failed")
	ErrRemoteWriteFailed      = errors.New("injector: remote write failed")
	ErrRemoteThreadFailed     = errors.New("injector: remote thread creation failed")
	ErrRestoreWriteFailed     = errors.New("injector: failed to restore original entry-point bytes")
	ErrResumeFailed           = errors.New("injector: failed to resume primary thread")
	ErrSessionReleased        = errors.New("injector: session already released")
	ErrSessionNotStalled      = errors.New("injector: operation requires a stalled session")
)

// stallStub is the two-byte relative jump-to-self (EB FE) used to park
// the target thread at its entry point (spec §4.2, GLOSSARY "Stall stub").
var stallStub = [2]byte{0xEB, 0xFE}

// Config carries the one piece of target-ABI knowledge that is specific
// to a particular build of the game: the fixed absolute address the
// game dereferences to find its archive filename (spec §9: "hard-coded
// 0x553D7E ... treat it as configuration, not code").
type Config struct {
	// PakPointerAddress is the fixed absolute address in the target's
	// address space holding a 4-byte pointer to the archive filename.
	PakPointerAddress uint32

	// EntryReachIterations bounds the poll loop in LaunchStalled (spec §9
	// "replace the unbounded 10ms poll with a bounded loop"). Zero means
	// DefaultEntryReachIterations iterations, 10ms apart.
	EntryReachIterations int
}

const (
	// DefaultEntryReachIterations is ~500 iterations at ~10ms each (~5s),
	// per spec §9's suggested bound.
	DefaultEntryReachIterations = 500
)

func (c Config) iterations() int {
	if c.EntryReachIterations > 0 {
		return c.EntryReachIterations
	}
	return DefaultEntryReachIterations
}

// Session is the handle bundle representing one controlled child
// process (spec §3 "ProcessSession"). All OS handles are owned
// exclusively by the Session and released by Release; a Session that
// is never released leaves the child in whatever state it was in —
// that is the caller's explicit responsibility (spec §3).
//
// The memory InjectLibrary and PatchPakfilePointer allocate inside the
// child (the wide DLL path, the narrow archive filename) is neither
// tracked nor freed: after Release the child owns it, and the patched
// pointer keeps referring to it for the rest of the game's run.
type Session struct {
	Pid        uint32
	EntryPoint uint32

	state        State
	originalCode [2]byte

	handles platformHandles
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// requireStalled is the guard every mutator operation shares: spec §4.2
// says "From Stalled, any of the mutator operations may be issued; the
// session remains in Stalled", and that patch-before-release ordering
// (spec §9, third open question) is enforced by only allowing
// PatchPakfilePointer while still StateStalled.
func (s *Session) requireStalled() error {
	if s.state == StateReleased {
		return ErrSessionReleased
	}
	if s.state != StateStalled {
		return ErrSessionNotStalled
	}
	return nil
}
