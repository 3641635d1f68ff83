package injector

// Controller drives the launch/inject/patch/release protocol described
// in spec §4.2. A zero-value Controller uses DefaultEntryReachIterations;
// set Config.PakPointerAddress before calling PatchPakfilePointer.
type Controller struct {
	Config Config
}

// New returns a Controller configured with cfg.
func New(cfg Config) *Controller {
	return &Controller{Config: cfg}
}

// LaunchStalled creates exePath suspended, forces its primary thread to
// park at the executable's own entry point (not wherever the OS loader
// leaves a CREATE_SUSPENDED thread), and returns a Session describing
// it. See controller_windows.go for the real implementation and
// controller_other.go for the non-Windows stub.
func (c *Controller) LaunchStalled(exePath string) (*Session, error) {
	return c.launchStalled(exePath)
}

// InjectLibrary forces the session's child process to load dllPath via
// a remote LoadLibraryW thread, blocking until the load completes. A
// single failure is non-fatal to the session (spec §4.2, §7): the
// caller may continue issuing further injections or proceed to patch
// and release.
func (c *Controller) InjectLibrary(s *Session, dllPath string) error {
	if err := s.requireStalled(); err != nil {
		return err
	}
	return c.injectLibrary(s, dllPath)
}

// PatchPakfilePointer writes pakfileName into freshly allocated memory
// in the child and stores a pointer to it at Config.PakPointerAddress.
// It must be called while the session is still StateStalled — spec §9's
// third open question notes the original does this before release,
// and doing it after resume is racy; this controller enforces that
// ordering via requireStalled rather than merely documenting it.
func (c *Controller) PatchPakfilePointer(s *Session, pakfileName string) error {
	if err := s.requireStalled(); err != nil {
		return err
	}
	return c.patchPakfilePointer(s, pakfileName)
}

// Release restores the session's original entry-point bytes and
// resumes its primary thread. It is the only transition out of
// StateStalled; a session that is already StateReleased returns
// ErrSessionReleased rather than silently no-op'ing (spec §4.2's state
// machine: "double release is undefined" is promoted here to a
// reported contract violation, per spec §9's redesign item).
func (c *Controller) Release(s *Session) error {
	if s.state == StateReleased {
		return ErrSessionReleased
	}
	return c.release(s)
}
