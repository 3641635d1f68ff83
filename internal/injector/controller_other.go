//go:build !(windows && 386)

package injector

// platformHandles is empty on platforms that can't actually inject;
// kept so Session's shape doesn't change across build tags.
type platformHandles struct{}

func (c *Controller) launchStalled(exePath string) (*Session, error) {
	return nil, ErrUnsupportedPlatform
}

func (c *Controller) injectLibrary(s *Session, dllPath string) error {
	return ErrUnsupportedPlatform
}

func (c *Controller) patchPakfilePointer(s *Session, pakfileName string) error {
	return ErrUnsupportedPlatform
}

func (c *Controller) release(s *Session) error {
	return ErrUnsupportedPlatform
}
