package appmanager

// Control is the public surface the rest of the system
// calls to drive the application manager: start/stop apps and query
// what's installed or running.
type Control struct {
	manifest   *Manifest
	supervisor *Supervisor
}

// NewControl creates a Control bound to manifest and supervisor.
func NewControl(manifest *Manifest, supervisor *Supervisor) *Control {
	return &Control{manifest: manifest, supervisor: supervisor}
}

// Start asks the currently running application to quit, then requests
// that name be started next. Both steps are fire-and-forget from the
// caller's perspective: a full event or thread queue is reported but
// not retried.
func (c *Control) Start(name string) error {
	var quitErr error
	if router := c.supervisor.RunningRouter(); router != nil {
		quitErr = router.Quit()
	}
	if err := c.supervisor.RequestStart(name); err != nil {
		return err
	}
	return quitErr
}

// Quit asks the currently running application to quit without starting
// a replacement. It is a no-op if the supervisor is already Idle.
func (c *Control) Quit() error {
	router := c.supervisor.RunningRouter()
	if router == nil {
		return nil
	}
	return router.Quit()
}

// Get looks up an installed application by prefix match.
func (c *Control) Get(name string) (*Application, error) {
	return c.manifest.Lookup(name)
}

// Head returns the first record in the manifest, installation order.
func (c *Control) Head() *Application {
	return c.manifest.Head()
}

// CurrentSlotID reports the flash slot of the running application, or
// InternalAppSlotID for internal apps and when the supervisor is Idle.
func (c *Control) CurrentSlotID() int {
	app := c.supervisor.Running()
	if app == nil || app.IsInternal {
		return InternalAppSlotID
	}
	return app.SlotID
}
