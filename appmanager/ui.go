package appmanager

import "github.com/inos-labs/appmanager/internal/obslog"

// UIHooks is the window-stack/click-config collaborator the router
// drives as applications start, run, and quit. The window manager and
// click-config subsystem live elsewhere; UIHooks is the seam a real
// implementation plugs in at.
type UIHooks interface {
	// InstallDefaultClickConfig resets button handlers to the
	// platform default before an application's entry point runs.
	InstallDefaultClickConfig()
	// SubscribeSelectClick installs handler as the select-button
	// click handler, overriding the default.
	SubscribeSelectClick(handler func())
	// SubscribeBackLongClick installs handler as the back-button
	// long-click handler.
	SubscribeBackLongClick(handler func())
	// UnsubscribeAllButtons tears down every button subscription
	// belonging to the current application.
	UnsubscribeAllButtons()
	// UnsubscribeTickService cancels the current application's
	// subscription to the time service, if any.
	UnsubscribeTickService()
	// MarkDirty requests a redraw of the top window.
	MarkDirty()
}

// NullUI is a logging, otherwise no-op UIHooks, suitable for the demo
// binary and for tests that don't exercise the window stack.
type NullUI struct {
	log *obslog.Logger
}

// NewNullUI creates a NullUI. log may be nil.
func NewNullUI(log *obslog.Logger) *NullUI {
	if log == nil {
		log = obslog.Default("ui")
	}
	return &NullUI{log: log}
}

func (u *NullUI) InstallDefaultClickConfig()    { u.log.Debug("install default click config") }
func (u *NullUI) SubscribeSelectClick(func())   { u.log.Debug("subscribe select click") }
func (u *NullUI) SubscribeBackLongClick(func()) { u.log.Debug("subscribe back long click") }
func (u *NullUI) UnsubscribeAllButtons()      { u.log.Debug("unsubscribe all buttons") }
func (u *NullUI) UnsubscribeTickService()     { u.log.Debug("unsubscribe tick service") }
func (u *NullUI) MarkDirty()                  { u.log.Debug("mark top window dirty") }
