package viewer

import (
	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/loader"
)

// Event is one discrete reaction the session loop processes.
type Event interface {
	event()
}

// AddressEdited is the user typing a new fragment into the address bar.
type AddressEdited struct{ Fragment string }

// addressChanged is queued when the fragment actually changes.
type addressChanged struct{}

// NavigateTo is an in-app navigation command, posted by nav items and
// rewritten links.
type NavigateTo struct{ ID string }

// Click is a click on a node of the page.
type Click struct{ Node *html.Node }

// KeyPress is a key press anywhere on the page.
type KeyPress struct{ Key string }

// Retry re-requests a section whose load failed.
type Retry struct{ ID string }

// ToggleDrawer is the mobile menu button.
type ToggleDrawer struct{}

// ToggleGroup is a click on a nav group header.
type ToggleGroup struct{ Group string }

// ToggleBlock is a click on a collapsible content block header.
type ToggleBlock struct{ Block string }

// Call runs Fn on the loop goroutine, letting other goroutines read
// session state between events.
type Call struct{ Fn func() }

// FetchCompleted carries a fetch result back onto the loop.
type FetchCompleted struct{ Result loader.Result }

func (AddressEdited) event()  {}
func (addressChanged) event() {}
func (NavigateTo) event()     {}
func (Click) event()          {}
func (KeyPress) event()       {}
func (Retry) event()          {}
func (ToggleDrawer) event()   {}
func (ToggleGroup) event()    {}
func (ToggleBlock) event()    {}
func (FetchCompleted) event() {}
func (Call) event()           {}
