// Package shell controls the viewer chrome: the mobile drawer, collapsible
// nav groups, collapsible content blocks and the breadcrumb. All state is
// plain booleans with no cross-component invariants.
package shell

import "github.com/turumba/docview/internal/view"

// Shell tracks chrome state and mirrors every change onto a View.
type Shell struct {
	view       view.View
	drawerOpen bool
	groups     map[string]bool
	blocks     map[string]bool
	breadcrumb string
}

// New creates a Shell with the drawer closed and every group collapsed.
func New(v view.View) *Shell {
	return &Shell{
		view:   v,
		groups: make(map[string]bool),
		blocks: make(map[string]bool),
	}
}

// OpenDrawer opens the mobile drawer.
func (s *Shell) OpenDrawer() { s.setDrawer(true) }

// CloseDrawer closes the mobile drawer. Closing an already closed drawer is
// still pushed to the view.
func (s *Shell) CloseDrawer() { s.setDrawer(false) }

// ToggleDrawer flips the mobile drawer, as the menu button does.
func (s *Shell) ToggleDrawer() { s.setDrawer(!s.drawerOpen) }

func (s *Shell) setDrawer(open bool) {
	s.drawerOpen = open
	s.view.SetDrawerOpen(open)
}

// DrawerOpen reports whether the drawer is open.
func (s *Shell) DrawerOpen() bool { return s.drawerOpen }

// HandleKey reacts to a key press. Escape always closes the drawer.
func (s *Shell) HandleKey(key string) {
	if key == "Escape" {
		s.CloseDrawer()
	}
}

// ToggleGroup flips a collapsible nav group.
func (s *Shell) ToggleGroup(name string) {
	s.setGroup(name, !s.groups[name])
}

// ExpandGroup forces a nav group open.
func (s *Shell) ExpandGroup(name string) {
	if name == "" {
		return
	}
	s.setGroup(name, true)
}

func (s *Shell) setGroup(name string, open bool) {
	s.groups[name] = open
	s.view.SetGroupExpanded(name, open)
}

// GroupExpanded reports whether the named group is open.
func (s *Shell) GroupExpanded(name string) bool { return s.groups[name] }

// ToggleBlock flips a collapsible content block.
func (s *Shell) ToggleBlock(name string) {
	open := !s.blocks[name]
	s.blocks[name] = open
	s.view.SetBlockExpanded(name, open)
}

// BlockExpanded reports whether the named content block is open.
func (s *Shell) BlockExpanded(name string) bool { return s.blocks[name] }

// SetBreadcrumb updates the breadcrumb text.
func (s *Shell) SetBreadcrumb(text string) {
	s.breadcrumb = text
	s.view.SetBreadcrumb(text)
}

// Breadcrumb returns the current breadcrumb text.
func (s *Shell) Breadcrumb() string { return s.breadcrumb }
