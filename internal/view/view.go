// Package view defines the display surface the viewer drives and an
// in-memory HTML implementation of it.
package view

import "golang.org/x/net/html"

// View is everything the router, loader and shell may change on screen.
type View interface {
	// ActivatePanel shows the panel for id and marks its nav item active.
	ActivatePanel(id string)
	// DeactivatePanel hides the panel for id and clears its nav indicator.
	DeactivatePanel(id string)
	SetBreadcrumb(text string)
	ScrollTop()
	SetDrawerOpen(open bool)
	SetGroupExpanded(group string, expanded bool)
	SetBlockExpanded(block string, expanded bool)

	// ShowLoading replaces the panel body with a loading placeholder.
	ShowLoading(id, source string)
	// ShowContent replaces the panel body with rendered content.
	ShowContent(id string, content *html.Node)
	// ShowError replaces the panel body with an error naming source and
	// message, plus a retry control for id.
	ShowError(id, source, message string)
}
