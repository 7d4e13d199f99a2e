package shell

import (
	"testing"

	"golang.org/x/net/html"
)

// recordingView captures the chrome calls a Shell makes.
type recordingView struct {
	drawer     []bool
	groups     map[string]bool
	blocks     map[string]bool
	breadcrumb string
}

func newRecordingView() *recordingView {
	return &recordingView{groups: map[string]bool{}, blocks: map[string]bool{}}
}

func (v *recordingView) ActivatePanel(string)                 {}
func (v *recordingView) DeactivatePanel(string)               {}
func (v *recordingView) SetBreadcrumb(text string)            { v.breadcrumb = text }
func (v *recordingView) ScrollTop()                           {}
func (v *recordingView) SetDrawerOpen(open bool)              { v.drawer = append(v.drawer, open) }
func (v *recordingView) SetGroupExpanded(g string, open bool) { v.groups[g] = open }
func (v *recordingView) SetBlockExpanded(b string, open bool) { v.blocks[b] = open }
func (v *recordingView) ShowLoading(string, string)           {}
func (v *recordingView) ShowContent(string, *html.Node)       {}
func (v *recordingView) ShowError(string, string, string)     {}

func TestDrawer(t *testing.T) {
	v := newRecordingView()
	s := New(v)

	s.ToggleDrawer()
	if !s.DrawerOpen() {
		t.Fatal("toggle should open a closed drawer")
	}
	s.HandleKey("Enter")
	if !s.DrawerOpen() {
		t.Error("non-Escape keys must not close the drawer")
	}
	s.HandleKey("Escape")
	if s.DrawerOpen() {
		t.Error("Escape must close the drawer")
	}
	s.HandleKey("Escape")
	if s.DrawerOpen() {
		t.Error("Escape on a closed drawer keeps it closed")
	}

	want := []bool{true, false, false}
	if len(v.drawer) != len(want) {
		t.Fatalf("view drawer calls = %v, want %v", v.drawer, want)
	}
	for i := range want {
		if v.drawer[i] != want[i] {
			t.Errorf("drawer call %d = %v, want %v", i, v.drawer[i], want[i])
		}
	}
}

func TestGroupsAndBlocks(t *testing.T) {
	v := newRecordingView()
	s := New(v)

	s.ToggleGroup("platform")
	if !s.GroupExpanded("platform") || !v.groups["platform"] {
		t.Error("toggle should open the group")
	}
	s.ToggleGroup("platform")
	if s.GroupExpanded("platform") {
		t.Error("second toggle should close the group")
	}
	s.ExpandGroup("platform")
	s.ExpandGroup("platform")
	if !s.GroupExpanded("platform") {
		t.Error("ExpandGroup should force open")
	}
	s.ExpandGroup("")
	if _, ok := v.groups[""]; ok {
		t.Error("empty group name must be ignored")
	}

	s.ToggleBlock("roadmap-0")
	if !s.BlockExpanded("roadmap-0") || !v.blocks["roadmap-0"] {
		t.Error("block should be open")
	}
}

func TestBreadcrumb(t *testing.T) {
	v := newRecordingView()
	s := New(v)
	s.SetBreadcrumb("Overview")
	if s.Breadcrumb() != "Overview" || v.breadcrumb != "Overview" {
		t.Errorf("breadcrumb = %q / %q", s.Breadcrumb(), v.breadcrumb)
	}
}
