// Package console drives a viewer session from a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/turumba/docview/internal/cache"
	"github.com/turumba/docview/internal/dom"
	"github.com/turumba/docview/internal/view"
	"github.com/turumba/docview/internal/viewer"
)

var (
	crumbStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

const help = `commands:
  go <id>        navigate to a section
  #<fragment>    edit the address fragment
  nav <id>       click a sidebar link
  links          list rewritten links in the current section
  click <n>      click the nth rewritten link
  retry          retry a failed section
  menu | overlay | esc
  group <name>   toggle a sidebar group
  block <key>    toggle a collapsible block
  sections | show | html | help | quit`

// Console executes commands against one session and its document.
type Console struct {
	session *viewer.Session
	doc     *view.Document
	out     io.Writer
}

// New creates a console writing to out.
func New(s *viewer.Session, doc *view.Document, out io.Writer) *Console {
	return &Console{session: s, doc: doc, out: out}
}

// Run reads commands from in until EOF, quit, or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.session.Start()
	if err := c.session.Settle(ctx); err != nil {
		return err
	}
	c.status()

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(c.out)
			return sc.Err()
		}
		quit, err := c.Exec(ctx, sc.Text())
		if err != nil {
			fmt.Fprintln(c.out, errorStyle.Render(err.Error()))
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command line, then applies outstanding fetch results.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, "#") {
		c.session.Handle(viewer.AddressEdited{Fragment: line})
		return false, c.settle(ctx)
	}

	fields := strings.Fields(line)
	cmd, arg := fields[0], strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(c.out, help)
		return false, nil
	case "sections":
		c.sections()
		return false, nil
	case "show":
		c.status()
		return false, nil
	case "html":
		fmt.Fprintln(c.out, c.doc.HTML())
		return false, nil
	case "links":
		c.links()
		return false, nil
	case "go":
		if arg == "" {
			return false, fmt.Errorf("usage: go <id>")
		}
		c.session.Handle(viewer.NavigateTo{ID: arg})
	case "nav":
		n := c.doc.NavItem(arg)
		if n == nil {
			return false, fmt.Errorf("no sidebar link for %q", arg)
		}
		c.session.Handle(viewer.Click{Node: n})
	case "click":
		bs := c.session.Bindings(c.session.Active())
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(bs) {
			return false, fmt.Errorf("click: want 1..%d, got %q", len(bs), arg)
		}
		c.session.Handle(viewer.Click{Node: bs[n-1].Anchor})
	case "retry":
		if btn := c.doc.RetryButton(c.session.Active()); btn != nil {
			c.session.Handle(viewer.Click{Node: btn})
		} else {
			c.session.Handle(viewer.Retry{ID: c.session.Active()})
		}
	case "menu":
		c.session.Handle(viewer.Click{Node: c.doc.MenuButton()})
	case "overlay":
		c.session.Handle(viewer.Click{Node: c.doc.Overlay()})
	case "esc":
		c.session.Handle(viewer.KeyPress{Key: "Escape"})
	case "group":
		c.session.Handle(viewer.ToggleGroup{Group: arg})
	case "block":
		c.session.Handle(viewer.ToggleBlock{Block: arg})
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, c.settle(ctx)
}

func (c *Console) settle(ctx context.Context) error {
	if err := c.session.Settle(ctx); err != nil {
		return err
	}
	c.status()
	return nil
}

// status prints the breadcrumb, the active section's state and its text.
func (c *Console) status() {
	id := c.session.Active()
	e := c.session.Entry(id)
	fmt.Fprintln(c.out, crumbStyle.Render(c.doc.Breadcrumb())+" "+
		stateStyle.Render(fmt.Sprintf("#%s [%s] drawer=%t", c.session.Fragment(), e.State, c.doc.DrawerOpen())))

	body := c.doc.PanelBody(id)
	if body == nil {
		return
	}
	text := strings.TrimSpace(dom.TextContent(body))
	if e.State == cache.Failed {
		fmt.Fprintln(c.out, errorStyle.Render(text))
		return
	}
	if text != "" {
		fmt.Fprintln(c.out, text)
	}
}

func (c *Console) sections() {
	reg := c.session.Registry()
	active := c.session.Active()
	for _, d := range reg.All() {
		marker := "  "
		if d.ID == active {
			marker = "* "
		}
		state := ""
		if d.HasContent() {
			state = " " + stateStyle.Render("["+c.session.Entry(d.ID).State.String()+"]")
		}
		fmt.Fprintf(c.out, "%s%-20s %s%s\n", marker, d.ID, reg.Title(d.ID), state)
	}
}

func (c *Console) links() {
	bs := c.session.Bindings(c.session.Active())
	if len(bs) == 0 {
		fmt.Fprintln(c.out, stateStyle.Render("no section links"))
		return
	}
	for i, b := range bs {
		fmt.Fprintf(c.out, "%2d. %s -> %s\n", i+1, linkStyle.Render(strings.TrimSpace(dom.TextContent(b.Anchor))), b.SectionID)
	}
}
