package viewer

import (
	"context"

	"github.com/turumba/docview/internal/cache"
)

// Problem is a defect found in one section's content.
type Problem struct {
	ID       string
	Source   string
	Message  string // load failure, empty when the section loaded
	Unmapped int    // relative links matching no section
}

// Check visits every content-bearing section in declaration order, waits
// for each load to finish, and reports failures and unmapped links.
// progress, when non-nil, is called after each section settles.
func (s *Session) Check(ctx context.Context, progress func(done int, id string)) ([]Problem, error) {
	s.Start()
	var problems []Problem
	done := 0
	for _, d := range s.reg.All() {
		if !d.HasContent() {
			continue
		}
		s.Handle(NavigateTo{ID: d.ID})
		if err := s.Settle(ctx); err != nil {
			return problems, err
		}
		done++
		if progress != nil {
			progress(done, d.ID)
		}

		p := Problem{ID: d.ID, Source: d.Source, Unmapped: s.Unmapped(d.ID)}
		if e := s.Entry(d.ID); e.State == cache.Failed {
			p.Message = e.Message
		}
		if p.Message != "" || p.Unmapped > 0 {
			problems = append(problems, p)
		}
	}
	return problems, nil
}

// ContentSections returns how many sections Check will visit.
func (s *Session) ContentSections() int {
	n := 0
	for _, d := range s.reg.All() {
		if d.HasContent() {
			n++
		}
	}
	return n
}
