package entity

import (
	"github.com/xkilldash9x/wxauto/internal/parser"
	"github.com/xkilldash9x/wxauto/internal/uia"
)

// SearchResult is one row of the session search popover.
type SearchResult struct {
	ctrl    uia.Control
	content string
	class   string
}

func NewSearchResult(ctrl uia.Control) *SearchResult {
	return &SearchResult{ctrl: ctrl, content: ctrl.Name(), class: ctrl.ClassName()}
}

var searchResultFields = []string{"content", "type"}

func (s *SearchResult) Fields() []string { return searchResultFields }

func (s *SearchResult) Value(field string) (any, bool) {
	switch field {
	case "content":
		return s.content, true
	case "type":
		return s.class, true
	}
	return nil, false
}

func (s *SearchResult) ExternalID() string { return s.ctrl.RuntimeID() }

func (s *SearchResult) ContentHash() string {
	rect := s.ctrl.BoundingRectangle()
	return ContentHash(rect.Width(), rect.Height(), s.content)
}

func (s *SearchResult) Content() string      { return s.content }
func (s *SearchResult) Class() string        { return s.class }
func (s *SearchResult) Control() uia.Control { return s.ctrl }

// Lines returns the non-empty lines of the row text.
func (s *SearchResult) Lines() []string { return parser.Lines(s.content) }

func (s *SearchResult) Exists() bool { return exists(s.ctrl) }

func (s *SearchResult) String() string { return truncate(s.content, 16) }
