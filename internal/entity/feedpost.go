// internal/entity/feedpost.go
package entity

import (
	"strings"
	"sync"

	"github.com/xkilldash9x/wxauto/internal/parser"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
)

type parseState int

const (
	unparsed parseState = iota
	parsed
)

// FeedPost is a timeline entry backed by a live list item. The control's
// text is parsed on first access and cached until Refresh. The first access
// after construction or Refresh reads the live tree and must run under the
// actor lock.
type FeedPost struct {
	ctrl   uia.Control
	id     string
	parser *parser.Parser
	logger *zap.Logger

	mu    sync.Mutex
	state parseState
	post  parser.Post
	hash  string
	// commentCtrls maps the trimmed text of each text child to the child.
	// commentKeys keeps first-seen order for the fallback scan.
	commentCtrls map[string]uia.Control
	commentKeys  []string
}

func NewFeedPost(ctrl uia.Control, p *parser.Parser, logger *zap.Logger) *FeedPost {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedPost{ctrl: ctrl, id: ctrl.RuntimeID(), parser: p, logger: logger}
}

// ensure moves the post from unparsed to parsed. Callers hold f.mu.
func (f *FeedPost) ensure() {
	if f.state == parsed {
		return
	}
	blob := f.ctrl.Name()
	f.post = f.parser.FeedPost(blob)
	rect := f.ctrl.BoundingRectangle()
	f.hash = ContentHash(rect.Width(), rect.Height(), blob)

	f.commentCtrls = make(map[string]uia.Control)
	f.commentKeys = nil
	children, err := f.ctrl.Children()
	if err != nil {
		f.logger.Debug("Could not enumerate feed post children.",
			zap.String("post", uia.Describe(f.ctrl)), zap.Error(err))
	}
	for _, child := range children {
		if child.ControlType() != uia.TypeText {
			continue
		}
		text := strings.TrimSpace(child.Name())
		if text == "" {
			continue
		}
		if _, dup := f.commentCtrls[text]; !dup {
			f.commentCtrls[text] = child
			f.commentKeys = append(f.commentKeys, text)
		}
	}
	f.state = parsed
}

// Refresh drops the cached parse. The next access re-reads the control, so
// callers wrap Refresh and the following field read in Client.Lock().Do.
func (f *FeedPost) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = unparsed
	f.post = parser.Post{}
	f.hash = ""
	f.commentCtrls = nil
	f.commentKeys = nil
}

// Post returns a copy of the parsed content.
func (f *FeedPost) Post() parser.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure()
	p := f.post
	p.Likes = append([]string{}, f.post.Likes...)
	p.Comments = append([]parser.Comment{}, f.post.Comments...)
	return p
}

func (f *FeedPost) Publisher() string          { return f.Post().Publisher }
func (f *FeedPost) Timestamp() string          { return f.Post().Timestamp }
func (f *FeedPost) Content() string            { return f.Post().Content }
func (f *FeedPost) ImageCount() int            { return f.Post().ImageCount }
func (f *FeedPost) IsAdvertisement() bool      { return f.Post().IsAdvertisement }
func (f *FeedPost) Likes() []string            { return f.Post().Likes }
func (f *FeedPost) Comments() []parser.Comment { return f.Post().Comments }

func (f *FeedPost) Fields() []string { return parser.Post{}.Fields() }

func (f *FeedPost) Value(field string) (any, bool) {
	return f.Post().Value(field)
}

func (f *FeedPost) ExternalID() string { return f.id }

func (f *FeedPost) ContentHash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure()
	return f.hash
}

func (f *FeedPost) Control() uia.Control { return f.ctrl }

// Exists reports whether the list item is still live and rendered.
func (f *FeedPost) Exists() bool { return exists(f.ctrl) }

// FindComment returns the first comment written by author.
func (f *FeedPost) FindComment(author string) (parser.Comment, bool) {
	for _, c := range f.Comments() {
		if c.Author == author {
			return c, true
		}
	}
	return parser.Comment{}, false
}

// CommentControl returns the text control that renders c: by its raw line,
// then by the "author: content" forms, then by the first control whose text
// starts with the author and contains the content.
func (f *FeedPost) CommentControl(c parser.Comment) (uia.Control, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure()

	for _, key := range []string{c.Raw, c.Author + ": " + c.Content, c.Author + "：" + c.Content} {
		if key == "" {
			continue
		}
		if ctrl, ok := f.commentCtrls[key]; ok {
			return ctrl, true
		}
	}
	if c.Author == "" {
		return nil, false
	}
	for _, text := range f.commentKeys {
		if strings.HasPrefix(text, c.Author) && strings.Contains(text, c.Content) {
			return f.commentCtrls[text], true
		}
	}
	return nil, false
}

func (f *FeedPost) String() string {
	p := f.Post()
	return p.Publisher + ": " + truncate(p.Content, 16)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
