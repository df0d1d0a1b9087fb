// internal/actions/session.go
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/wxauto/api/schemas"
	"github.com/xkilldash9x/wxauto/internal/entity"
	"github.com/xkilldash9x/wxauto/internal/lang"
	"github.com/xkilldash9x/wxauto/internal/parser"
	"github.com/xkilldash9x/wxauto/internal/resolver"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
)

// Class names of the session pane.
const (
	SearchFieldClass   = "mmui::XSearchField"
	SessionListClass   = "mmui::ChatSessionList"
	SessionTableClass  = "mmui::XTableView"
	SearchPopoverClass = "mmui::SearchContentPopover"
)

// SearchOptions tunes SwitchChat.
type SearchOptions struct {
	// Exact requires the whole result text, or the value of a recognized
	// "label: value" suffix, to equal the keyword ignoring case. Otherwise
	// any result containing the keyword matches.
	Exact bool
}

// SessionBox drives the session list and its search field.
type SessionBox struct {
	c *Client
}

func (s *SessionBox) searchField() (uia.Control, bool) {
	group, ok := s.c.resolver.BFS(s.c.root, resolver.And(resolver.ByType(uia.TypeGroup), resolver.ByClass(SearchFieldClass)))
	if !ok {
		return nil, false
	}
	return s.c.resolver.BFS(group, resolver.ByType(uia.TypeEdit))
}

func (s *SessionBox) sessionList() (uia.Control, bool) {
	group, ok := s.c.resolver.BFS(s.c.root, resolver.And(resolver.ByType(uia.TypeGroup), resolver.ByClass(SessionListClass)))
	if !ok {
		return nil, false
	}
	return s.c.resolver.BFS(group, resolver.And(resolver.ByType(uia.TypeList), resolver.ByClass(SessionTableClass)))
}

// resultList returns the list inside the search popover, when the popover is
// open.
func (s *SessionBox) resultList() (uia.Control, bool) {
	popover, ok := s.c.resolver.BFS(s.c.root, resolver.And(resolver.ByType(uia.TypeWindow), resolver.ByClass(SearchPopoverClass)))
	if !ok {
		return nil, false
	}
	return s.c.resolver.BFS(popover, resolver.ByType(uia.TypeList))
}

// Sessions returns the entries of the session list in display order.
func (s *SessionBox) Sessions(ctx context.Context) []*SessionElement {
	return query(ctx, s.c, "sessions.list", func(context.Context) []*SessionElement {
		return s.sessions()
	})
}

func (s *SessionBox) sessions() []*SessionElement {
	list, ok := s.sessionList()
	if !ok {
		return []*SessionElement{}
	}
	children := s.c.resolver.Children(list)
	out := make([]*SessionElement, 0, len(children))
	for _, ch := range children {
		out = append(out, newSessionElement(s, list, ch))
	}
	return out
}

// Search types keyword into the search field and returns the results the
// popover lists right away.
func (s *SessionBox) Search(ctx context.Context, keyword string) []*entity.SearchResult {
	return query(ctx, s.c, "sessions.search", func(ctx context.Context) []*entity.SearchResult {
		log := s.c.logger.With(zap.String("keyword", keyword))
		if resp := s.search(ctx, keyword, log); !resp.IsSuccess() {
			return []*entity.SearchResult{}
		}
		return s.results()
	})
}

// search pastes keyword into the search field through its context menu.
// Callers hold the actor lock.
func (s *SessionBox) search(ctx context.Context, keyword string, log *zap.Logger) schemas.Response {
	field, ok := s.searchField()
	if !ok {
		return schemas.Failure("search field not found")
	}
	if err := field.RightClick(ctx); err != nil {
		log.Debug("Right-clicking the search field failed.", zap.Error(err))
		return schemas.Failure("search field could not be clicked")
	}
	if err := s.c.desktop.SetClipboardText(keyword); err != nil {
		log.Debug("Setting the clipboard failed.", zap.Error(err))
		return schemas.Failure("clipboard unavailable")
	}
	if resp := s.c.selectFromMenu(ctx, s.c.Text(lang.Paste), log); !resp.IsSuccess() {
		return resp
	}
	if err := field.MiddleClick(ctx); err != nil {
		log.Debug("Middle-clicking the search field failed.", zap.Error(err))
	}
	return schemas.Success("search submitted", nil)
}

func (s *SessionBox) results() []*entity.SearchResult {
	list, ok := s.resultList()
	if !ok {
		return []*entity.SearchResult{}
	}
	children := s.c.resolver.Children(list)
	out := make([]*entity.SearchResult, 0, len(children))
	for _, ch := range children {
		out = append(out, entity.NewSearchResult(ch))
	}
	return out
}

// SwitchChat searches for keyword and opens the first matching result. On
// success the response data carries the display name under "nickname".
func (s *SessionBox) SwitchChat(ctx context.Context, keyword string, opts SearchOptions) schemas.Response {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return schemas.Failure("search keyword must not be empty")
	}
	return s.c.do(ctx, "sessions.switch_chat", func(ctx context.Context, log *zap.Logger) schemas.Response {
		log = log.With(zap.String("keyword", keyword), zap.Bool("exact", opts.Exact))
		if resp := s.search(ctx, keyword, log); !resp.IsSuccess() {
			return resp
		}

		labels := []string{s.c.Text(lang.WeChatIDLabel), s.c.Text(lang.NicknameLabel)}
		type hit struct {
			ctrl    uia.Control
			display string
		}
		found, ok := resolver.Poll(ctx, s.c.resolver, s.c.cfg.SearchChatTimeout, func(context.Context) (hit, bool) {
			for _, result := range s.results() {
				if display, ok := matchSession(result.Content(), keyword, opts.Exact, labels); ok {
					return hit{ctrl: result.Control(), display: display}, true
				}
			}
			return hit{}, false
		})
		if !ok {
			if _, open := s.resultList(); open {
				s.dismissSearch(ctx, log)
			}
			return schemas.Failuref("no session matching %q", keyword)
		}
		if err := found.ctrl.Click(ctx); err != nil {
			log.Debug("Clicking the search result failed.", zap.Error(err))
			return schemas.Failure("search result could not be clicked")
		}
		return schemas.Success("switched to "+found.display, map[string]string{"nickname": found.display})
	})
}

func (s *SessionBox) dismissSearch(ctx context.Context, log *zap.Logger) {
	list, ok := s.sessionList()
	if !ok {
		return
	}
	if err := list.MiddleClick(ctx); err != nil {
		log.Debug("Dismissing the search popover failed.", zap.Error(err))
	}
}

// matchSession decides whether a search result text matches keyword and
// returns the display name of the session it names.
func matchSession(text, keyword string, exact bool, labels []string) (string, bool) {
	if !exact {
		if strings.Contains(text, keyword) {
			return text, true
		}
		return "", false
	}
	if strings.EqualFold(text, keyword) {
		return text, true
	}
	for _, label := range labels {
		if label == "" {
			continue
		}
		for _, sep := range []string{" " + label + ": ", " " + label + "："} {
			i := strings.LastIndex(text, sep)
			if i < 0 {
				continue
			}
			if strings.EqualFold(text[i+len(sep):], keyword) {
				return text[:strings.Index(text, sep)], true
			}
		}
	}
	return "", false
}

// OpenSeparateWindow switches to the session name and pops it out into its
// own window.
func (s *SessionBox) OpenSeparateWindow(ctx context.Context, name string) schemas.Response {
	return s.c.do(ctx, "sessions.open_separate_window", func(ctx context.Context, log *zap.Logger) schemas.Response {
		resp := s.SwitchChat(ctx, name, SearchOptions{Exact: true})
		if !resp.IsSuccess() {
			return schemas.Failure("session not found")
		}
		data, _ := resp.Data.(map[string]string)
		realname := data["nickname"]
		pause(ctx, s.c.cfg.MenuWait)

		session, ok := resolver.Poll(ctx, s.c.resolver, s.c.cfg.SearchChatTimeout, func(context.Context) (*SessionElement, bool) {
			for _, se := range s.sessions() {
				if se.visible() && strings.HasPrefix(se.Raw(), realname) {
					return se, true
				}
			}
			return nil, false
		})
		if !ok {
			return schemas.Failuref("session %q is not shown in the list", realname)
		}
		if err := session.doubleClick(ctx); err != nil {
			log.Debug("Double-clicking the session failed.", zap.Error(err))
			return schemas.Failure("session could not be opened")
		}
		return schemas.Success("opened "+realname, map[string]string{"nickname": realname})
	})
}

// GoTop scrolls the session list to its first entry.
func (s *SessionBox) GoTop(ctx context.Context) schemas.Response {
	return s.scroll(ctx, "sessions.go_top", uia.KeyHome)
}

// GoBottom scrolls the session list to its last entry.
func (s *SessionBox) GoBottom(ctx context.Context) schemas.Response {
	return s.scroll(ctx, "sessions.go_bottom", uia.KeyEnd)
}

func (s *SessionBox) scroll(ctx context.Context, action, key string) schemas.Response {
	return s.c.do(ctx, action, func(ctx context.Context, log *zap.Logger) schemas.Response {
		list, ok := s.sessionList()
		if !ok {
			return schemas.Failure("session list not found")
		}
		if err := list.MiddleClick(ctx); err != nil {
			log.Debug("Focusing the session list failed.", zap.Error(err))
			return schemas.Failure("session list could not be focused")
		}
		if err := list.SendKeys(ctx, key); err != nil {
			log.Debug("Scrolling the session list failed.", zap.Error(err))
			return schemas.Failure("session list could not be scrolled")
		}
		return schemas.Success("scrolled", nil)
	})
}

// SessionElement is one entry of the session list.
type SessionElement struct {
	box     *SessionBox
	list    uia.Control
	ctrl    uia.Control
	summary parser.Session
}

func newSessionElement(box *SessionBox, list, ctrl uia.Control) *SessionElement {
	return &SessionElement{
		box:     box,
		list:    list,
		ctrl:    ctrl,
		summary: box.c.parser.Session(ctrl.Name()),
	}
}

func (e *SessionElement) Name() string            { return e.summary.Name }
func (e *SessionElement) UnreadCount() int        { return e.summary.UnreadCount }
func (e *SessionElement) Raw() string             { return e.summary.Raw }
func (e *SessionElement) Summary() parser.Session { return e.summary }
func (e *SessionElement) Control() uia.Control    { return e.ctrl }

func (e *SessionElement) Fields() []string { return e.summary.Fields() }

func (e *SessionElement) Value(field string) (any, bool) { return e.summary.Value(field) }

// ExternalID is the runtime id of the entry.
func (e *SessionElement) ExternalID() string { return e.ctrl.RuntimeID() }

// ContentHash is empty; session entries are identified by runtime id only.
func (e *SessionElement) ContentHash() string { return "" }

// Lines returns the non-blank text lines of the entry.
func (e *SessionElement) Lines() []string { return parser.Lines(e.summary.Raw) }

func (e *SessionElement) Exists() bool {
	return e.ctrl.Exists(0) && !e.ctrl.BoundingRectangle().Empty()
}

// visible reports whether the entry is drawn inside the list viewport.
func (e *SessionElement) visible() bool {
	if !e.Exists() {
		return false
	}
	r, view := e.ctrl.BoundingRectangle(), e.list.BoundingRectangle()
	return r.Left < view.Right && r.Right > view.Left && r.Top < view.Bottom && r.Bottom > view.Top
}

func (e *SessionElement) String() string {
	return fmt.Sprintf("Session(%s)", truncate(strings.ReplaceAll(e.summary.Raw, "\n", " "), 5))
}

// Click selects the session.
func (e *SessionElement) Click(ctx context.Context) error {
	return e.box.c.lock.Do(ctx, func(ctx context.Context) error {
		return e.click(ctx, uia.Control.Click)
	})
}

func (e *SessionElement) RightClick(ctx context.Context) error {
	return e.box.c.lock.Do(ctx, func(ctx context.Context) error {
		return e.click(ctx, uia.Control.RightClick)
	})
}

// DoubleClick selects the session, then double-clicks it.
func (e *SessionElement) DoubleClick(ctx context.Context) error {
	return e.box.c.lock.Do(ctx, e.doubleClick)
}

func (e *SessionElement) doubleClick(ctx context.Context) error {
	if err := e.click(ctx, uia.Control.Click); err != nil {
		return err
	}
	return e.click(ctx, uia.Control.DoubleClick)
}

func (e *SessionElement) click(ctx context.Context, press func(uia.Control, context.Context) error) error {
	if err := e.ctrl.ScrollIntoView(ctx); err != nil {
		e.box.c.logger.Debug("Scrolling the session into view failed.", zap.String("session", e.Name()), zap.Error(err))
	}
	return press(e.ctrl, ctx)
}

// SelectOption right-clicks the session and picks option from its context menu.
func (e *SessionElement) SelectOption(ctx context.Context, option string) schemas.Response {
	if option == "" {
		return schemas.Failure("menu option must not be empty")
	}
	return e.box.c.do(ctx, "session.select_option", func(ctx context.Context, log *zap.Logger) schemas.Response {
		log = log.With(zap.String("session", e.Name()), zap.String("option", option))
		if !e.Exists() {
			return schemas.Failure("session is no longer on screen")
		}
		if err := e.click(ctx, uia.Control.RightClick); err != nil {
			log.Debug("Right-clicking the session failed.", zap.Error(err))
			return schemas.Failure("session could not be right-clicked")
		}
		if !pause(ctx, e.box.c.cfg.MenuWait) {
			return schemas.Failuref("cancelled: %v", ctx.Err())
		}
		return e.box.c.selectFromMenu(ctx, option, log)
	})
}

// SelectMenuOption selects the localized caption of the menu key.
func (e *SessionElement) SelectMenuOption(ctx context.Context, key string) schemas.Response {
	return e.SelectOption(ctx, e.box.c.Text(key))
}

func (e *SessionElement) Pin(ctx context.Context) schemas.Response {
	return e.SelectMenuOption(ctx, lang.MenuPin)
}

func (e *SessionElement) Unpin(ctx context.Context) schemas.Response {
	return e.SelectMenuOption(ctx, lang.MenuUnpin)
}

func (e *SessionElement) MarkUnread(ctx context.Context) schemas.Response {
	return e.SelectMenuOption(ctx, lang.MenuMarkUnread)
}

func (e *SessionElement) ToggleMute(ctx context.Context) schemas.Response {
	return e.SelectMenuOption(ctx, lang.MenuMute)
}

func (e *SessionElement) OpenInSeparateWindow(ctx context.Context) schemas.Response {
	return e.SelectMenuOption(ctx, lang.MenuOpenSeparate)
}

func (e *SessionElement) Hide(ctx context.Context) schemas.Response {
	return e.SelectMenuOption(ctx, lang.MenuHide)
}

func (e *SessionElement) Delete(ctx context.Context) schemas.Response {
	return e.SelectMenuOption(ctx, lang.MenuDelete)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
