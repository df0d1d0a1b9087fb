// internal/actions/moments.go
package actions

import (
	"context"
	"strings"
	"sync"

	"github.com/xkilldash9x/wxauto/api/schemas"
	"github.com/xkilldash9x/wxauto/internal/entity"
	"github.com/xkilldash9x/wxauto/internal/lang"
	"github.com/xkilldash9x/wxauto/internal/resolver"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
)

// Moments reads and interacts with the social feed timeline.
type Moments struct {
	c *Client

	mu     sync.Mutex
	list   uia.Control
	cached []*entity.FeedPost
}

// timelinePredicate recognizes the feed list: a list whose class or
// automation id names the feed, or one whose items carry a comment caption.
func (m *Moments) timelinePredicate() resolver.Predicate {
	return resolver.And(
		resolver.ByType(uia.TypeList),
		resolver.Or(
			resolver.ClassContains("Moment"),
			resolver.AutomationIDContains("moment"),
			resolver.HasChildNamed(m.c.Text(lang.Comment)),
		),
	)
}

// ensureList returns the cached timeline list while it is live, otherwise
// searches the main window for it. Callers hold the actor lock and m.mu.
func (m *Moments) ensureList() (uia.Control, bool) {
	if m.list != nil && m.list.Exists(0) {
		return m.list, true
	}
	m.list, m.cached = nil, nil
	list, ok := m.c.resolver.BFS(m.c.root, m.timelinePredicate())
	if !ok {
		m.c.logger.Debug("Feed timeline list not found.")
		return nil, false
	}
	m.list = list
	return list, true
}

// Posts returns the posts currently rendered in the timeline, already parsed
// under the actor lock. The result is cached; refresh re-enumerates the list.
// An unreachable timeline yields no posts.
func (m *Moments) Posts(ctx context.Context, refresh bool) []*entity.FeedPost {
	return query(ctx, m.c, "moments.posts", func(context.Context) []*entity.FeedPost {
		return m.posts(refresh)
	})
}

// posts enumerates and parses the timeline. Callers hold the actor lock.
func (m *Moments) posts(refresh bool) []*entity.FeedPost {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.ensureList()
	if !ok {
		return []*entity.FeedPost{}
	}
	if refresh || m.cached == nil {
		items := m.c.resolver.FindChildren(list, resolver.And(
			resolver.ByType(uia.TypeListItem, uia.TypeCustom),
			resolver.HasName(),
		))
		m.cached = make([]*entity.FeedPost, 0, len(items))
		for _, item := range items {
			post := entity.NewFeedPost(item, m.c.parser, m.c.logger)
			post.Post()
			m.cached = append(m.cached, post)
		}
	}
	return append([]*entity.FeedPost(nil), m.cached...)
}

// FindByPublisher returns the first post published by nickname.
func (m *Moments) FindByPublisher(ctx context.Context, nickname string, refresh bool) (*entity.FeedPost, bool) {
	nickname = strings.TrimSpace(nickname)
	found := query(ctx, m.c, "moments.find_by_publisher", func(context.Context) *entity.FeedPost {
		for _, post := range m.posts(refresh) {
			if post.Publisher() == nickname {
				return post
			}
		}
		return nil
	})
	return found, found != nil
}

// Like likes post, or withdraws the like when cancel is set.
func (m *Moments) Like(ctx context.Context, post *entity.FeedPost, cancel bool) schemas.Response {
	if post == nil {
		return schemas.Failure("no post given")
	}
	return m.c.do(ctx, "moments.like", func(ctx context.Context, log *zap.Logger) schemas.Response {
		if !post.Exists() {
			return schemas.Failure("post is no longer on screen")
		}
		menu, ok := m.c.openActionMenu(ctx, post, log)
		if !ok {
			return schemas.Failure("could not open the post action menu")
		}
		defer menu.Close(ctx)
		return menu.Like(ctx, cancel)
	})
}

// Comment posts content under post. With replyTo set the comment answers the
// first comment written by replyTo.
func (m *Moments) Comment(ctx context.Context, post *entity.FeedPost, content, replyTo string) schemas.Response {
	if post == nil {
		return schemas.Failure("no post given")
	}
	if strings.TrimSpace(content) == "" {
		return schemas.Failure("comment content must not be empty")
	}
	replyTo = strings.TrimSpace(replyTo)

	return m.c.do(ctx, "moments.comment", func(ctx context.Context, log *zap.Logger) schemas.Response {
		if !post.Exists() {
			return schemas.Failure("post is no longer on screen")
		}

		if replyTo != "" {
			target, ok := post.FindComment(replyTo)
			if !ok {
				return schemas.Failuref("no comment by %q to reply to", replyTo)
			}
			ctrl, ok := post.CommentControl(target)
			if !ok {
				return schemas.Failure("comment control not found")
			}
			if err := ctrl.Click(ctx); err != nil {
				log.Debug("Clicking the comment failed.", zap.Error(err))
				return schemas.Failure("comment control could not be clicked")
			}
		} else {
			menu, ok := m.c.openActionMenu(ctx, post, log)
			if !ok {
				return schemas.Failure("could not open the post action menu")
			}
			resp := menu.Comment(ctx)
			menu.Close(ctx)
			if !resp.IsSuccess() {
				return resp
			}
		}

		dialog, ok := m.c.waitCommentDialog(ctx, log)
		if !ok {
			return schemas.Failure("comment dialog did not appear")
		}
		return dialog.Send(ctx, content)
	})
}
