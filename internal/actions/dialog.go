package actions

import (
	"context"

	"github.com/xkilldash9x/wxauto/api/schemas"
	"github.com/xkilldash9x/wxauto/internal/lang"
	"github.com/xkilldash9x/wxauto/internal/resolver"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CommentDialog is the comment editor of a feed post.
type CommentDialog struct {
	c    *Client
	win  uia.Control
	edit uia.Control
	send uia.Control
	log  *zap.Logger
}

// waitCommentDialog polls for a tool window carrying the send button.
// Callers hold the actor lock.
func (c *Client) waitCommentDialog(ctx context.Context, log *zap.Logger) (*CommentDialog, bool) {
	isSend := resolver.And(resolver.ByType(uia.TypeButton), resolver.ByName(c.Text(lang.Send)))
	win, ok := c.resolver.WaitWindow(ctx, resolver.WindowQuery{
		ClassName: c.cfg.ActionWindowClass,
		PID:       c.pid,
		Child:     isSend,
	}, c.cfg.DialogTimeout)
	if !ok {
		return nil, false
	}
	d := &CommentDialog{c: c, win: win, log: log}
	d.edit, _ = c.resolver.FindChild(win, resolver.ByType(uia.TypeEdit))
	d.send, _ = c.resolver.FindChild(win, isSend)
	return d, true
}

// Send fills the editor with content and submits it. Content goes through
// the clipboard; when the clipboard is unavailable it is typed key by key at
// the configured typing rate.
func (d *CommentDialog) Send(ctx context.Context, content string) schemas.Response {
	if !d.win.Exists(0) {
		return schemas.Failure("comment dialog is gone")
	}
	if content == "" {
		return schemas.Failure("comment content must not be empty")
	}
	if d.edit == nil || !d.edit.Exists(0) {
		return schemas.Failure("comment input not found")
	}

	if err := d.fill(ctx, content); err != nil {
		d.log.Debug("Filling the comment editor failed.", zap.Error(err))
		return schemas.Failure("failed to send comment")
	}

	var err error
	if d.send != nil && d.send.Exists(0) {
		err = d.send.Click(ctx)
	} else {
		err = d.edit.SendKeys(ctx, uia.KeyEnter)
	}
	if err != nil {
		d.log.Debug("Submitting the comment failed.", zap.Error(err))
		return schemas.Failure("failed to send comment")
	}
	return schemas.Success("comment sent", nil)
}

func (d *CommentDialog) fill(ctx context.Context, content string) error {
	if err := d.edit.Click(ctx); err != nil {
		return err
	}
	if err := d.edit.SendKeys(ctx, uia.KeySelectAll); err != nil {
		return err
	}
	if err := d.c.desktop.SetClipboardText(content); err != nil {
		d.log.Debug("Clipboard unavailable, typing the comment instead.", zap.Error(err))
		return d.c.typeText(ctx, d.edit, content)
	}
	return d.edit.SendKeys(ctx, uia.KeyPaste)
}

// typeText injects text one character at a time, paced by the typing rate.
func (c *Client) typeText(ctx context.Context, target uia.Control, text string) error {
	limiter := rate.NewLimiter(rate.Limit(c.cfg.TypingRate), 1)
	if c.cfg.TypingRate <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	for _, r := range text {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := target.SendKeys(ctx, escapeKey(r)); err != nil {
			return err
		}
	}
	return nil
}

// escapeKey quotes the characters SendKeys treats as chord syntax.
func escapeKey(r rune) string {
	switch r {
	case '{', '}':
		return "{" + string(r) + "}"
	case '\n':
		return "{Shift}{Enter}"
	}
	return string(r)
}
