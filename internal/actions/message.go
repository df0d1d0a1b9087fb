package actions

import (
	"context"

	"github.com/xkilldash9x/wxauto/api/schemas"
	"github.com/xkilldash9x/wxauto/internal/entity"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
)

// MessageActions drives the bubbles of the open chat.
type MessageActions struct {
	c *Client
}

// Message snapshots a bubble under the actor lock. Identity follows the
// automation.message_hash setting. A lock failure yields nil.
func (a *MessageActions) Message(ctx context.Context, ctrl uia.Control, attr entity.Attribution, layout entity.Layout) *entity.Message {
	if ctrl == nil {
		return nil
	}
	return query(ctx, a.c, "message.snapshot", func(context.Context) *entity.Message {
		return entity.NewMessage(ctrl, attr, layout, a.c.cfg.MessageHash)
	})
}

// anchor is the point inside the bubble a click lands on, relative to the
// bubble's top-left corner.
func (a *MessageActions) anchor(msg *entity.Message) (x, y int) {
	bias := a.c.cfg.MessageYBias
	offset := msg.Layout().Offset
	if offset <= 0 {
		offset = bias
	}
	x = offset * 2
	if msg.Layout().Direction == entity.DirectionRight {
		x = msg.Control().BoundingRectangle().Width() - offset*2
	}
	return x, bias
}

// Click clicks inside the bubble.
func (a *MessageActions) Click(ctx context.Context, msg *entity.Message) schemas.Response {
	return a.press(ctx, "message.click", msg, false)
}

// RightClick opens the bubble's context menu.
func (a *MessageActions) RightClick(ctx context.Context, msg *entity.Message) schemas.Response {
	return a.press(ctx, "message.right_click", msg, true)
}

func (a *MessageActions) press(ctx context.Context, action string, msg *entity.Message, right bool) schemas.Response {
	if msg == nil {
		return schemas.Failure("no message given")
	}
	return a.c.do(ctx, action, func(ctx context.Context, log *zap.Logger) schemas.Response {
		if !msg.Exists() {
			return schemas.Failure("message is no longer on screen")
		}
		x, y := a.anchor(msg)
		if err := msg.Control().ClickAt(ctx, x, y, right); err != nil {
			log.Debug("Clicking the message failed.", zap.Error(err))
			return schemas.Failure("message could not be clicked")
		}
		return schemas.Success("clicked", nil)
	})
}

// SelectOption right-clicks the bubble and picks option from its context menu.
func (a *MessageActions) SelectOption(ctx context.Context, msg *entity.Message, option string) schemas.Response {
	if option == "" {
		return schemas.Failure("menu option must not be empty")
	}
	if msg == nil {
		return schemas.Failure("no message given")
	}
	return a.c.do(ctx, "message.select_option", func(ctx context.Context, log *zap.Logger) schemas.Response {
		log = log.With(zap.String("option", option))
		if !msg.Exists() {
			return schemas.Failure("message is no longer on screen")
		}
		x, y := a.anchor(msg)
		if err := msg.Control().ClickAt(ctx, x, y, true); err != nil {
			log.Debug("Right-clicking the message failed.", zap.Error(err))
			return schemas.Failure("message could not be right-clicked")
		}
		return a.c.selectFromMenu(ctx, option, log)
	})
}
