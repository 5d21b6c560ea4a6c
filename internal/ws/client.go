package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/auctionroom-go/internal/model"
)

// client is one live websocket connection. Reads and writes each run on
// their own goroutine; the send channel is the only way to write frames.
type client struct {
	id   model.ConnectionID
	gw   *Gateway
	conn *websocket.Conn
	send chan []byte
	room model.AuctionID
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.gw.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.gw.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.gw.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.gw.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.gw.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.ReadTimeout))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.gw.logger.Warn("unexpected close",
					slog.String("connection_id", string(c.id)), slog.Any("error", err))
			}
			return
		}
		c.dispatch(context.Background(), msg)
		c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.ReadTimeout))
	}
}

// dispatch decodes one inbound envelope and routes it to the handler.
// Malformed frames are logged and skipped; a bad client cannot take the
// connection down.
func (c *client) dispatch(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.gw.logger.Warn("malformed frame",
			slog.String("connection_id", string(c.id)), slog.Any("error", err))
		return
	}

	switch env.Event {
	case EventAuth:
		var p AuthPayload
		if !c.decode(env, &p) {
			return
		}
		c.gw.handler.Auth(ctx, c.id, p.Token, model.AuctionID(p.AuctionID))
	case EventCheckAuth:
		var p AuthPayload
		if !c.decode(env, &p) {
			return
		}
		c.gw.handler.CheckAuth(ctx, c.id, p.Token, model.AuctionID(p.AuctionID))
	case EventRegister:
		var p RegisterPayload
		if !c.decode(env, &p) {
			return
		}
		c.gw.handler.Register(ctx, c.id, p.Name, model.AuctionID(p.AuctionID))
	case EventTick:
		var p TickPayload
		if !c.decode(env, &p) {
			return
		}
		c.gw.handler.Tick(ctx, c.id, p.Price)
	case EventStartAuction:
		c.gw.handler.StartAuction(ctx, c.id)
	case EventEndAuction:
		var p EndPayload
		if !c.decode(env, &p) {
			return
		}
		c.gw.handler.EndAuction(ctx, c.id, p.Price)
	case EventInvade:
		var p InvadePayload
		if !c.decode(env, &p) {
			return
		}
		c.gw.handler.Invade(ctx, c.id, p.Name)
	case EventExitAuction:
		c.gw.handler.ExitAuction(ctx, c.id)
	default:
		c.gw.logger.Warn("unknown event",
			slog.String("connection_id", string(c.id)),
			slog.String("event", env.Event))
	}
}

func (c *client) decode(env Envelope, into any) bool {
	if err := json.Unmarshal(env.Data, into); err != nil {
		c.gw.logger.Warn("malformed payload",
			slog.String("connection_id", string(c.id)),
			slog.String("event", env.Event),
			slog.Any("error", err))
		return false
	}
	return true
}
