package ws

import (
	"net"

	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/pkg/errors"
)

type client struct {
	conn *websocket.Conn
	uuid string
}

func newClient(conn *websocket.Conn, uuid string) client {
	return client{conn: conn, uuid: uuid}
}

func (c client) WriteMessage(msg domain.Message) error {
	if err := c.conn.WriteJSON(msg); err != nil {
		return errors.WithMessage(closedOr(err), "websocket conn write json")
	}
	return nil
}

func (c client) ReadMessage() (domain.Message, error) {
	var msg domain.Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return domain.Message{}, errors.WithMessage(closedOr(err), "websocket conn read json")
	}
	return msg, nil
}

func (c client) Uuid() string {
	return c.uuid
}

func (c client) Close() {
	_ = c.conn.Close()
}

func closedOr(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) || errors.Is(err, net.ErrClosed) {
		return domain.ErrConnectionClosed
	}
	return err
}
