package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/kiryu-dev/duel-chess/pkg/utils"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func main() {
	host := flag.String("addr", "localhost:8080", "game server address")
	flag.Parse()
	u := url.URL{Scheme: "ws", Host: *host, Path: "/game"}
	header := http.Header{}
	header.Set(domain.ClientUuidHeader, uuid.NewString())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial: " + err.Error())
	}
	defer func() {
		_ = conn.Close()
	}()
	client := newClient(conn)
	errGroup := new(errgroup.Group)
	errGroup.Go(client.handleActions)
	errGroup.Go(client.handleInput)
	if err := errGroup.Wait(); err != nil {
		log.Fatal(err)
	}
}

type client struct {
	conn     *websocket.Conn
	scanner  *bufio.Scanner
	mu       sync.Mutex
	snapshot domain.SnapshotPayload
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:    conn,
		scanner: bufio.NewScanner(os.Stdin),
	}
}

func (c *client) handleActions() error {
	for {
		msg := new(domain.Message)
		if err := c.conn.ReadJSON(msg); err != nil {
			return errors.WithMessage(err, "read json msg")
		}
		var err error
		switch msg.Type {
		case domain.Snapshot:
			err = c.handleSnapshot(msg)
		case domain.MoveRejected:
			err = c.handleMoveRejected(msg)
		case domain.DuelBegin:
			err = c.handleDuelBegin(msg)
		case domain.DuelEnd:
			err = c.handleDuelEnd(msg)
		case domain.GameFinished:
			err = c.handleGameFinished(msg)
		}
		if err != nil {
			return err
		}
	}
}

func (c *client) handleSnapshot(msg *domain.Message) error {
	v, err := utils.UnmarshalJson[domain.SnapshotPayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "unmarshal json to 'SnapshotPayload' type")
	}
	c.mu.Lock()
	c.snapshot = v
	c.mu.Unlock()
	c.printBoard(v)
	return nil
}

func (c *client) handleMoveRejected(msg *domain.Message) error {
	v, err := utils.UnmarshalJson[domain.MoveRejectedPayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "unmarshal json to 'MoveRejectedPayload' type")
	}
	fmt.Printf("Ход из %s отклонён: %s\n", v.From, v.Reason)
	return nil
}

func (c *client) handleDuelBegin(msg *domain.Message) error {
	v, err := utils.UnmarshalJson[domain.DuelBeginPayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "unmarshal json to 'DuelBeginPayload' type")
	}
	fmt.Printf("Дуэль на %s: %s %s против %s %s...\n", v.Request.Target,
		v.Request.AttackerTeam, v.Request.AttackerType, v.Request.DefenderTeam, v.Request.DefenderType)
	return nil
}

func (c *client) handleDuelEnd(msg *domain.Message) error {
	v, err := utils.UnmarshalJson[domain.DuelEndPayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "unmarshal json to 'DuelEndPayload' type")
	}
	if v.AttackerWins {
		fmt.Printf("Дуэль на %s: атакующий победил\n", v.Target)
	} else {
		fmt.Printf("Дуэль на %s: защитник устоял\n", v.Target)
	}
	return nil
}

func (c *client) handleGameFinished(msg *domain.Message) error {
	v, err := utils.UnmarshalJson[domain.GameFinishedPayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "unmarshal json to 'GameFinishedPayload' type")
	}
	if v.PlayerWon {
		fmt.Printf("Победа! Команда %s выиграла. Введи 'restart' для новой игры\n", v.Winner)
	} else {
		fmt.Printf("Поражение, команда %s выиграла. Введи 'restart' для новой игры\n", v.Winner)
	}
	return nil
}

// handleInput reads "x1 y1 x2 y2" moves and "restart" commands from stdin.
func (c *client) handleInput() error {
	for c.scanner.Scan() {
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}
		if line == "restart" {
			if err := c.conn.WriteJSON(domain.Message{Type: domain.Restart}); err != nil {
				return errors.WithMessage(err, "write json msg")
			}
			continue
		}
		payload, err := c.parseMove(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := c.conn.WriteJSON(domain.Message{Type: domain.PlayerMove, Payload: payload}); err != nil {
			return errors.WithMessage(err, "write json msg")
		}
	}
	return c.scanner.Err()
}

func (c *client) parseMove(line string) (domain.PlayerMovePayload, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return domain.PlayerMovePayload{}, errors.New("ожидается 'x1 y1 x2 y2' или 'restart'")
	}
	coords := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return domain.PlayerMovePayload{}, errors.Errorf("'%s' не число", f)
		}
		coords[i] = n
	}
	from := domain.Cell{X: coords[0], Y: coords[1]}
	to := domain.Cell{X: coords[2], Y: coords[3]}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.snapshot.Pieces {
		if p.Cell == from {
			return domain.PlayerMovePayload{PieceID: p.ID, From: from, To: to}, nil
		}
	}
	return domain.PlayerMovePayload{}, errors.Errorf("на %s нет фигуры", from)
}

func (c *client) printBoard(s domain.SnapshotPayload) {
	cells := make(map[domain.Cell]domain.PieceView, len(s.Pieces))
	for _, p := range s.Pieces {
		cells[p.Cell] = p
	}
	fmt.Printf("\033[H\033[J")
	for y := s.Rows - 1; y >= 0; y-- {
		fmt.Printf("%d ", y)
		for x := 0; x < s.Columns; x++ {
			p, ok := cells[domain.Cell{X: x, Y: y}]
			if !ok {
				fmt.Print(" . ")
				continue
			}
			fmt.Printf(" %s ", glyph(p))
		}
		fmt.Println()
	}
	fmt.Print("  ")
	for x := 0; x < s.Columns; x++ {
		fmt.Printf(" %d ", x)
	}
	fmt.Println()
	fmt.Printf("Ход команды %s (%s)\n", s.Turn.CurrentTeam, s.Turn.Phase)
}

// glyph renders team A in upper case and team B in lower case.
func glyph(p domain.PieceView) string {
	letter := map[domain.PieceType]string{
		domain.King: "K", domain.Queen: "Q", domain.Rook: "R",
		domain.Bishop: "B", domain.Knight: "N", domain.Pawn: "P",
	}[p.Type]
	if p.Team == domain.TeamB {
		return strings.ToLower(letter)
	}
	return letter
}
