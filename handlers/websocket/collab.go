package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/config"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/session"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type ackInvoker func(err error, payload map[string]any)

// Boards opens the session of a board.
type Boards interface {
	Get(ctx context.Context, boardID string) (*session.Session, error)
}

// GestureArgs is the single payload shape of every gesture event. Each event
// reads only the fields it needs.
type GestureArgs struct {
	Token       string        `json:"token,omitempty"`
	Ref         *core.Ref     `json:"ref,omitempty"`
	Point       core.Position `json:"point"`
	Translation core.Position `json:"translation"`
	Release     core.Position `json:"release"`
	A           core.Position `json:"a"`
	B           core.Position `json:"b"`
	DeltaY      float64       `json:"deltaY"`
	OnItem      bool          `json:"onItem,omitempty"`
	NoteSticker string        `json:"noteSticker,omitempty"`
}

var (
	activeRooms = make(map[string]int)
	roomsMutex  sync.RWMutex

	// watched holds the boards whose changes are already relayed to a room.
	watched      = make(map[string]bool)
	watchedMutex sync.Mutex
)

func GetActiveRooms() map[string]int {
	roomsMutex.RLock()
	defer roomsMutex.RUnlock()

	rooms := make(map[string]int, len(activeRooms))
	for k, v := range activeRooms {
		rooms[k] = v
	}
	return rooms
}

func roomOf(boardID string) socketio.Room {
	return socketio.Room("board:" + boardID)
}

// conn is the per-socket gesture state.
type conn struct {
	mu    sync.Mutex
	s     *session.Session
	coast context.CancelFunc
}

func (c *conn) session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

// startCoast replaces any running inertia loop.
func (c *conn) startCoast() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coast != nil {
		c.coast()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.coast = cancel
	return ctx
}

func (c *conn) stopCoast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coast != nil {
		c.coast()
		c.coast = nil
	}
}

// SetupSocketIO serves the gesture stream of a board. Sockets join with
// "join-board" and then drive drag, resize, box selection, pan, pinch, wheel
// and stroke gestures against the board session. Committed changes are
// relayed to every socket in the board room as "board-change".
func SetupSocketIO(boards Boards, cfg config.Config) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(cfg.Server.MaxBufferSize)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	origins := make([]any, 0, len(cfg.Server.CORSOrigins))
	for _, o := range cfg.Server.CORSOrigins {
		origins = append(origins, o)
	}
	if len(origins) == 1 && origins[0] == "*" {
		opts.SetCors(&types.Cors{Origin: "*", Credentials: true})
	} else {
		opts.SetCors(&types.Cors{Origin: origins, Credentials: true})
	}
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		me := socket.Id()
		c := &conn{}

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-board", func(datas ...any) {
			args, ack, err := parseGestureArgs(datas)
			if err != nil {
				respondWithAck(socket, ack, "join-board-ack", errorPayload(err), err)
				return
			}
			boardID, err := resolveBoard(args.Token, cfg.Auth.Required)
			if err != nil {
				respondWithAck(socket, ack, "join-board-ack", errorPayload(err), err)
				return
			}
			s, err := boards.Get(context.Background(), boardID)
			if err != nil {
				respondWithAck(socket, ack, "join-board-ack", errorPayload(err), err)
				return
			}
			c.mu.Lock()
			c.s = s
			c.mu.Unlock()
			watchBoard(srv, s)

			room := roomOf(boardID)
			socket.Join(room)
			utils.Log().Printf("Socket %v has joined %v\n", me, room)

			srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, fetchErr error) {
				if fetchErr != nil {
					respondWithAck(socket, ack, "join-board-ack", errorPayload(fetchErr), fetchErr)
					return
				}
				roomsMutex.Lock()
				activeRooms[boardID] = len(users)
				roomsMutex.Unlock()

				respondWithAck(socket, ack, "join-board-ack", map[string]any{
					"status":     "ok",
					"boardId":    boardID,
					"user_count": len(users),
					"view":       s.View(),
				}, nil)
			})
		})

		on := func(event string, handle func(s *session.Session, args GestureArgs) (map[string]any, error)) {
			//nolint:errcheck // Socket.IO event handlers do not return useful errors
			socket.On(event, func(datas ...any) {
				args, ack, err := parseGestureArgs(datas)
				if err != nil {
					respondWithAck(socket, ack, "", errorPayload(err), err)
					return
				}
				s := c.session()
				if s == nil {
					err := fmt.Errorf("join a board first")
					respondWithAck(socket, ack, "", errorPayload(err), err)
					return
				}
				payload, err := handle(s, args)
				if err != nil {
					respondWithAck(socket, ack, "", errorPayload(err), err)
					return
				}
				if payload == nil {
					payload = map[string]any{}
				}
				payload["status"] = "ok"
				respondWithAck(socket, ack, "", payload, nil)
			})
		}

		on("drag-start", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			if args.Ref == nil {
				return nil, fmt.Errorf("ref is required")
			}
			return map[string]any{"started": s.BeginDrag(*args.Ref, args.Point)}, nil
		})
		on("drag-move", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			s.MoveDrag(args.Translation)
			_ = socket.Volatile().Broadcast().To(roomOf(s.BoardID())).Emit("drag-preview", map[string]any{
				"refs":        s.Selection(),
				"translation": args.Translation,
			})
			return nil, nil
		})
		on("drag-end", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"outcome": s.EndDrag(args.Translation, args.Release)}, nil
		})

		on("resize-start", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			if args.Ref == nil {
				return nil, fmt.Errorf("ref is required")
			}
			return map[string]any{"started": s.BeginResize(*args.Ref)}, nil
		})
		on("resize-move", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			s.MoveResize(args.Translation)
			return nil, nil
		})
		on("resize-end", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"outcome": s.EndResize(args.Translation)}, nil
		})

		on("box-start", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"started": s.BeginBox(args.Point, args.OnItem)}, nil
		})
		on("box-move", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			s.UpdateBox(args.Point)
			rect, ok := s.Box()
			if !ok {
				return nil, nil
			}
			return map[string]any{"box": rect}, nil
		})
		on("box-end", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"selected": s.EndBox(args.Point)}, nil
		})

		on("pan-start", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			c.stopCoast()
			return map[string]any{"started": s.BeginPan(args.Point, time.Now())}, nil
		})
		on("pan-move", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"view": s.MovePan(args.Point, time.Now())}, nil
		})
		on("pan-end", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			coasting := s.EndPan()
			if coasting {
				ctx := c.startCoast()
				go s.Coast(ctx, func(v session.ViewState) {
					_ = socket.Volatile().Emit("view", v)
				})
			}
			return map[string]any{"coasting": coasting}, nil
		})
		on("pinch-start", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			c.stopCoast()
			return map[string]any{"started": s.BeginPinch(args.A, args.B)}, nil
		})
		on("pinch-move", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"view": s.UpdatePinch(args.A, args.B)}, nil
		})
		on("pinch-end", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"view": s.EndPinch()}, nil
		})
		on("wheel", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			return map[string]any{"view": s.Wheel(args.DeltaY, args.Point)}, nil
		})

		on("stroke-start", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			if args.NoteSticker != "" {
				return map[string]any{"started": s.BeginInk(args.NoteSticker, args.Point)}, nil
			}
			return map[string]any{"started": s.BeginStroke(args.Point)}, nil
		})
		on("stroke-sample", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			s.SampleStroke(args.Point)
			return nil, nil
		})
		on("stroke-end", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			st, ok := s.EndStroke()
			if !ok {
				return map[string]any{"committed": false}, nil
			}
			return map[string]any{"committed": true, "stroke": st}, nil
		})

		on("cancel", func(s *session.Session, args GestureArgs) (map[string]any, error) {
			c.stopCoast()
			s.Cancel()
			return nil, nil
		})

		socket.On("disconnecting", func(datas ...any) {
			c.stopCoast()
			if s := c.session(); s != nil {
				s.Cancel()
			}
			for _, currentRoom := range socket.Rooms().Keys() {
				boardID, isBoard := strings.CutPrefix(string(currentRoom), "board:")
				if !isBoard {
					continue
				}
				srv.In(currentRoom).FetchSockets()(func(users []*socketio.RemoteSocket, _ error) {
					utils.Log().Printf("disconnecting %v from room %v\n", me, currentRoom)
					others := 0
					for _, userInRoom := range users {
						if userInRoom.Id() != me {
							others++
						}
					}
					roomsMutex.Lock()
					if others == 0 {
						delete(activeRooms, boardID)
					} else {
						activeRooms[boardID] = others
					}
					roomsMutex.Unlock()
				})
			}
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv
}

// watchBoard relays the committed changes of a session to its room once.
func watchBoard(srv *socketio.Server, s *session.Session) {
	watchedMutex.Lock()
	defer watchedMutex.Unlock()
	if watched[s.ID()] {
		return
	}
	watched[s.ID()] = true
	room := roomOf(s.BoardID())
	s.OnChange(func(ch board.Change) {
		_ = srv.To(room).Emit("board-change", changePayload(ch))
	})
}

func changePayload(ch board.Change) map[string]any {
	removed := ch.Removed
	if removed == nil {
		removed = []core.Ref{}
	}
	return map[string]any{"keys": ch.Keys, "removed": removed}
}

// resolveBoard maps a join token to a board id. Without a token the local
// board is used unless authentication is required.
func resolveBoard(token string, required bool) (string, error) {
	if token == "" {
		if required {
			return "", fmt.Errorf("token is required")
		}
		return auth.LocalSubject, nil
	}
	claims, err := auth.ParseJWT(token)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return claims.Subject, nil
}

// parseGestureArgs decodes the first non-ack argument into GestureArgs.
// A missing argument yields the zero value.
func parseGestureArgs(datas []any) (GestureArgs, ackInvoker, error) {
	ack, args := extractAck(datas)
	var out GestureArgs
	if len(args) == 0 || args[0] == nil {
		return out, ack, nil
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return out, ack, fmt.Errorf("invalid payload: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, ack, fmt.Errorf("invalid payload: %w", err)
	}
	return out, ack, nil
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
	}
}

func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	candidate := datas[len(datas)-1]
	ack = wrapAck(candidate)
	if ack == nil {
		return nil, datas
	}

	return ack, datas[:len(datas)-1]
}

func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}

	value := reflect.ValueOf(candidate)
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil
	}

	typ := value.Type()
	return func(err error, payload map[string]any) {
		value.Call(buildAckArgs(typ, err, payload))
	}
}

func buildAckArgs(typ reflect.Type, err error, payload map[string]any) []reflect.Value {
	numIn := typ.NumIn()
	args := make([]reflect.Value, numIn)

	for i := 0; i < numIn; i++ {
		var argValue any
		switch {
		case numIn == 1:
			if err != nil {
				argValue = err
			} else {
				argValue = payload
			}
		case i == 0:
			argValue = err
		case i == 1:
			argValue = payload
		}
		args[i] = coerceValue(argValue, typ.In(i))
	}

	return args
}

func coerceValue(value any, targetType reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(targetType)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(targetType) {
		return rv
	}
	if rv.Type().ConvertibleTo(targetType) {
		return rv.Convert(targetType)
	}
	if targetType.Kind() == reflect.String {
		return reflect.ValueOf(fmt.Sprint(value)).Convert(targetType)
	}
	return reflect.Zero(targetType)
}

// respondWithAck answers through the ack callback when the client sent one
// and also emits event when it is named.
func respondWithAck(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}

	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
