package board

import (
	"fmt"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
)

// Connect links two live items.
func (b *Board) Connect(from, to core.Ref, color string) (core.Connection, error) {
	if from == to {
		return core.Connection{}, fmt.Errorf("cannot connect an item to itself")
	}
	if b.state.Find(from) < 0 {
		return core.Connection{}, fmt.Errorf("item %s/%s not found", from.Type, from.ID)
	}
	if b.state.Find(to) < 0 {
		return core.Connection{}, fmt.Errorf("item %s/%s not found", to.Type, to.ID)
	}
	conn := core.Connection{ID: b.opts.NewID(), From: from, To: to, Color: color}
	if b.active != nil {
		v := *b.active
		conn.FolderID = &v
	}
	b.commit(func(c *change) bool {
		b.state.Connections = append(b.state.Connections, conn)
		c.touchConnections()
		return true
	})
	return conn.Clone(), nil
}

// Disconnect removes a connection. Missing ids are a no-op.
func (b *Board) Disconnect(id string) bool {
	return b.commit(func(c *change) bool {
		for i, conn := range b.state.Connections {
			if conn.ID == id {
				b.state.Connections = append(b.state.Connections[:i:i], b.state.Connections[i+1:]...)
				c.touchConnections()
				return true
			}
		}
		return false
	})
}

func (b *Board) Connections() []core.Connection {
	return b.state.Clone().Connections
}

// Curve is the rendered geometry of one connection.
type Curve struct {
	ConnectionID string        `json:"connectionId"`
	From         core.Position `json:"from"`
	Control      core.Position `json:"control"`
	To           core.Position `json:"to"`
}

// Curves resolves visible connections to item-center quadratic curves.
// Connections with a missing endpoint are skipped.
func (b *Board) Curves() []Curve {
	var out []Curve
	for _, conn := range b.state.Connections {
		if !core.InFolder(conn.FolderID, b.active) {
			continue
		}
		from, ok := b.center(conn.From)
		if !ok {
			continue
		}
		to, ok := b.center(conn.To)
		if !ok {
			continue
		}
		out = append(out, Curve{
			ConnectionID: conn.ID,
			From:         from,
			Control:      geometry.QuadraticControl(from, to),
			To:           to,
		})
	}
	return out
}

func (b *Board) center(ref core.Ref) (core.Position, bool) {
	i := b.state.Find(ref)
	if i < 0 {
		return core.Position{}, false
	}
	it := b.state.Items[ref.Type][i]
	return geometry.ItemRect(it.Position, it.SizeOf()).Center(), true
}

func (b *Board) dropConnectionsTo(ref core.Ref) bool {
	kept := b.state.Connections[:0:0]
	for _, conn := range b.state.Connections {
		if conn.From != ref && conn.To != ref {
			kept = append(kept, conn)
		}
	}
	dropped := len(kept) != len(b.state.Connections)
	if dropped {
		b.state.Connections = kept
	}
	return dropped
}
