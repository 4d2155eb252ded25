// Package ws serves the host boundary over a WebSocket. Each connection
// owns at most one run: the host initializes it, drives it with control
// messages, and receives the tick stream back on the same socket.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"harvestsim.ai/internal/protocol"
	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/engine"
	"harvestsim.ai/internal/sim/tuning"
)

// Hooks lets the binary attach persistence to each run without the
// transport knowing about storage.
type Hooks struct {
	// OnRun is called after a run is initialized, before READY is sent.
	OnRun func(runID string, e *engine.Engine)
	// OnTick is called once per completed tick.
	OnTick func(runID string, sum *engine.TickSummary)
	// OnComplete is called once with the terminal report.
	OnComplete func(runID string, c *engine.Completion)
}

type Server struct {
	tun       tuning.Tuning
	catalog   *catalogs.Catalog
	validator *protocol.Validator
	hooks     Hooks
	log       *log.Logger

	runSeq   atomic.Uint64
	upgrader websocket.Upgrader
}

func NewServer(tun tuning.Tuning, catalog *catalogs.Catalog, validator *protocol.Validator, hooks Hooks, logger *log.Logger) *Server {
	return &Server{
		tun:       tun,
		catalog:   catalog,
		validator: validator,
		hooks:     hooks,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.serve(conn)
	}
}

// session is the per-connection state.
type session struct {
	srv   *Server
	runID string
	eng   *engine.Engine
	out   chan []byte
}

func (s *Server) serve(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := &session{srv: s, out: make(chan []byte, 256)}

	// Writer goroutine: the only place that touches the socket's write
	// side.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-sess.out:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			cancel()
			break
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			sess.sendError(protocol.ErrProtoBadRequest, "not valid JSON", false)
			continue
		}
		if err := s.validator.Validate(base.Type, msg); err != nil {
			sess.sendError(protocol.ErrProtoBadRequest, err.Error(), false)
			continue
		}
		sess.handle(ctx, base.Type, msg)
	}

	if sess.eng != nil {
		_ = sess.eng.Stop()
	}
}

func (sess *session) handle(ctx context.Context, msgType string, raw []byte) {
	if msgType != protocol.TypeInitialize && sess.eng == nil {
		sess.sendError(protocol.ErrNotInitialized, "send INITIALIZE first", false)
		return
	}
	switch msgType {
	case protocol.TypeInitialize:
		sess.handleInitialize(ctx, raw)
	case protocol.TypeStart:
		var m protocol.StartMsg
		_ = json.Unmarshal(raw, &m)
		sess.replyControl(sess.eng.Start(m.Speed), protocol.ErrBadState)
	case protocol.TypePause:
		sess.replyControl(sess.eng.Pause(), protocol.ErrBadState)
	case protocol.TypeSetSpeed:
		var m protocol.SetSpeedMsg
		_ = json.Unmarshal(raw, &m)
		sess.replyControl(sess.eng.SetSpeed(m.Speed), protocol.ErrBadSpeed)
	case protocol.TypeStop:
		sess.replyControl(sess.eng.Stop(), protocol.ErrBadState)
	case protocol.TypeGetState:
		sum, err := sess.eng.State()
		if err != nil {
			sess.sendError(protocol.ErrInternal, err.Error(), false)
			return
		}
		sess.send(protocol.StateMsg{
			Type:  protocol.TypeState,
			View:  protocol.NewStateView(sum.World),
			World: sum.World,
		})
	case protocol.TypeGetStats:
		stats, counts, err := sess.eng.Stats()
		if err != nil {
			sess.sendError(protocol.ErrInternal, err.Error(), false)
			return
		}
		sess.send(protocol.StatsMsg{Type: protocol.TypeStats, Stats: stats, EventCounts: counts})
	}
}

func (sess *session) handleInitialize(ctx context.Context, raw []byte) {
	if sess.eng != nil {
		sess.sendError(protocol.ErrBadState, "run already initialized", false)
		return
	}
	var m protocol.InitializeMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		sess.sendError(protocol.ErrProtoBadRequest, err.Error(), false)
		return
	}

	tun := sess.srv.tun
	if len(m.Parameters) > 0 {
		if err := tun.ApplyOverrides(m.Parameters); err != nil {
			sess.sendError(protocol.ErrBadParameter, err.Error(), false)
			return
		}
	}
	cat := sess.srv.catalog
	if m.Catalog != nil {
		var err error
		cat, err = catalogs.FromDefs(m.Catalog.Items, m.Catalog.Recipes)
		if err != nil {
			sess.sendError(protocol.ErrBadCatalog, err.Error(), false)
			return
		}
	}

	eng, err := engine.New(engine.Config{
		Seed:          m.Config.Seed,
		Policy:        m.Config.Policy,
		Speed:         m.Config.Speed,
		Tuning:        tun,
		Catalog:       cat,
		StartingSeeds: m.Config.StartingSeeds,
	})
	if err != nil {
		sess.sendError(protocol.ErrBadParameter, err.Error(), false)
		return
	}

	sess.eng = eng
	sess.runID = fmt.Sprintf("R%d-%06d", time.Now().Unix(), sess.srv.runSeq.Add(1))
	if sess.srv.hooks.OnRun != nil {
		sess.srv.hooks.OnRun(sess.runID, eng)
	}

	go func() { _ = eng.Run(ctx) }()
	go sess.pump(ctx)

	sess.send(protocol.ReadyMsg{
		Type:            protocol.TypeReady,
		ProtocolVersion: protocol.Version,
		RunID:           sess.runID,
		Seed:            m.Config.Seed,
		Policy:          m.Config.Policy,
		Catalogs: protocol.CatalogDigests{
			ItemsDigest:   cat.ItemsDigest,
			ItemCount:     len(cat.Items),
			RecipesDigest: cat.RecipesDigest,
			RecipeCount:   len(cat.Recipes),
		},
	})
	sess.srv.log.Printf("run %s initialized seed=%d policy=%s", sess.runID, m.Config.Seed, m.Config.Policy)
}

// pump forwards engine notifications to the socket.
func (sess *session) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-sess.eng.Notifications():
			if !ok {
				return
			}
			switch n.Type {
			case engine.NoteTick:
				if sess.srv.hooks.OnTick != nil {
					sess.srv.hooks.OnTick(sess.runID, n.Tick)
				}
				sess.send(protocol.TickMsg{
					Type:       protocol.TypeTick,
					Tick:       n.Tick.Tick,
					State:      protocol.NewStateView(n.Tick.World),
					NoAction:   n.Tick.NoAction,
					Action:     n.Tick.Action,
					Urgency:    string(n.Tick.Urgency),
					Events:     n.Tick.Events,
					IsComplete: n.Tick.IsComplete,
					IsStuck:    n.Tick.IsStuck,
				})
			case engine.NoteComplete:
				if sess.srv.hooks.OnComplete != nil {
					sess.srv.hooks.OnComplete(sess.runID, n.Complete)
				}
				sess.send(protocol.CompleteMsg{
					Type:       protocol.TypeComplete,
					Reason:     string(n.Complete.Reason),
					Summary:    n.Complete.Summary,
					FinalState: n.Complete.FinalState,
					Stats:      n.Complete.Stats,
				})
				sess.srv.log.Printf("run %s complete: %s", sess.runID, n.Complete.Summary)
			case engine.NoteError:
				sess.sendError(protocol.ErrInternal, n.Error.Message, n.Error.Fatal)
			}
		}
	}
}

func (sess *session) replyControl(err error, code string) {
	if err != nil {
		sess.sendError(code, err.Error(), false)
	}
}

func (sess *session) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case sess.out <- b:
	default:
		// Host is not draining; drop rather than stall the run.
	}
}

func (sess *session) sendError(code, msg string, fatal bool) {
	sess.send(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: msg, Fatal: fatal})
}
