// Command host is a minimal WebSocket host: it initializes one run,
// starts it and prints the tick stream until the run completes. Useful
// for poking a live server without writing a host process.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"harvestsim.ai/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		seed   = flag.Int64("seed", 42, "run seed")
		policy = flag.String("policy", "optimizer", "persona (optimizer, casual, weekend_warrior)")
		speed  = flag.Float64("speed", 100, "speed multiple")
		quiet  = flag.Bool("quiet", false, "only print completion")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[host] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	initMsg := protocol.InitializeMsg{
		Type:            protocol.TypeInitialize,
		ProtocolVersion: protocol.Version,
		Config: protocol.RunConfig{
			Seed:   *seed,
			Policy: *policy,
			Speed:  *speed,
		},
	}
	if err := conn.WriteJSON(initMsg); err != nil {
		logger.Fatalf("send INITIALIZE: %v", err)
	}
	if err := conn.WriteJSON(protocol.StartMsg{Type: protocol.TypeStart, Speed: *speed}); err != nil {
		logger.Fatalf("send START: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteJSON(protocol.BaseMessage{Type: protocol.TypeStop, ProtocolVersion: protocol.Version})
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeReady:
			var m protocol.ReadyMsg
			_ = json.Unmarshal(msg, &m)
			logger.Printf("ready run=%s seed=%d policy=%s items=%d recipes=%d",
				m.RunID, m.Seed, m.Policy, m.Catalogs.ItemCount, m.Catalogs.RecipeCount)
		case protocol.TypeTick:
			if *quiet {
				continue
			}
			var m protocol.TickMsg
			_ = json.Unmarshal(msg, &m)
			logger.Printf("tick=%d day=%d level=%d energy=%d gold=%d at=%s urgency=%s no_action=%v",
				m.Tick, m.State.Day, m.State.Level, m.State.Energy, m.State.Gold,
				m.State.Location, m.Urgency, m.NoAction)
		case protocol.TypeComplete:
			var m protocol.CompleteMsg
			_ = json.Unmarshal(msg, &m)
			logger.Printf("complete reason=%s: %s", m.Reason, m.Summary)
			return
		case protocol.TypeError:
			var m protocol.ErrorMsg
			_ = json.Unmarshal(msg, &m)
			logger.Printf("error code=%s fatal=%v: %s", m.Code, m.Fatal, m.Message)
			if m.Fatal {
				return
			}
		}
	}
}
