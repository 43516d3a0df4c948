// Command headless runs a client session without a renderer: it joins a room,
// walks the avatar in a slow circle and prints room traffic to stdout. Useful
// for smoke-testing a server and for populating a room during development.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crateandcrypt/netclient"
	"github.com/crateandcrypt/netclient/client"
	"github.com/crateandcrypt/netclient/protocol"
)

// circleWalker supplies a transform tracing a circle, one revolution per
// minute, so remote observers see continuous movement.
type circleWalker struct {
	start  time.Time
	radius float64
}

func (w *circleWalker) Sample() (protocol.Position, float64) {
	angle := time.Since(w.start).Seconds() * 2 * math.Pi / 60
	return protocol.Position{
		X: w.radius * math.Cos(angle),
		Z: w.radius * math.Sin(angle),
	}, angle
}

func main() {
	var (
		serverURL = flag.String("server", "ws://localhost:8080/ws", "WebSocket endpoint")
		playerID  = flag.String("player", "", "player id (empty: server assigns one)")
		roomID    = flag.String("room", "", "room to join")
		create    = flag.Bool("create", false, "ask the server to create the room")
		chat      = flag.String("chat", "", "message to send once joined")
	)
	flag.Parse()

	cfg := netclient.DefaultConfig()
	cfg.ServerURL = *serverURL
	cfg.PlayerID = *playerID
	cfg.RoomID = *roomID
	cfg.CreateRoom = *create
	cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)

	s := client.New(cfg, nil, nil, &circleWalker{start: time.Now(), radius: 3})
	defer s.Close()

	s.On(netclient.EventWelcome, func(data any) {
		p := data.(protocol.JoinPayload)
		fmt.Printf("joined room %s as %s (%d players)\n", p.RoomID, p.PlayerID, p.PlayersCount)
		if *chat != "" {
			s.SendChat(*chat)
		}
	})
	s.On(netclient.EventChat, func(data any) {
		p := data.(protocol.ChatPayload)
		fmt.Printf("[%s] %s\n", p.PlayerID, p.Text)
	})
	s.On(netclient.EventDisconnect, func(data any) {
		info := data.(netclient.DisconnectInfo)
		fmt.Printf("disconnected: code=%d reason=%q\n", info.Code, info.Reason)
	})
	s.On(netclient.EventReconnectFailed, func(any) {
		fmt.Println("reconnect attempts exhausted, giving up")
		os.Exit(1)
	})

	if err := s.Connect(); err != nil {
		log.Fatalf("connect: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("shutting down")
	s.Disconnect()
	time.Sleep(200 * time.Millisecond)
}
