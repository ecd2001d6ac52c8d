package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"

	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/network"
)

// conn writes packets to the server. gorilla allows a single concurrent writer.
type conn struct {
	ws    *websocket.Conn
	codec network.Codec
	mutex sync.Mutex
}

func (c *conn) send(msgID uint16, v any) error {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return err
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:3000", "server address")
	roomName := flag.String("room", "lobby", "room to join")
	playerName := flag.String("name", "", "player name")
	codecName := flag.String("codec", "json", "payload codec: json or msgpack")
	heartbeat := flag.Duration("heartbeat", 20*time.Second, "heartbeat interval")
	flag.Parse()

	if *playerName == "" {
		fmt.Fprintln(os.Stderr, "usage: client -name <player> [-room <room>] [-addr host:port]")
		os.Exit(2)
	}

	codec := network.CodecByName(*codecName)
	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/ws/" + url.PathEscape(*roomName) + "/" + url.PathEscape(*playerName),
		RawQuery: url.Values{"codec": {codec.Name()}}.Encode(),
	}
	log.Printf("Connecting to %s", u.String())

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer ws.Close()
	c := &conn{ws: ws, codec: codec}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Screen failed: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Screen init failed: %v", err)
	}
	defer screen.Fini()

	st := newState(*playerName)
	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := ws.ReadMessage()
			if err != nil {
				st.setStatus("disconnected: " + err.Error())
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				continue
			}
			st.apply(codec, packet)
		}
	}()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	frame := time.NewTicker(33 * time.Millisecond)
	defer frame.Stop()
	beat := time.NewTicker(*heartbeat)
	defer beat.Stop()

	for {
		select {
		case ev := <-events:
			if !handleEvent(ev, st, c) {
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		case <-beat.C:
			if err := c.send(network.MsgTypeHeartbeat, struct{}{}); err != nil {
				st.setStatus("heartbeat: " + err.Error())
			}
		case <-frame.C:
			draw(screen, st.view())
		case <-done:
			draw(screen, st.view())
			// 断线后按任意键退出
			for ev := range events {
				if _, ok := ev.(*tcell.EventKey); ok {
					return
				}
			}
		}
	}
}

func handleEvent(ev tcell.Event, st *state, c *conn) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if isQuit(ev) {
			return false
		}
		if action, ok := actionForKey(ev); ok {
			if err := c.send(network.MsgTypeGameAction, int(action)); err != nil {
				st.setStatus("send: " + err.Error())
			}
			return true
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 's':
			if err := c.send(network.MsgTypeStartGame, st.config()); err != nil {
				st.setStatus("send: " + err.Error())
			}
		case 'r':
			st.cycleRuleset()
		case 'h':
			st.toggleHeavy()
		}
	case *tcell.EventResize:
		// next frame redraws
	}
	return true
}

func isQuit(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	return key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC ||
		(key.Key() == tcell.KeyRune && key.Rune() == 'q')
}

func actionForKey(ev *tcell.EventKey) (models.ActionType, bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return models.MoveLeft, true
	case tcell.KeyRight:
		return models.MoveRight, true
	case tcell.KeyUp:
		return models.Rotate, true
	case tcell.KeyDown:
		return models.SoftDrop, true
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return models.HardDrop, true
		}
	}
	return 0, false
}
