package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirecode/internal/api"
	wclog "github.com/vovakirdan/wirecode/internal/log"
	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run creates a room, connects two clients and checks that an edit from
// one reaches the other.
func run() error {
	apiURL := flag.String("api", "http://localhost:8000", "backend HTTP base URL")
	wsURL := flag.String("ws", "ws://localhost:8000", "backend WebSocket base URL")
	lang := flag.String("lang", proto.DefaultLanguage, "room language")
	code := flag.String("code", "print('hello from smoke test')\n", "code to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := api.New(*apiURL, *timeout, wclog.New("warn", nil))
	room, err := client.CreateRoom(ctx, *lang)
	if err != nil {
		return err
	}
	fmt.Printf("Created room %s (%s)\n", room.RoomID, room.Language)

	url := session.RoomURL(*wsURL, room.RoomID)
	sender, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial sender: %w", err)
	}
	defer sender.Close(websocket.StatusNormalClosure, "bye")

	receiver, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial receiver: %w", err)
	}
	defer receiver.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, sender, proto.NewCodeUpdate(*code, room.Language)); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var msg proto.Message
		if err := wsjson.Read(ctx, receiver, &msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received type=%s\n", msg.Type)

		switch msg.Type {
		case proto.TypeCodeUpdate:
			if msg.CodeOrEmpty() != *code {
				return fmt.Errorf("code mismatch: got %q", msg.CodeOrEmpty())
			}
			fmt.Println("code_update relayed")
			return nil
		case proto.TypeUserCountUpdate, proto.TypeUserJoined, proto.TypeUserLeft:
			fmt.Printf("Users: %d\n", msg.CountOr(1))
		case proto.TypeError:
			return errors.New(msg.Message)
		default:
			// keep looping for the code update
		}
	}
}
