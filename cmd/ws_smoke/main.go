package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gamebot/internal/service"
	"gamebot/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Int64("user", 3001, "user id to play as")
	kind := flag.String("game", "wordle", "game to start")
	moves := flag.String("moves", "crane,slate", "comma separated text moves")
	flag.Parse()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	tokens, err := service.NewTokenService(jwtSecret, time.Hour)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	token, err := tokens.Generate(*userID)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, url.QueryEscape(token))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	frames := make(chan []byte, 64)
	go func() {
		defer close(frames)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("read error: %v", err)
				}
				return
			}
			frames <- msg
		}
	}()

	// ready + games
	drain(frames, 2*time.Second)

	send(conn, ws.Inbound{Type: ws.MsgPlay, Game: *kind})
	drain(frames, time.Second)

	for _, m := range strings.Split(*moves, ",") {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		send(conn, ws.Inbound{Type: ws.MsgText, Text: m})
		drain(frames, time.Second)
	}

	send(conn, ws.Inbound{Type: ws.MsgStop})
	drain(frames, time.Second)

	log.Println("smoke test finished")
}

func send(conn *websocket.Conn, in ws.Inbound) {
	b, _ := json.Marshal(in)
	log.Printf(">> %s", b)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Fatalf("write: %v", err)
	}
}

// drain prints frames until none arrives for d.
func drain(frames <-chan []byte, d time.Duration) {
	for {
		select {
		case msg, ok := <-frames:
			if !ok {
				log.Fatal("connection closed")
			}
			var out ws.Outbound
			if err := json.Unmarshal(msg, &out); err != nil || out.Text == "" {
				log.Printf("<< %s", msg)
				continue
			}
			log.Printf("<< %s:\n%s", out.Type, out.Text)
		case <-time.After(d):
			return
		}
	}
}
