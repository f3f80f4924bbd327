package main

import (
	"log"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Manual client for watching the event feed of one user. Pass the raw
// initData through the INIT_DATA env var.
func main() {
	url := "ws://localhost:8888/api/v1/events/ws"

	initData := os.Getenv("INIT_DATA")
	if initData == "" {
		log.Fatal("INIT_DATA env var is required")
	}

	header := http.Header{}
	header.Set("Authorization", "Telegram "+initData)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			log.Println("read error:", err)
			return
		}

		var e event
		if err := json.Unmarshal(p, &e); err != nil {
			log.Printf("Received (unparsed):\n%s\n", p)
			continue
		}

		log.Printf("Received %s:\n%s\n", e.Type, p)
	}
}
