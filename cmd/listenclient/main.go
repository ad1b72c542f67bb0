// Command listenclient subscribes to a conversation's text and audio
// topics and prints everything the relay fans out. Synthesized audio is
// written to a file for playback.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"sync"

	"github.com/gorilla/websocket"
)

type joinFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

func main() {
	serverAddr := flag.String("server", "ws://localhost:8000", "Service base URL")
	conversationID := flag.String("conversation", "", "Conversation ID to listen on")
	outFile := flag.String("out", "reply.mp3", "File to write synthesized audio to")
	flag.Parse()

	if *conversationID == "" {
		log.Fatal("-conversation is required")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		listenText(*serverAddr, *conversationID)
	}()
	go func() {
		defer wg.Done()
		listenAudio(*serverAddr, *conversationID, *outFile)
	}()
	wg.Wait()
}

func listenText(serverAddr, conversationID string) {
	conn := join(serverAddr+"/ws/asr-text", joinFrame{Type: "subscribe", ConversationID: conversationID})
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("text channel closed: %v", err)
			return
		}
		var frame struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("bad text frame: %v", err)
			continue
		}
		log.Printf("[text] %s: %q", frame.Type, frame.Text)
	}
}

func listenAudio(serverAddr, conversationID, outFile string) {
	conn := join(serverAddr+"/ws/tts-audio", joinFrame{Type: "start", ConversationID: conversationID})
	defer conn.Close()

	f, err := os.Create(outFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	var totalBytes int64
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("audio channel closed: %v", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			n, err := f.Write(data)
			if err != nil {
				log.Fatalf("Failed to write audio: %v", err)
			}
			totalBytes += int64(n)

		case websocket.TextMessage:
			var frame struct {
				Type string `json:"type"`
				Mime string `json:"mime"`
			}
			if err := json.Unmarshal(data, &frame); err != nil {
				log.Printf("bad audio control frame: %v", err)
				continue
			}
			switch frame.Type {
			case "start":
				log.Printf("[audio] stream started (%s)", frame.Mime)
			case "stop":
				log.Printf("[audio] stream finished: %d bytes written to %s", totalBytes, outFile)
			default:
				log.Printf("[audio] %s", frame.Type)
			}
		}
	}
}

func join(url string, frame joinFrame) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", url, err)
	}

	payload, _ := json.Marshal(frame)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Fatalf("Failed to send join frame: %v", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("Failed to read ready ack: %v", err)
	}
	var ack struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &ack); err != nil || ack.Type != "ready" {
		log.Fatalf("Unexpected ack on %s: %s", url, data)
	}

	log.Printf("Subscribed on %s", url)
	return conn
}
