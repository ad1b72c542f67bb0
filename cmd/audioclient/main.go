// Command audioclient streams a recorded audio file over the upload
// websocket, simulating a browser microphone capture, then triggers the
// pipeline with a stop frame.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Stream audio in chunks to simulate real-time capture.
const chunkSize = 16 * 1024
const chunkIntervalMs = 100

type startFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Accent         string `json:"accent,omitempty"`
	Model          string `json:"model,omitempty"`
}

type stopFrame struct {
	Type string `json:"type"`
}

func main() {
	audioFile := flag.String("audio", "../../testdata/sample.webm", "Path to recorded audio file")
	serverAddr := flag.String("server", "ws://localhost:8000", "Service base URL")
	conversationID := flag.String("conversation", "test-conv-"+time.Now().Format("150405"), "Conversation ID")
	accent := flag.String("accent", "", "Accent (e.g. 'British English')")
	model := flag.String("model", "", "Model tier (free or premium)")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	conn, _, err := websocket.DefaultDialer.Dial(*serverAddr+"/ws/upload-audio", nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverAddr)

	start, _ := json.Marshal(startFrame{
		Type:           "start",
		ConversationID: *conversationID,
		Accent:         *accent,
		Model:          *model,
	})
	if err := conn.WriteMessage(websocket.TextMessage, start); err != nil {
		log.Fatalf("Failed to send start frame: %v", err)
	}

	log.Printf("Streaming audio: conversationId=%s", *conversationID)

	chunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		if err := conn.WriteMessage(websocket.BinaryMessage, chunk[:n]); err != nil {
			log.Fatalf("Failed to send chunk: %v", err)
		}

		if chunkNum%10 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		time.Sleep(chunkIntervalMs * time.Millisecond)
	}

	log.Printf("Finished streaming: %d chunks, %d bytes in %v", chunkNum, totalBytes, time.Since(startTime))

	stop, _ := json.Marshal(stopFrame{Type: "stop"})
	if err := conn.WriteMessage(websocket.TextMessage, stop); err != nil {
		log.Fatalf("Failed to send stop frame: %v", err)
	}

	log.Println("Stop sent, waiting for pipeline to finish...")

	// The server closes normally once the pipeline has run.
	_, _, err = conn.ReadMessage()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		log.Printf("Upload completed: conversationId=%s", *conversationID)
		return
	}
	log.Fatalf("Unexpected end of upload: %v", err)
}
