// Carpool-traffic generates synthetic load against a running carpoold
// instance. It posts sample WhatsApp-style chat snippets to the extraction
// endpoint and periodically triggers matching, so dashboards and metrics
// can be exercised without real chat data.
//
// Usage:
//
//	carpool-traffic -addr http://localhost:8002 -interval 5s
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

var sampleMessages = []string{
	"need a ride to downtown tomorrow 9am, 2 seats",
	"offering a ride from airport to city center today 5pm, 3 seats available",
	"anyone going to the university tomorrow morning?",
	"I am driving from riverside to tech park tonight, have room for 2",
	"looking for a lift to central station today at 6pm",
	"can take 3 people from old town to the mall tomorrow afternoon",
	"hey everyone, hope you had a good weekend",
	"need to go from harbor to midtown tomorrow 8am",
	"have an empty seat for the 7pm run to the stadium",
	"thanks for the ride yesterday!",
}

var senders = []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank"}

type extractRequest struct {
	ChatText  string `json:"chat_text"`
	SessionID string `json:"session_id,omitempty"`
}

type extractResponse struct {
	SessionID string `json:"session_id"`
	Records   []any  `json:"records"`
	Errors    []any  `json:"errors"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8002", "carpoold base URL")
	interval := flag.Duration("interval", 5*time.Second, "delay between requests")
	lines := flag.Int("lines", 6, "chat lines per request")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	log.Printf("Generating traffic against %s every %s", *addr, *interval)

	var sessionID string
	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, stopping", sig)
			return
		case <-ticker.C:
			sid, err := sendExtract(client, *addr, sessionID, *lines)
			if err != nil {
				log.Printf("extract failed: %v", err)
				continue
			}
			sessionID = sid

			// Match roughly every third round.
			if rand.Intn(3) == 0 {
				if err := sendMatch(client, *addr, sessionID); err != nil {
					log.Printf("match failed: %v", err)
				}
			}
		}
	}
}

// sendExtract posts a generated chat export and returns the session ID the
// server assigned (or echoed back).
func sendExtract(client *http.Client, addr, sessionID string, lines int) (string, error) {
	body, err := json.Marshal(extractRequest{
		ChatText:  generateChat(lines),
		SessionID: sessionID,
	})
	if err != nil {
		return "", err
	}

	resp, err := client.Post(addr+"/api/v1/extract", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	log.Printf("extract: session=%s records=%d errors=%d",
		out.SessionID, len(out.Records), len(out.Errors))
	return out.SessionID, nil
}

func sendMatch(client *http.Client, addr, sessionID string) error {
	resp, err := client.Post(addr+"/api/v1/sessions/"+sessionID+"/match", "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	log.Printf("match: session=%s", sessionID)
	return nil
}

// generateChat builds a WhatsApp-style export with randomized senders,
// timestamps, and message bodies.
func generateChat(lines int) string {
	var b strings.Builder
	base := time.Now().Add(-time.Duration(lines) * time.Minute)
	for i := 0; i < lines; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		sender := senders[rand.Intn(len(senders))]
		text := sampleMessages[rand.Intn(len(sampleMessages))]
		fmt.Fprintf(&b, "%s - %s: %s\n", ts.Format("1/2/06, 3:04 PM"), sender, text)
	}
	return b.String()
}
