// Command eventwatch subscribes to the realtime feed and prints events. With
// -clients > 1 it opens many connections and reports delivery counts.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"postboard/internal/notifications"

	"github.com/gorilla/websocket"
)

// Metrics tracks connection and delivery counts.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64

	mu     sync.Mutex
	byType map[string]int64
}

func (m *Metrics) record(eventType string) {
	atomic.AddInt64(&m.EventsReceived, 1)
	m.mu.Lock()
	m.byType[eventType]++
	m.mu.Unlock()
}

var metrics = Metrics{byType: make(map[string]int64)}

func main() {
	host := flag.String("host", "localhost:8080", "API server host")
	email := flag.String("email", "", "Login email; empty watches anonymously")
	password := flag.String("password", "", "Login password")
	clients := flag.Int("clients", 1, "Number of concurrent connections")
	duration := flag.Duration("duration", 0, "Stop after this long; 0 runs until interrupted")
	flag.Parse()

	var token string
	if *email != "" {
		var err error
		if token, err = login(*host, *email, *password); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		log.Printf("Logged in as %s", *email)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	verbose := *clients == 1
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go watch(*host, token, verbose, stop, &wg)
	}

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}
	select {
	case <-timeout:
	case <-interrupt:
	}

	close(stop)
	wg.Wait()
	printMetrics()
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func watch(host, token string, verbose bool, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws"}
	if token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		log.Printf("dial failed: %v", err)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			var event notifications.Event
			if err := json.Unmarshal(raw, &event); err != nil {
				continue
			}
			metrics.record(event.Type)
			if verbose {
				fmt.Printf("%s %s %s\n", time.Now().Format(time.TimeOnly), event.Type, event.Payload)
			}
		}
	}()

	select {
	case <-stop:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}

func printMetrics() {
	fmt.Println()
	fmt.Printf("Connections: %d attempted, %d ok, %d failed\n",
		metrics.ConnectionsAttempted, metrics.ConnectionsSuccess, metrics.ConnectionsFailed)
	fmt.Printf("Events received: %d\n", metrics.EventsReceived)

	types := make([]string, 0, len(metrics.byType))
	for t := range metrics.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-20s %d\n", t, metrics.byType[t])
	}
}
