// Command agitator is a load generator: it opens many websocket observers
// against a running server and floods it with player actions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/velist/gametest/internal/domain/power"
	"github.com/velist/gametest/internal/engine"
	"github.com/velist/gametest/internal/network"
)

type options struct {
	url      string
	clients  int
	interval time.Duration
	duration time.Duration
}

// stats are updated concurrently by every bot.
type stats struct {
	sent      atomic.Int64
	acked     atomic.Int64
	rejected  atomic.Int64
	snapshots atomic.Int64
	errors    atomic.Int64

	mu      sync.Mutex
	worst   time.Duration
	total   time.Duration
	samples int64
}

func (s *stats) observe(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += d
	s.samples++
	if d > s.worst {
		s.worst = d
	}
}

func main() {
	var o options
	flag.StringVar(&o.url, "url", "ws://localhost:8080/ws", "WebSocket server URL")
	flag.IntVar(&o.clients, "clients", 50, "Number of concurrent observers")
	flag.DurationVar(&o.interval, "interval", 100*time.Millisecond, "Action interval per observer")
	flag.DurationVar(&o.duration, "duration", 60*time.Second, "Test duration")
	flag.Parse()

	fmt.Printf("agitator: %d observers against %s for %v\n", o.clients, o.url, o.duration)

	ctx, cancel := context.WithTimeout(context.Background(), o.duration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	s := &stats{}
	var wg sync.WaitGroup
	for i := 0; i < o.clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runBot(ctx, id, o, s)
		}(i)
		// Stagger connections.
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()
	report(s, o)
}

// randomAction picks from the actions an observer can take at any time. Most
// are rejected unless the session happens to be in the right state.
func randomAction(id int) engine.Action {
	switch rand.IntN(6) {
	case 0:
		return engine.Action{Type: engine.ActionStart, Name: fmt.Sprintf("Bot %03d", id)}
	case 1:
		speeds := []float64{0.5, 1, 5, 10}
		return engine.Action{Type: engine.ActionSetSpeed, Speed: speeds[rand.IntN(len(speeds))]}
	case 2:
		p := power.Catalog[rand.IntN(len(power.Catalog))]
		return engine.Action{Type: engine.ActionIntervene, Power: p.ID}
	case 3:
		return engine.Action{Type: engine.ActionSetLanguage, Language: []string{"en", "zh"}[rand.IntN(2)]}
	case 4:
		return engine.Action{Type: engine.ActionRestart}
	default:
		return engine.Action{Type: engine.ActionRequestDescent}
	}
}

func runBot(ctx context.Context, id int, o options, s *stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, o.url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bot %d: dial: %v\n", id, err)
		s.errors.Add(1)
		return
	}
	defer conn.Close()

	// Replies come back in order, so the oldest pending send time belongs
	// to the next ack or rejection.
	pending := make(chan time.Time, 1024)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg network.ServerMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				s.errors.Add(1)
				continue
			}
			switch msg.Type {
			case "snapshot":
				s.snapshots.Add(1)
				continue
			case "ack":
				s.acked.Add(1)
			case "rejected":
				s.rejected.Add(1)
			}
			select {
			case sent := <-pending:
				s.observe(time.Since(sent))
			default:
			}
		}
	}()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			select {
			case pending <- time.Now():
			default:
			}
			if err := conn.WriteJSON(randomAction(id)); err != nil {
				s.errors.Add(1)
				return
			}
			s.sent.Add(1)
		}
	}
}

func report(s *stats, o options) {
	sent := s.sent.Load()
	fmt.Println("---------------------------------------")
	fmt.Printf("Actions sent:    %s\n", humanize.Comma(sent))
	fmt.Printf("Acked:           %s\n", humanize.Comma(s.acked.Load()))
	fmt.Printf("Rejected:        %s\n", humanize.Comma(s.rejected.Load()))
	fmt.Printf("Snapshots:       %s\n", humanize.Comma(s.snapshots.Load()))
	fmt.Printf("Errors:          %s\n", humanize.Comma(s.errors.Load()))
	fmt.Printf("Throughput:      %.2f actions/sec\n", float64(sent)/o.duration.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.samples > 0 {
		fmt.Printf("Reply latency:   avg %v, max %v\n", s.total/time.Duration(s.samples), s.worst)
	}
}
