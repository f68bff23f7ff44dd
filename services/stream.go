package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"geo-duel-service/models"

	"github.com/gofiber/fiber/v2"
)

// streamEvent is one SSE frame destined for a single player.
type streamEvent struct {
	Name    string
	Payload interface{}
}

// StreamHub fans engine events out to per-player SSE subscribers. This is
// the real-time channel clients attach to during the delayed start window
// between match creation and round 1.
type StreamHub struct {
	mu   sync.Mutex
	subs map[string][]chan streamEvent
}

func NewStreamHub() *StreamHub {
	return &StreamHub{subs: make(map[string][]chan streamEvent)}
}

func (h *StreamHub) subscribe(playerID string) chan streamEvent {
	ch := make(chan streamEvent, 32)
	h.mu.Lock()
	h.subs[playerID] = append(h.subs[playerID], ch)
	h.mu.Unlock()
	return ch
}

func (h *StreamHub) unsubscribe(playerID string, ch chan streamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	channels := h.subs[playerID]
	for i, c := range channels {
		if c == ch {
			h.subs[playerID] = append(channels[:i], channels[i+1:]...)
			break
		}
	}
	if len(h.subs[playerID]) == 0 {
		delete(h.subs, playerID)
	}
}

// push delivers without blocking; a full subscriber buffer drops the event.
func (h *StreamHub) push(playerID, name string, payload interface{}) {
	h.mu.Lock()
	channels := append([]chan streamEvent{}, h.subs[playerID]...)
	h.mu.Unlock()
	for _, ch := range channels {
		select {
		case ch <- streamEvent{Name: name, Payload: payload}:
		default:
			log.Printf("[Stream] dropped %s event for player %s, buffer full", name, playerID)
		}
	}
}

func (h *StreamHub) pushMatch(m *models.Match, name string, payload interface{}) {
	h.push(m.Player1ID, name, payload)
	h.push(m.Player2ID, name, payload)
}

// StreamHub implements Notifier.

func (h *StreamHub) RoundStarted(ev RoundStartedEvent) {
	h.pushMatch(ev.Match, "round_started", ev)
}

func (h *StreamHub) RoundFinished(ev RoundFinishedEvent) {
	h.pushMatch(ev.Match, "round_finished", ev)
}

func (h *StreamHub) MatchFinished(ev MatchFinishedEvent) {
	h.pushMatch(ev.Match, "match_finished", ev)
}

// matchReadyPayload personalizes the shared event with the recipient's
// opponent, so clients need no slot arithmetic to know who they face.
type matchReadyPayload struct {
	MatchReadyEvent
	OpponentID string `json:"opponent_id"`
}

func (h *StreamHub) MatchReady(ev MatchReadyEvent) {
	m := ev.Match
	h.push(m.Player1ID, "match_ready", matchReadyPayload{MatchReadyEvent: ev, OpponentID: m.OpponentOf(m.Player1ID)})
	h.push(m.Player2ID, "match_ready", matchReadyPayload{MatchReadyEvent: ev, OpponentID: m.OpponentOf(m.Player2ID)})
}

// StreamEvents streams a player's engine events over SSE.
func (h *StreamHub) StreamEvents(c *fiber.Ctx) error {
	playerID := c.Params("player_id")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ch := h.subscribe(playerID)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.unsubscribe(playerID, ch)

		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case ev := <-ch:
				payload, err := json.Marshal(ev.Payload)
				if err != nil {
					log.Printf("[Stream] marshal %s for %s: %v", ev.Name, playerID, err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
			case <-keepalive.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
