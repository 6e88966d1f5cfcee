package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// broadcastBuffer bounds the messages waiting for the hub loop
const broadcastBuffer = 256

// Hub keeps the live monitoring connections grouped by exam and fans
// proctoring messages out to them
type Hub struct {
	rooms map[int64]map[*Monitor]bool

	broadcast  chan *Message
	register   chan *Monitor
	unregister chan *Monitor

	// closed once Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

// Message is one live proctoring update sent to monitors
type Message struct {
	// Type of message, currently always "proctoring_event"
	Type string `json:"type"`

	ExamID      int64           `json:"examId"`
	StudentID   int64           `json:"studentId"`
	StudentName string          `json:"studentName,omitempty"`
	EventType   string          `json:"eventType"`
	Details     json.RawMessage `json:"details,omitempty"`
	FlagWorthy  bool            `json:"flagWorthy"`

	// Event ID from the database
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Monitor]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Monitor),
		unregister: make(chan *Monitor),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case monitor := <-h.register:
			h.registerMonitor(monitor)

		case monitor := <-h.unregister:
			h.unregisterMonitor(monitor)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerMonitor(monitor *Monitor) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[monitor.examID]; !ok {
		h.rooms[monitor.examID] = make(map[*Monitor]bool)
	}
	h.rooms[monitor.examID][monitor] = true

	h.logger.Info().
		Int64("examID", monitor.examID).
		Int64("userID", monitor.userID).
		Msg("Monitor connected")
}

func (h *Hub) unregisterMonitor(monitor *Monitor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(monitor)
}

// dropLocked removes a monitor; h.mu must be held for writing
func (h *Hub) dropLocked(monitor *Monitor) {
	room, ok := h.rooms[monitor.examID]
	if !ok {
		return
	}
	if _, ok := room[monitor]; !ok {
		return
	}

	delete(room, monitor)
	close(monitor.send)
	if len(room) == 0 {
		delete(h.rooms, monitor.examID)
	}

	h.logger.Info().
		Int64("examID", monitor.examID).
		Int64("userID", monitor.userID).
		Msg("Monitor disconnected")
}

// broadcastMessage sends a message to every monitor of its exam. Monitors
// whose buffer is full are disconnected.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Int64("examID", message.ExamID).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[message.ExamID]
	if !ok {
		return
	}

	var slow []*Monitor
	for monitor := range room {
		select {
		case monitor.send <- data:
		default:
			slow = append(slow, monitor)
		}
	}
	for _, monitor := range slow {
		h.logger.Warn().Int64("examID", message.ExamID).Int64("userID", monitor.userID).Msg("Dropping slow monitor")
		h.dropLocked(monitor)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for monitor := range room {
			h.dropLocked(monitor)
		}
	}
}

// join hands a new monitor to the hub loop. It reports false once the hub
// has stopped.
func (h *Hub) join(m *Monitor) bool {
	select {
	case h.register <- m:
		return true
	case <-h.done:
		return false
	}
}

// leave detaches a monitor; it is a no-op after the hub stopped
func (h *Hub) leave(m *Monitor) {
	select {
	case h.unregister <- m:
	case <-h.done:
	}
}

// Broadcast queues a message for the monitors of its exam. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Int64("examID", message.ExamID).Msg("Broadcast queue full, dropping proctoring message")
	}
}

// MonitorCount returns the number of monitors connected to an exam
func (h *Hub) MonitorCount(examID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[examID])
}
