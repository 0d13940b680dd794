package services

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const broadcastWriteWait = 10 * time.Second

// ActivityBroadcaster fans a refresh event out to every websocket client
// watching a project's activity feed.
type ActivityBroadcaster struct {
	clients map[uint]map[*websocket.Conn]bool
	mu      sync.RWMutex
}

var Broadcaster = &ActivityBroadcaster{
	clients: make(map[uint]map[*websocket.Conn]bool),
}

func (b *ActivityBroadcaster) Register(projectID uint, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.clients[projectID] == nil {
		b.clients[projectID] = make(map[*websocket.Conn]bool)
	}
	b.clients[projectID][conn] = true
}

func (b *ActivityBroadcaster) Unregister(projectID uint, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, exists := b.clients[projectID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(b.clients, projectID)
		}
	}
}

// Refresh tells every client of the project to re-fetch the activity feed.
func (b *ActivityBroadcaster) Refresh(projectID uint) {
	b.mu.RLock()
	clients, exists := b.clients[projectID]
	if !exists || len(clients) == 0 {
		b.mu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing to sockets.
	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	b.mu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(broadcastWriteWait)); err != nil {
			log.Printf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":       "refresh",
			"message":    "Activity feed updated",
			"project_id": projectID,
		})

		if err != nil {
			log.Printf("Failed to broadcast refresh to client: %v", err)
			b.Unregister(projectID, conn)
			conn.Close()
		}
	}
}
