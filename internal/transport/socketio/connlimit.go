package socketio

import (
	"net"
	"sync"
)

// ConnectionLimiter caps concurrent remote controllers. Loopback clients
// (the device's own UI) are never limited; when a remote client pushes the
// count over the cap, the oldest remote client is evicted.
type ConnectionLimiter struct {
	mu        sync.Mutex
	maxRemote int
	remote    []string          // remote client IDs, oldest first
	clients   map[string]string // client ID -> address
}

// NewConnectionLimiter allows up to maxRemote remote clients. Zero or less
// disables the cap.
func NewConnectionLimiter(maxRemote int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxRemote: maxRemote,
		clients:   make(map[string]string),
	}
}

// Add registers a client and returns the ID of a client to evict, if any.
func (cl *ConnectionLimiter) Add(clientID, addr string) (evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.clients[clientID]; exists {
		return ""
	}
	cl.clients[clientID] = addr
	if isLoopback(addr) {
		return ""
	}

	cl.remote = append(cl.remote, clientID)
	if cl.maxRemote <= 0 || len(cl.remote) <= cl.maxRemote {
		return ""
	}

	evictedID = cl.remote[0]
	cl.remote = cl.remote[1:]
	delete(cl.clients, evictedID)
	return evictedID
}

// Remove unregisters a client.
func (cl *ConnectionLimiter) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	addr, exists := cl.clients[clientID]
	if !exists {
		return
	}
	delete(cl.clients, clientID)
	if isLoopback(addr) {
		return
	}
	for i, id := range cl.remote {
		if id == clientID {
			cl.remote = append(cl.remote[:i], cl.remote[i+1:]...)
			break
		}
	}
}

// RemoteCount returns the number of tracked remote clients.
func (cl *ConnectionLimiter) RemoteCount() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.remote)
}

// isLoopback accepts bare IPs and host:port addresses.
func isLoopback(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
