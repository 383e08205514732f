package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/coreseekdev/texere/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Notifier pushes a tiny "new revision available" ping over WebSocket to
// clients idling on a document, so they can call sync() immediately
// instead of waiting for their next poll tick. It carries no document
// content — clients still fetch the actual revisions through
// GetDocumentRevisions; this is purely a wake-up signal.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}
	log  *telemetry.Logger
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[string]map[*websocket.Conn]struct{}),
		log:  telemetry.FromEnv("notify"),
	}
}

// HandleWebSocket upgrades the request and registers the connection as a
// subscriber for docID until it closes.
func (n *Notifier) HandleWebSocket(docID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			n.log.Error("websocket upgrade failed: %v", err)
			return
		}
		n.subscribe(docID, conn)
		defer n.unsubscribe(docID, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (n *Notifier) subscribe(docID string, conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs[docID] == nil {
		n.subs[docID] = make(map[*websocket.Conn]struct{})
	}
	n.subs[docID][conn] = struct{}{}
}

func (n *Notifier) unsubscribe(docID string, conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs[docID], conn)
	conn.Close()
}

// NotifyNewRevision pings every subscriber of docID that a new revision
// is available. Send failures just unsubscribe the dead connection —
// the next poll cycle will still pick up the revision.
func (n *Notifier) NotifyNewRevision(docID string, revisionNumber int64) {
	n.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(n.subs[docID]))
	for c := range n.subs[docID] {
		conns = append(conns, c)
	}
	n.mu.Unlock()

	payload := []byte{byte(revisionNumber), byte(revisionNumber >> 8), byte(revisionNumber >> 16), byte(revisionNumber >> 24)}
	for _, c := range conns {
		if err := c.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			n.unsubscribe(docID, c)
		}
	}
}
