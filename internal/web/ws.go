package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
	"github.com/sweetshop-dev/sweetshop/pkg/store"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second

	// wsSearchTimeout bounds a single backend search triggered by a
	// live-search keystroke.
	wsSearchTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsQuery is what the browser sends on each keystroke.
type wsQuery struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	PriceMin string `json:"price_min"`
	PriceMax string `json:"price_max"`
}

// wsMessage is the server-to-browser envelope.
type wsMessage struct {
	Type    string      `json:"type"`
	Sweets  []api.Sweet `json:"sweets,omitempty"`
	Message string      `json:"message,omitempty"`
}

// wsConn serializes writes to one connection; gorilla allows only one
// concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// hub tracks open live-search connections so mutations can tell every
// browser to refresh its listing.
type hub struct {
	logger *slog.Logger

	mu     sync.Mutex
	conns  map[*wsConn]struct{}
	closed bool
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger: logger.With("component", "ws"),
		conns:  make(map[*wsConn]struct{}),
	}
}

func (h *hub) add(c *wsConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}
	webMetrics().wsConnections.Set(float64(len(h.conns)))
	return true
}

func (h *hub) remove(c *wsConn) {
	h.mu.Lock()
	delete(h.conns, c)
	count := len(h.conns)
	h.mu.Unlock()
	webMetrics().wsConnections.Set(float64(count))
}

// notifyRefresh tells every connected browser that the catalog changed.
func (h *hub) notifyRefresh() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.send(wsMessage{Type: "refresh"}); err != nil {
			h.logger.Debug("refresh push failed", "error", err)
			continue
		}
		webMetrics().wsPushesTotal.Inc()
	}
}

func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*wsConn]struct{})
	h.mu.Unlock()

	deadline := time.Now().Add(wsWriteTimeout)
	for _, c := range conns {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), deadline)
		c.conn.Close()
	}
	webMetrics().wsConnections.Set(0)
}

// handleSearchWS streams search results as the visitor types. Queries
// are debounced so a burst of keystrokes costs one backend round trip.
func (s *Server) handleSearchWS(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &wsConn{conn: conn}
	if !s.hub.add(c) {
		conn.Close()
		return
	}

	debouncer := store.NewDebouncer(s.cfg.SearchDebounceDuration())
	defer func() {
		debouncer.Stop()
		s.hub.remove(c)
		conn.Close()
	}()

	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	for {
		var query wsQuery
		if err := conn.ReadJSON(&query); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))

		filter := parseFilter(map[string][]string{
			"name":      {query.Name},
			"category":  {query.Category},
			"price_min": {query.PriceMin},
			"price_max": {query.PriceMax},
		})
		debouncer.Trigger(func() {
			s.runSearch(bs, c, filter)
		})
	}
}

// runSearch executes one debounced search and pushes the outcome.
func (s *Server) runSearch(bs *browserSession, c *wsConn, filter api.SearchFilter) {
	ctx, cancel := context.WithTimeout(context.Background(), wsSearchTimeout)
	defer cancel()

	var (
		sweets []api.Sweet
		err    error
	)
	if filter.IsZero() {
		sweets, err = bs.inventory.FetchAll(ctx)
	} else {
		sweets, err = bs.inventory.Search(ctx, filter)
	}
	if err != nil {
		c.send(wsMessage{Type: "error", Message: err.Error()})
		return
	}
	if err := c.send(wsMessage{Type: "results", Sweets: sweets}); err != nil {
		return
	}
	webMetrics().wsPushesTotal.Inc()
}
