// Package preview serves estimate results to velocity-profile viewers over
// HTTP and WebSocket. A viewer subscribes, asks for the move table and
// fetches sampled speed chunks per move to draw the profile.
package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wight554/velplan/pkg/log"
	"github.com/wight554/velplan/pkg/metrics"
	"github.com/wight554/velplan/pkg/toolpath"
)

// DefaultMaxChunk is the sampling granularity (mm) used when a viewer does
// not ask for one.
const DefaultMaxChunk = 1.0

// Server exposes one estimate report to preview clients.
type Server struct {
	addr   string
	logger *log.Logger

	mu     sync.RWMutex
	report *toolpath.Report

	upgrader   websocket.Upgrader
	clientMu   sync.RWMutex
	clients    map[string]*client
	httpServer *http.Server
}

// Config holds the preview server settings.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8765".
	Addr string

	// Report is the estimate to serve. It can be swapped later with
	// SetReport.
	Report *toolpath.Report

	// Logger defaults to the "preview" component logger.
	Logger *log.Logger
}

// New creates a preview server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLogger("preview")
	}
	return &Server{
		addr:   cfg.Addr,
		logger: logger,
		report: cfg.Report,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetReport swaps the served estimate and notifies connected viewers.
func (s *Server) SetReport(rpt *toolpath.Report) {
	s.mu.Lock()
	s.report = rpt
	s.mu.Unlock()
	s.broadcast(response{Method: "notify_report_changed"})
}

func (s *Server) getReport() *toolpath.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/metrics", s.handleMetrics)
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	s.logger.Info("preview server listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

// Stop closes the listener and every client connection.
func (s *Server) Stop() error {
	s.clientMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clients = make(map[string]*client)
	s.clientMu.Unlock()
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// handleReport returns the full estimate as JSON.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rpt := s.getReport()
	if rpt == nil {
		http.Error(w, "no report loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rpt)
}

// handleMetrics serves the process metrics in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(metrics.Gather()))
}

// Wire protocol: the viewer sends requests, the server answers with the
// same id. Unsolicited frames carry only a method.

type request struct {
	ID       any     `json:"id,omitempty"`
	Method   string  `json:"method"`
	Move     int     `json:"move,omitempty"`
	MaxChunk float64 `json:"max_chunk,omitempty"`
}

type response struct {
	ID     any    `json:"id,omitempty"`
	Method string `json:"method,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) dispatch(req request) response {
	rpt := s.getReport()
	if rpt == nil {
		return response{ID: req.ID, Error: "no report loaded"}
	}
	switch req.Method {
	case "report.summary":
		return response{ID: req.ID, Result: map[string]any{
			"source":         rpt.Source,
			"moves":          len(rpt.Moves),
			"total_distance": rpt.TotalDistance,
			"total_time":     rpt.TotalTime,
		}}
	case "report.moves":
		return response{ID: req.ID, Result: rpt.Moves}
	case "report.profile":
		maxChunk := req.MaxChunk
		if maxChunk <= 0.0 {
			maxChunk = DefaultMaxChunk
		}
		chunks, err := rpt.SampleMove(req.Move, maxChunk)
		if err != nil {
			return response{ID: req.ID, Error: err.Error()}
		}
		return response{ID: req.ID, Result: chunks}
	default:
		return response{ID: req.ID, Error: "method not found: " + req.Method}
	}
}

// client is one WebSocket viewer connection.
type client struct {
	id     string
	conn   *websocket.Conn
	server *Server
	sendCh chan response
	done   chan struct{}
	once   sync.Once
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		server: s,
		sendCh: make(chan response, 64),
		done:   make(chan struct{}),
	}
	s.clientMu.Lock()
	s.clients[c.id] = c
	s.clientMu.Unlock()
	s.logger.DebugFields("viewer connected", log.Fields{"client": c.id})

	go c.writePump()
	c.readPump()
}

func (s *Server) removeClient(c *client) {
	s.clientMu.Lock()
	delete(s.clients, c.id)
	s.clientMu.Unlock()
	s.logger.DebugFields("viewer disconnected", log.Fields{"client": c.id})
}

func (s *Server) broadcast(msg response) {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	for _, c := range s.clients {
		c.send(msg)
	}
}

func (c *client) send(msg response) {
	select {
	case c.sendCh <- msg:
	case <-c.done:
	default:
		c.server.logger.Warn("dropping frame to viewer %s (channel full)", c.id)
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.close()
	}()
	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("websocket read error: %v", err)
			}
			return
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			c.send(response{Error: "parse error"})
			continue
		}
		c.send(c.server.dispatch(req))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
