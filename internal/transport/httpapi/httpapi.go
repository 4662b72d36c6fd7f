// Package httpapi serves the WebApi and WebLocal command sources over
// gin, and streams state snapshots to connected browsers over a
// gorilla/websocket upgrade. Commands arriving here are tagged with
// their declared source so the controller's arbitration rules apply
// exactly as they would to any other source.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/sharedstate"
	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
	"github.com/ironrail/throttle/internal/throttle"
)

// setSpeedRequest is the wire shape for POST /speed.
type setSpeedRequest struct {
	Target   float64 `json:"target" binding:"required"`
	Strategy string  `json:"strategy"`
	Duration int64   `json:"duration_ms"`
	Local    bool    `json:"local"`
}

// setDirectionRequest is the wire shape for POST /direction.
type setDirectionRequest struct {
	Direction string `json:"direction" binding:"required"`
	Local     bool   `json:"local"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server wires the shared controller into a gin engine and a pool of
// websocket subscribers receiving snapshot pushes.
type Server struct {
	shared *sharedstate.Shared
	log    *zap.Logger
	engine *gin.Engine

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]chan hal.Snapshot
}

// NewServer builds a gin engine with the command and state routes
// registered.
func NewServer(shared *sharedstate.Shared, log *zap.Logger) *Server {
	s := &Server{
		shared:  shared,
		log:     log,
		clients: make(map[*websocket.Conn]chan hal.Snapshot),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/speed", s.handleSetSpeed)
	engine.POST("/direction", s.handleSetDirection)
	engine.POST("/estop", s.handleEstop)
	engine.GET("/state", s.handleState)
	engine.GET("/ws", s.handleWebSocket)
	s.engine = engine
	return s
}

// Handler returns the underlying http.Handler for use with a
// net/http.Server or in tests via httptest.
func (s *Server) Handler() http.Handler { return s.engine }

func sourceFor(local bool) command.Source {
	if local {
		return command.SourceWebLocal
	}
	return command.SourceWebApi
}

func resolveStrategy(name string, durationMs int64) strategy.Strategy {
	switch name {
	case "linear":
		return strategy.NewLinear(durationMs)
	case "ease_in_out":
		return strategy.NewEaseInOut(durationMs)
	default:
		return strategy.Immediate{}
	}
}

func (s *Server) handleSetSpeed(c *gin.Context) {
	var req setSpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := command.SetSpeed{
		Target:   speedval.New(req.Target),
		Strategy: resolveStrategy(req.Strategy, req.Duration),
	}
	out := s.shared.ApplyCommand(cmd, sourceFor(req.Local))
	c.JSON(http.StatusOK, outcomeJSON(out))
}

func resolveDirection(name string) command.Direction {
	switch name {
	case "forward":
		return command.DirectionForward
	case "reverse":
		return command.DirectionReverse
	default:
		return command.DirectionStopped
	}
}

func (s *Server) handleSetDirection(c *gin.Context) {
	var req setDirectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := command.SetDirection{Direction: resolveDirection(req.Direction)}
	out := s.shared.ApplyCommand(cmd, sourceFor(req.Local))
	c.JSON(http.StatusOK, outcomeJSON(out))
}

func (s *Server) handleEstop(c *gin.Context) {
	local := c.Query("local") == "true"
	out := s.shared.ApplyCommand(command.EmergencyStop{}, sourceFor(local))
	c.JSON(http.StatusOK, outcomeJSON(out))
}

func (s *Server) handleState(c *gin.Context) {
	snap := s.shared.State(time.Now().UnixMilli())
	c.JSON(http.StatusOK, snapshotJSON(snap))
}

func outcomeJSON(out throttle.Outcome) gin.H {
	return gin.H{
		"accepted": out.Admission.Accepted,
		"queued":   out.Admission.Queued,
		"dropped":  out.Admission.Dropped,
		"fault":    out.FaultRejected,
		"result":   out.Transition.Kind.String(),
	}
}

func snapshotJSON(snap hal.Snapshot) gin.H {
	return gin.H{
		"speed":         snap.Speed.Float64(),
		"direction":     snap.Direction.String(),
		"max_speed":     snap.MaxSpeed.Float64(),
		"faulted":       snap.Faulted,
		"transitioning": snap.Transitioning,
	}
}

// handleWebSocket upgrades the connection and registers it for
// snapshot pushes until the client disconnects.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := make(chan hal.Snapshot, 4)
	s.clientsMu.Lock()
	s.clients[conn] = ch
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	for snap := range ch {
		if err := conn.WriteJSON(snapshotJSON(snap)); err != nil {
			return
		}
	}
}

// Broadcast pushes snap to every connected websocket client. Slow
// clients are dropped rather than allowed to block the loop.
func (s *Server) Broadcast(snap hal.Snapshot) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for conn, ch := range s.clients {
		select {
		case ch <- snap:
		default:
			delete(s.clients, conn)
			close(ch)
		}
	}
}
