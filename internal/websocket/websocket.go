// Package websocket pushes request, job, and notification events to
// connected clients. One session per user; the newest connection wins.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/services/auth"
	"github.com/veyronhq/reqforge/pkg/structures"
)

const (
	maxConnections    = 1000
	sendBuffer        = 100
	heartbeatInterval = 30 * time.Second
	connectionTimeout = 2 * time.Minute
)

var errSessionGone = errors.New("session closed")

// session is one authenticated client connection.
type session struct {
	conn     *websocket.Conn
	claims   *auth.JWTClaimUser
	userID   string
	joinedAt time.Time

	out    chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	lastPing time.Time
	once     sync.Once
}

func (s *session) enqueue(payload []byte) error {
	select {
	case s.out <- payload:
		return nil
	case <-s.ctx.Done():
		return errSessionGone
	default:
		return errors.New("client buffer full")
	}
}

func (s *session) close() {
	s.cancel()
	s.conn.Close()
	s.once.Do(func() { close(s.out) })
}

// Manager owns every live session and fans events out to them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session // userID -> session

	ctx    context.Context
	cancel context.CancelFunc

	authService auth.Authmen
}

func NewManager(authService auth.Authmen) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions:    make(map[string]*session),
		ctx:         ctx,
		cancel:      cancel,
		authService: authService,
	}
}

// RegisterRoutes sets up the websocket endpoint. Authentication rides on
// the same session-token cookie the REST surface uses.
func (m *Manager) RegisterRoutes(gctx global.Context, router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		m.serve(c)
	}))
}

// serve authenticates, registers, and pumps one connection until it drops.
func (m *Manager) serve(c *websocket.Conn) {
	if m.count() >= maxConnections {
		slog.Warn("WebSocket connection limit reached")
		m.refuse(c, "Server at capacity")
		return
	}

	token := c.Cookies(auth.CookieAuth)
	if token == "" {
		m.refuse(c, "Missing auth token")
		return
	}
	claims, err := m.authService.ValidateJWT(token)
	if err != nil {
		m.refuse(c, "Invalid auth token")
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	sess := &session{
		conn:     c,
		claims:   claims,
		userID:   claims.UserID,
		joinedAt: time.Now(),
		lastPing: time.Now(),
		out:      make(chan []byte, sendBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.register(sess)
	defer m.unregister(sess)

	go m.writer(sess)
	go m.heartbeat(sess)

	m.send(sess, structures.OpcodeAck, structures.HelloPayload{Message: "Connected successfully"})
	slog.Info("WebSocket connected", "user_id", sess.userID, "username", claims.Username)

	m.reader(sess)
}

func (m *Manager) register(sess *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// One session per user: a newer connection replaces the old one.
	if existing, ok := m.sessions[sess.userID]; ok {
		slog.Info("Replacing existing WebSocket session", "user_id", sess.userID)
		existing.close()
	}
	m.sessions[sess.userID] = sess
}

func (m *Manager) unregister(sess *session) {
	m.mu.Lock()
	if m.sessions[sess.userID] == sess {
		delete(m.sessions, sess.userID)
	}
	m.mu.Unlock()

	sess.close()
	slog.Info("WebSocket disconnected", "user_id", sess.userID)
}

// reader consumes client frames: heartbeats refresh the liveness clock,
// anything else is rejected.
func (m *Manager) reader(sess *session) {
	sess.conn.SetReadDeadline(time.Now().Add(connectionTimeout))

	for {
		select {
		case <-sess.ctx.Done():
			return
		default:
		}

		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			slog.Debug("WebSocket read ended", "user_id", sess.userID, "error", err)
			return
		}
		sess.conn.SetReadDeadline(time.Now().Add(connectionTimeout))

		var msg structures.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			m.send(sess, structures.OpcodeError, structures.ErrorPayload{Message: "Invalid message format"})
			continue
		}

		if msg.Op != structures.OpcodeHeartbeat {
			m.send(sess, structures.OpcodeError, structures.ErrorPayload{Message: "Unknown operation"})
			continue
		}

		sess.mu.Lock()
		sess.lastPing = time.Now()
		sess.mu.Unlock()
		m.send(sess, structures.OpcodeHeartbeat, nil)
	}
}

// writer drains the session's outbound queue onto the socket.
func (m *Manager) writer(sess *session) {
	for {
		select {
		case <-sess.ctx.Done():
			return
		case payload, ok := <-sess.out:
			if !ok {
				return
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("WebSocket write failed", "user_id", sess.userID, "error", err)
				sess.cancel()
				return
			}
		}
	}
}

// heartbeat pings the client and drops sessions that stop answering.
func (m *Manager) heartbeat(sess *session) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.C:
			sess.mu.Lock()
			stale := time.Since(sess.lastPing) > connectionTimeout
			sess.mu.Unlock()

			if stale {
				slog.Warn("WebSocket client timed out", "user_id", sess.userID)
				sess.cancel()
				return
			}
			if err := m.send(sess, structures.OpcodeHeartbeat, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) send(sess *session, op structures.Opcode, data interface{}) error {
	payload, err := json.Marshal(structures.NewMessage(op, data))
	if err != nil {
		return err
	}
	return sess.enqueue(payload)
}

func (m *Manager) refuse(c *websocket.Conn, reason string) {
	_ = c.WriteJSON(structures.NewMessage(structures.OpcodeError, structures.ErrorPayload{Message: reason}))
	_ = c.Close()
}

// BroadcastToAll fans one event out to every connected session.
func (m *Manager) BroadcastToAll(op structures.Opcode, data interface{}) {
	payload, err := json.Marshal(structures.NewMessage(op, data))
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "error", err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sess := range m.sessions {
		if err := sess.enqueue(payload); err != nil {
			slog.Debug("Dropped broadcast for session", "user_id", sess.userID, "error", err)
		}
	}
}

// SendToUser delivers one event to a single user's session, if connected.
func (m *Manager) SendToUser(userID string, op structures.Opcode, data interface{}) error {
	m.mu.RLock()
	sess, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return nil // not connected; nothing to deliver
	}
	return m.send(sess, op, data)
}

// GetConnectedUsers lists the user ids with a live session.
func (m *Manager) GetConnectedUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.sessions))
	for userID := range m.sessions {
		users = append(users, userID)
	}
	return users
}

func (m *Manager) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session and stops accepting new ones.
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		sess.close()
	}
	m.sessions = make(map[string]*session)
}

// Package-level surface over a default manager, matching how the route
// registration and broadcasters reach the hub.
var defaultManager *Manager

func RegisterRoutes(gctx global.Context, router fiber.Router) {
	if defaultManager == nil {
		defaultManager = NewManager(gctx.Crate().AuthService)
	}
	defaultManager.RegisterRoutes(gctx, router)
}

func BroadcastToAll(op structures.Opcode, data interface{}) {
	if defaultManager != nil {
		defaultManager.BroadcastToAll(op, data)
	}
}

func SendToUser(userID string, op structures.Opcode, data interface{}) {
	if defaultManager != nil {
		_ = defaultManager.SendToUser(userID, op, data)
	}
}

func GetConnectedUsers() []string {
	if defaultManager != nil {
		return defaultManager.GetConnectedUsers()
	}
	return nil
}

func CloseAllConnections() {
	if defaultManager != nil {
		defaultManager.Shutdown()
	}
}
