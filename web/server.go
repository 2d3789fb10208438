// Package web serves a token-protected panel for applying profiles from a
// browser on the same network.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/logging"
	"github.com/ramborogers/netswitch/netinfo"
	"github.com/ramborogers/netswitch/profiles"
)

//go:embed templates/*.html
var content embed.FS

// ErrApplyInProgress is returned when an apply is requested while another
// one is still running.
var ErrApplyInProgress = errors.New("apply already in progress")

// Message types sent over /ws.
const (
	msgInterfaces   = "interfaces"
	msgProfiles     = "profiles"
	msgApplyStarted = "apply_started"
	msgApplyResult  = "apply_result"
	msgError        = "error"
)

// Reporter receives every finished apply.
type Reporter interface {
	Submit(department, user string, res applier.Result)
}

// Options configures a Server.
type Options struct {
	Addr    string
	Token   string
	Version string

	Store   *profiles.Store
	Applier applier.NetworkApplier
	// Details lists current interface state for display. Defaults to
	// netinfo.Interfaces.
	Details  func() ([]netinfo.Interface, error)
	Reporter Reporter
	Logger   *logging.Logger
}

// Server represents the web interface server
type Server struct {
	addr      string
	authToken string
	version   string
	templates *template.Template
	upgrader  websocket.Upgrader
	applier   applier.NetworkApplier
	details   func() ([]netinfo.Interface, error)
	reporter  Reporter
	logger    *logging.Logger

	storeMu sync.RWMutex
	store   *profiles.Store

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]bool
	writeMutex   sync.Map // Per-connection write mutex

	applyMutex  sync.Mutex
	applyActive bool
	applyWG     sync.WaitGroup

	httpServer *http.Server
}

// ApplyRequest is the client message that starts an apply.
type ApplyRequest struct {
	Type       string `json:"type"`
	Department string `json:"department"`
	User       string `json:"user"`
	Interface  string `json:"interface"`
}

// ApplyUpdate is broadcast when an apply starts and when it finishes.
type ApplyUpdate struct {
	Type       string          `json:"type"`
	Department string          `json:"department"`
	User       string          `json:"user"`
	Interface  string          `json:"interface"`
	Result     *applier.Result `json:"result,omitempty"`
}

// NewServer creates a new web interface server
func NewServer(opts Options) (*Server, error) {
	if opts.Token == "" {
		return nil, errors.New("web: an auth token is required")
	}
	if opts.Applier == nil {
		return nil, errors.New("web: an applier is required")
	}

	templates, err := template.ParseFS(content, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if opts.Store == nil {
		opts.Store = profiles.NewStore(nil)
	}
	if opts.Details == nil {
		opts.Details = netinfo.Interfaces
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithComponent("web")
	}

	return &Server{
		addr:      opts.Addr,
		authToken: opts.Token,
		version:   opts.Version,
		templates: templates,
		upgrader:  websocket.Upgrader{},
		applier:   opts.Applier,
		details:   opts.Details,
		reporter:  opts.Reporter,
		logger:    opts.Logger,
		store:     opts.Store,
		clients:   make(map[*websocket.Conn]bool),
	}, nil
}

// authenticateRequest checks if the request has a valid auth token
func (s *Server) authenticateRequest(r *http.Request) bool {
	return r.URL.Query().Get("auth") == s.authToken
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticateRequest(r) {
			s.logger.Warn("access denied", "client", clientIP(r), "path", r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.logger.Debug("access granted", "client", clientIP(r), "path", r.URL.Path)
		next(w, r)
	}
}

// Handler returns the panel routes, all behind the token check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.authMiddleware(s.handleIndex))
	mux.HandleFunc("/api/profiles", s.authMiddleware(s.handleProfiles))
	mux.HandleFunc("/api/interfaces", s.authMiddleware(s.handleInterfaces))
	mux.HandleFunc("/ws", s.authMiddleware(s.handleWebSocket))
	return mux
}

// Start serves until ctx is done, then shuts down and waits for a running
// apply to finish.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("web panel listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.closeClients()
	s.applyWG.Wait()
	return err
}

// SetStore replaces the profile tree and pushes it to connected clients.
func (s *Server) SetStore(store *profiles.Store) {
	s.storeMu.Lock()
	s.store = store
	s.storeMu.Unlock()

	s.BroadcastUpdate(map[string]interface{}{
		"type":        msgProfiles,
		"departments": store.Departments(),
	})
}

func (s *Server) currentStore() *profiles.Store {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()
	return s.store
}

// interfaceView is the payload of /api/interfaces and the "interfaces" message.
type interfaceView struct {
	Type       string              `json:"type,omitempty"`
	Platform   string              `json:"platform"`
	Interfaces []string            `json:"interfaces"`
	Details    []netinfo.Interface `json:"details"`
}

func (s *Server) interfaces() (interfaceView, error) {
	ids, err := s.applier.Interfaces()
	if err != nil {
		return interfaceView{}, err
	}
	details, err := s.details()
	if err != nil {
		s.logger.Debug("interface details unavailable", "error", err)
	}
	return interfaceView{
		Platform:   s.applier.Platform(),
		Interfaces: ids,
		Details:    details,
	}, nil
}

// handleIndex serves the main page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	view, err := s.interfaces()
	if err != nil {
		s.logger.Error("listing interfaces failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Version":     s.version,
		"Platform":    view.Platform,
		"Interfaces":  view.Interfaces,
		"Departments": s.currentStore().Departments(),
		"AuthToken":   s.authToken,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("executing template failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"departments": s.currentStore().Departments(),
	})
}

func (s *Server) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	view, err := s.interfaces()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "client", ip, "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("websocket connected", "client", ip)

	s.clientsMutex.Lock()
	s.clients[conn] = true
	s.clientsMutex.Unlock()

	defer func() {
		s.removeClient(conn)
		s.logger.Info("websocket disconnected", "client", ip)
	}()

	if view, err := s.interfaces(); err == nil {
		view.Type = msgInterfaces
		_ = s.send(conn, view)
	}
	_ = s.send(conn, map[string]interface{}{
		"type":        msgProfiles,
		"departments": s.currentStore().Departments(),
	})

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket error", "client", ip, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req ApplyRequest
		if err := json.Unmarshal(p, &req); err != nil {
			s.logger.Debug("ignoring malformed message", "client", ip, "error", err)
			continue
		}

		switch req.Type {
		case "apply":
			s.logger.Info("apply requested", "client", ip,
				"department", req.Department, "user", req.User, "interface", req.Interface)
			if err := s.StartApply(conn, req); err != nil {
				_ = s.send(conn, map[string]string{
					"type":  msgError,
					"error": err.Error(),
				})
			}
		case "refresh":
			if view, err := s.interfaces(); err == nil {
				view.Type = msgInterfaces
				_ = s.send(conn, view)
			}
		}
	}
}

// StartApply validates the request, marks an apply as running and runs it
// in the background. The requesting connection gets apply_started; every
// client gets the apply_result broadcast.
func (s *Server) StartApply(conn *websocket.Conn, req ApplyRequest) error {
	user, err := s.currentStore().Find(req.Department, req.User)
	if err != nil {
		return err
	}

	s.applyMutex.Lock()
	if s.applyActive {
		s.applyMutex.Unlock()
		s.logger.Warn("apply refused, another is running", "interface", req.Interface)
		return ErrApplyInProgress
	}
	s.applyActive = true
	s.applyWG.Add(1)
	s.applyMutex.Unlock()

	started := ApplyUpdate{
		Type:       msgApplyStarted,
		Department: req.Department,
		User:       req.User,
		Interface:  req.Interface,
	}
	if conn != nil {
		_ = s.send(conn, started)
	}

	go func() {
		defer s.applyWG.Done()
		defer func() {
			s.applyMutex.Lock()
			s.applyActive = false
			s.applyMutex.Unlock()
		}()

		res := s.applier.Apply(req.Interface, user.Profile())
		if s.reporter != nil {
			s.reporter.Submit(req.Department, req.User, res)
		}

		done := started
		done.Type = msgApplyResult
		done.Result = &res
		s.BroadcastUpdate(done)
	}()
	return nil
}

// Applying reports whether an apply is running.
func (s *Server) Applying() bool {
	s.applyMutex.Lock()
	defer s.applyMutex.Unlock()
	return s.applyActive
}

func (s *Server) send(conn *websocket.Conn, v interface{}) error {
	mutex, _ := s.writeMutex.LoadOrStore(conn, &sync.Mutex{})
	writeMutex := mutex.(*sync.Mutex)

	writeMutex.Lock()
	defer writeMutex.Unlock()
	return conn.WriteJSON(v)
}

// BroadcastUpdate sends an update to all connected WebSocket clients
func (s *Server) BroadcastUpdate(update interface{}) {
	s.clientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMutex.RUnlock()

	for _, client := range clients {
		if err := s.send(client, update); err != nil {
			s.logger.Warn("failed to send update to client", "error", err)
			s.removeClient(client)
			client.Close()
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMutex.Lock()
	delete(s.clients, conn)
	s.writeMutex.Delete(conn)
	s.clientsMutex.Unlock()
}

func (s *Server) closeClients() {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	for c := range s.clients {
		c.Close()
	}
}

// PanelURL is the address printed for operators.
func PanelURL(host string, port int, token string) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/?auth=" + token
}
