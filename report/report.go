// Package report posts apply outcomes to an optional collector service.
package report

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/logging"
)

const (
	reportEndpoint = "/api/reports"
	healthEndpoint = "/health"
	authHeader     = "X-API-Token"

	queueSize = 16
)

// Report is the JSON body posted for each apply.
type Report struct {
	ID         string    `json:"id"`
	SystemID   string    `json:"system_id"`
	Version    string    `json:"version"`
	Department string    `json:"department"`
	User       string    `json:"user"`
	Interface  string    `json:"interface"`
	Platform   string    `json:"platform"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	AppliedAt  time.Time `json:"applied_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// Client queues reports and posts them from a single background worker.
// Submit never blocks the caller on the network.
type Client struct {
	token     string
	version   string
	systemID  string
	serverURL string
	client    *http.Client
	logger    *logging.Logger

	mu        sync.Mutex
	closed    bool
	queue     chan Report
	waitGroup sync.WaitGroup
}

// NewClient creates a report client for serverURL.
func NewClient(serverURL, token, version string) *Client {
	return &Client{
		token:     token,
		version:   version,
		serverURL: serverURL,
		systemID:  generateSystemID(),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logging.WithComponent("report"),
		queue:  make(chan Report, queueSize),
	}
}

// Start starts the post worker, which checks the collector once before
// posting. A failed health check is logged; reports are still attempted.
func (c *Client) Start(ctx context.Context) {
	c.waitGroup.Add(1)
	go c.worker(ctx)
}

// Stop drains queued reports and waits for the worker. Reports submitted
// after Stop are dropped.
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()
	c.waitGroup.Wait()
}

// New builds the report for one apply result.
func (c *Client) New(department, user string, res applier.Result) Report {
	return Report{
		ID:         uuid.NewString(),
		SystemID:   c.systemID,
		Version:    c.version,
		Department: department,
		User:       user,
		Interface:  res.Interface,
		Platform:   res.Platform,
		Success:    res.Success,
		Error:      res.Reason(),
		Warnings:   res.Warnings,
		AppliedAt:  time.Now().UTC(),
	}
}

// Submit queues a report. When the queue is full the report is dropped.
func (c *Client) Submit(department, user string, res applier.Result) {
	r := c.New(department, user, res)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.logger.Warn("report client stopped, dropping report", "id", r.ID)
		return
	}
	select {
	case c.queue <- r:
	default:
		c.logger.Warn("report queue full, dropping report", "id", r.ID)
	}
}

func (c *Client) worker(ctx context.Context) {
	defer c.waitGroup.Done()

	if err := c.CheckHealth(ctx); err != nil {
		c.logger.Warn("report collector unavailable", "url", c.serverURL, "error", err)
	}

	for r := range c.queue {
		ctx, cancel := context.WithTimeout(context.Background(), c.client.Timeout)
		if err := c.Post(ctx, r); err != nil {
			c.logger.Warn("report not delivered", "id", r.ID, "error", err)
		} else {
			c.logger.Debug("report delivered", "id", r.ID)
		}
		cancel()
	}
}

// CheckHealth verifies the collector is available.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+healthEndpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return err
	}
	if health.Status != "healthy" {
		return fmt.Errorf("unhealthy service status: %s", health.Status)
	}
	return nil
}

// Post sends one report synchronously.
func (c *Client) Post(ctx context.Context, r Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+reportEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("report rejected with status: %d", resp.StatusCode)
	}
	return nil
}

// generateSystemID creates a stable anonymous host identifier
func generateSystemID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	exe, err := os.Executable()
	if err != nil {
		exe = "unknown"
	}

	h := sha256.New()
	io.WriteString(h, hostname)
	io.WriteString(h, exe)
	io.WriteString(h, runtime.GOOS)
	io.WriteString(h, runtime.GOARCH)

	return fmt.Sprintf("%x", h.Sum(nil))[:32]
}
