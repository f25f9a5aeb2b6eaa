package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/agentlink/internal/cursor"
	"github.com/openclaw/agentlink/internal/delivery"
	"github.com/openclaw/agentlink/internal/metrics"
	"github.com/openclaw/agentlink/internal/trigger"
)

// streamPath is the relay's stream endpoint, appended to the base URL.
const streamPath = "/messages/stream"

// Config holds the connection settings for the pull stream.
type Config struct {
	BaseURL      string
	AgentToken   string
	PollInterval time.Duration
	// AgentName, when set, selects the agent for every pull-triggered run.
	AgentName string
}

// Deps are the client's injected collaborators.
type Deps struct {
	Cursor     *cursor.Store
	Trigger    trigger.Invoker
	Deliveries delivery.Store
	Logger     *slog.Logger
	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

// Client maintains a long-lived connection to the relay's message stream,
// decoding frames and invoking the agent for each qualifying message. A
// single goroutine owns the control loop; the in-memory cursor and backoff
// state have no other writers and need no locking.
//
// Connection losses are never fatal: the loop retries with exponential
// backoff and resumes from the last persisted cursor.
type Client struct {
	cfg    Config
	store  *cursor.Store
	trig   trigger.Invoker
	recs   delivery.Store
	logger *slog.Logger
	http   *http.Client

	cursor string

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Client. Call Start to open the stream.
func New(cfg Config, deps Deps) *Client {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		cfg:    cfg,
		store:  deps.Cursor,
		trig:   deps.Trigger,
		recs:   deps.Deliveries,
		logger: deps.Logger,
		http:   httpClient,
	}
}

// Start loads the persisted cursor and spawns the control loop.
func (c *Client) Start() {
	if cur, ok := c.store.Load(); ok {
		c.cursor = cur
		c.logger.Info("resuming stream from checkpoint", "cursor", cur)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx)
}

// Stop cancels any in-flight network operation and waits for the control
// loop to exit. It is idempotent and safe to call concurrently; it does not
// interrupt an agent invocation already in progress.
func (c *Client) Stop() {
	if c.cancel == nil {
		return
	}
	c.stopOnce.Do(c.cancel)
	<-c.done
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	var b backoff
	for {
		connected, err := c.connectAndStream(ctx)
		if ctx.Err() != nil {
			c.logger.Info("stream client stopped")
			return
		}
		if connected {
			// Backoff resets on a successful connection, not on
			// successful frame processing.
			b.Reset()
		}

		delay := b.Next()
		if err != nil {
			c.logger.Warn("stream connection lost; retrying", "backoff", delay, "error", err)
		} else {
			c.logger.Info("stream closed by relay; reconnecting", "backoff", delay)
		}

		select {
		case <-ctx.Done():
			c.logger.Info("stream client stopped")
			return
		case <-time.After(delay):
		}
	}
}

// connectAndStream performs one connection attempt and reads frames until
// the stream ends. It reports whether a connection was established so the
// caller can reset the backoff.
func (c *Client) connectAndStream(ctx context.Context) (bool, error) {
	metrics.StreamConnectAttempts.Inc()

	reqURL, err := c.buildURL()
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-Agent-Token", c.cfg.AgentToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("stream endpoint returned %s", resp.Status)
	}

	c.logger.Info("connected to relay stream", "url", c.cfg.BaseURL)
	metrics.StreamConnects.Inc()
	metrics.StreamConnected.Set(1)
	defer metrics.StreamConnected.Set(0)

	// Decoder state does not survive reconnects: partial blocks from a
	// dropped connection are discarded, and the cursor ensures the relay
	// resends anything unprocessed.
	dec := &Decoder{}
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range dec.Feed(string(buf[:n])) {
				c.dispatch(frame)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return true, nil
			}
			return true, readErr
		}
	}
}

func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.cfg.BaseURL, "/") + streamPath)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.cfg.BaseURL, err)
	}

	q := u.Query()
	if c.cursor != "" {
		q.Set("cursor", c.cursor)
	}
	q.Set("poll_interval", strconv.Itoa(int(c.cfg.PollInterval/time.Second)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// messagePayload is the JSON body of a "message" frame.
type messagePayload struct {
	FromAgentID string `json:"from_agent_id"`
	Content     string `json:"content"`
	SessionID   string `json:"session_id"`
	Cursor      string `json:"cursor"`
}

// pingPayload is the JSON body of a "ping" frame: a checkpoint advance
// without an agent invocation.
type pingPayload struct {
	Cursor string `json:"cursor"`
}

func (c *Client) dispatch(frame Frame) {
	metrics.FramesDecoded.WithLabelValues(frame.Event).Inc()

	switch frame.Event {
	case "message":
		c.handleMessage(frame.Data)
	case "ping":
		c.handlePing(frame.Data)
	case "error":
		c.logger.Warn("relay reported an error", "data", frame.Data)
	default:
		// Unknown event types are ignored for forward compatibility.
	}
}

// handleMessage advances the checkpoint and triggers the agent. A malformed
// payload is logged and skipped: a bad frame must never take down the loop.
func (c *Client) handleMessage(data string) {
	var p messagePayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		metrics.FrameDecodeErrors.Inc()
		c.logger.Warn("malformed message frame", "error", err)
		return
	}

	if p.Cursor != "" {
		c.advanceCursor(p.Cursor)
	}
	if p.Content == "" {
		return
	}

	sender := p.FromAgentID
	if sender == "" {
		sender = "unknown"
	}
	session := p.SessionID
	if session == "" {
		session = "agentlink:" + sender
	}

	rec := delivery.Record{
		ID:        uuid.New(),
		Source:    delivery.SourcePull,
		Sender:    sender,
		SessionID: session,
		Agent:     c.cfg.AgentName,
		Status:    delivery.StatusOK,
		Timestamp: time.Now(),
	}

	metrics.TriggerInvocations.WithLabelValues(string(delivery.SourcePull)).Inc()
	// Deliberately not the loop's context: stopping the bridge cancels
	// pending reads but lets an agent run already in flight finish (it is
	// still bounded by the trigger's own timeout).
	_, err := c.trig.Invoke(context.Background(), trigger.Request{
		Message:   fmt.Sprintf("From %s: %s", sender, p.Content),
		SessionID: session,
		Agent:     c.cfg.AgentName,
	})
	if err != nil {
		metrics.TriggerFailures.WithLabelValues(string(delivery.SourcePull)).Inc()
		rec.Status = delivery.StatusFailed
		rec.Error = err.Error()
		c.logger.Error("agent invocation failed", "sender", sender, "session_id", session, "error", err)
	}

	_ = c.recs.Save(rec)
}

func (c *Client) handlePing(data string) {
	var p pingPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		metrics.FrameDecodeErrors.Inc()
		c.logger.Warn("malformed ping frame", "error", err)
		return
	}
	if p.Cursor != "" {
		c.advanceCursor(p.Cursor)
	}
}

// advanceCursor updates the in-memory cursor and mirrors it to disk.
// Persistence is best-effort: a failed write degrades to at-least-once
// replay after the next reconnect.
func (c *Client) advanceCursor(cur string) {
	c.cursor = cur
	metrics.CursorSaves.Inc()
	if err := c.store.Save(cur); err != nil {
		metrics.CursorSaveFailures.Inc()
		c.logger.Debug("checkpoint write failed", "cursor", cur, "error", err)
	}
}
