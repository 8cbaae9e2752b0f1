package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// StreamConfig configures HeadlineStream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// HeadlineStream delivers live news headlines over a websocket feed.
// It reconnects with exponential backoff and resubscribes to all tickers
// after a reconnect.
type HeadlineStream struct {
	endpoint string
	config   StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// subscribed tickers, kept for resubscription after reconnect
	tickers   map[string]struct{}
	tickersMu sync.Mutex

	events chan Headline
	done   chan struct{}
	wg     sync.WaitGroup

	reconnecting atomic.Bool
}

// NewHeadlineStream connects to the streaming feed endpoint.
func NewHeadlineStream(ctx context.Context, endpoint string, config *StreamConfig) (*HeadlineStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &HeadlineStream{
		endpoint: endpoint,
		config:   cfg,
		tickers:  make(map[string]struct{}),
		events:   make(chan Headline, 1024),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Events returns the channel of incoming headlines. Closed on Close.
func (s *HeadlineStream) Events() <-chan Headline {
	return s.events
}

// connect establishes the websocket connection.
func (s *HeadlineStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// streamRequest is the outbound subscribe frame.
type streamRequest struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// Subscribe registers interest in a ticker's headlines.
func (s *HeadlineStream) Subscribe(ticker string) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}

	if err := s.writeSubscribe(ticker); err != nil {
		return err
	}

	s.tickersMu.Lock()
	s.tickers[ticker] = struct{}{}
	s.tickersMu.Unlock()

	return nil
}

func (s *HeadlineStream) writeSubscribe(ticker string) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(streamRequest{Type: "subscribe", Symbol: ticker}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close shuts down the stream and closes the event channel.
func (s *HeadlineStream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.events)
	return nil
}

// readLoop reads messages and dispatches headlines until Close.
func (s *HeadlineStream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(message)
	}
}

// reconnect re-establishes the connection and resubscribes.
func (s *HeadlineStream) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	s.tickersMu.Lock()
	tickers := make([]string, 0, len(s.tickers))
	for t := range s.tickers {
		tickers = append(tickers, t)
	}
	s.tickersMu.Unlock()

	for _, t := range tickers {
		if err := s.writeSubscribe(t); err != nil {
			return
		}
	}
}

// streamMessage is the inbound feed frame.
type streamMessage struct {
	Type string           `json:"type"`
	Data []streamNewsItem `json:"data"`
}

type streamNewsItem struct {
	Symbol   string `json:"s"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Datetime int64  `json:"t"` // unix milliseconds
}

// handleMessage parses a feed frame and dispatches news events.
func (s *HeadlineStream) handleMessage(message []byte) {
	var msg streamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.Type != "news" {
		return
	}

	for _, item := range msg.Data {
		headline := Headline{
			Ticker:      item.Symbol,
			Title:       item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			PublishedAt: time.UnixMilli(item.Datetime).UTC(),
		}

		// Block until delivered - headlines drive LastMention updates
		// and must not be dropped while the daemon is alive.
		select {
		case s.events <- headline:
		case <-s.done:
			return
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *HeadlineStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			s.connMu.Unlock()
		}
	}
}
