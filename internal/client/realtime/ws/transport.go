// Package ws implements the realtime transport over a single websocket
// connection multiplexing every joined topic.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	goretry "github.com/sethvargo/go-retry"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/realtime"
	"github.com/iudanet/forkful/pkg/api"
)

// ErrClosed возвращается после Close
var ErrClosed = errors.New("websocket transport closed")

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 30 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	maxReconnectDelay       = 30 * time.Second
)

// Config параметры websocket транспорта
type Config struct {
	Tokens           clientapi.TokenSource // Tokens источник bearer token (может быть nil)
	URL              string                // URL адрес realtime endpoint (ws:// или wss://)
	HandshakeTimeout time.Duration         // HandshakeTimeout таймаут установки соединения
	PingInterval     time.Duration         // PingInterval период ping; чтение ждет не дольше двух периодов
	WriteTimeout     time.Duration         // WriteTimeout таймаут записи одного фрейма
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	return c
}

// Transport implements realtime.Transport. The connection is dialed on the
// first Join and re-dialed with exponential backoff after a read failure;
// every joined topic is re-joined on the new connection.
type Transport struct {
	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	dialer   *websocket.Dialer
	logger   *slog.Logger
	handlers map[string]realtime.EventHandler
	cfg      Config
	wg       sync.WaitGroup
	mu       sync.Mutex // conn, handlers, closed
	writeMu  sync.Mutex // gorilla допускает одного писателя
	ref      uint64
	closed   bool
}

var _ realtime.Transport = (*Transport)(nil)

// New создает транспорт без установки соединения
func New(cfg Config, logger *slog.Logger) *Transport {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]realtime.EventHandler),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Join подписывается на топик, устанавливая соединение при необходимости
func (t *Transport) Join(ctx context.Context, topic string, handler realtime.EventHandler) error {
	conn, err := t.connection(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.handlers[topic] = handler
	t.mu.Unlock()

	if err := t.send(conn, api.FrameJoin, topic); err != nil {
		t.mu.Lock()
		delete(t.handlers, topic)
		t.mu.Unlock()
		return fmt.Errorf("failed to send join: %w", err)
	}
	return nil
}

// Leave отписывается от топика
func (t *Transport) Leave(ctx context.Context, topic string) error {
	t.mu.Lock()
	_, joined := t.handlers[topic]
	delete(t.handlers, topic)
	conn := t.conn
	t.mu.Unlock()

	if !joined || conn == nil {
		return nil
	}
	if err := t.send(conn, api.FrameLeave, topic); err != nil {
		return fmt.Errorf("failed to send leave: %w", err)
	}
	return nil
}

// Close закрывает соединение и останавливает фоновые горутины
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	t.cancel()

	var err error
	if conn != nil {
		t.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(t.cfg.WriteTimeout))
		t.writeMu.Unlock()
		err = conn.Close()
	}

	t.wg.Wait()
	return err
}

// connection возвращает текущее соединение или устанавливает новое
func (t *Transport) connection(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}
	if t.conn != nil {
		return t.conn, nil
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	t.attach(conn)
	return conn, nil
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if t.cfg.Tokens != nil {
		token, err := t.cfg.Tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get access token: %w", err)
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, &clientapi.StatusError{StatusCode: resp.StatusCode, Message: err.Error()}
		}
		return nil, fmt.Errorf("failed to dial %s: %w", t.cfg.URL, err)
	}

	t.logger.Info("Realtime connection established", "url", t.cfg.URL)
	return conn, nil
}

// attach запускает чтение и ping для нового соединения. Требует t.mu.
func (t *Transport) attach(conn *websocket.Conn) {
	t.conn = conn

	readTimeout := 2 * t.cfg.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	t.wg.Add(2)
	go t.readLoop(conn, done)
	go t.pingLoop(conn, done)
}

func (t *Transport) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer t.wg.Done()
	defer close(done)

	for {
		var frame api.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			t.connectionLost(conn, err)
			return
		}

		switch frame.Type {
		case api.FrameEvent:
			t.mu.Lock()
			handler := t.handlers[frame.Topic]
			t.mu.Unlock()
			if handler != nil {
				handler(frame.Payload)
			}
		case api.FrameError:
			t.logger.Warn("Realtime server error", "topic", frame.Topic, "payload", string(frame.Payload))
		}
	}
}

func (t *Transport) pingLoop(conn *websocket.Conn, done chan struct{}) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.cfg.WriteTimeout))
			t.writeMu.Unlock()
			if err != nil {
				t.logger.Debug("Realtime ping failed", "error", err)
				return
			}
		}
	}
}

// connectionLost сбрасывает соединение и запускает переподключение
func (t *Transport) connectionLost(conn *websocket.Conn, cause error) {
	t.mu.Lock()
	if t.closed || t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	topics := len(t.handlers)
	t.mu.Unlock()

	_ = conn.Close()
	t.logger.Warn("Realtime connection lost", "error", cause, "topics", topics)

	if topics == 0 {
		return
	}
	t.wg.Add(1)
	go t.reconnect()
}

func (t *Transport) reconnect() {
	defer t.wg.Done()

	backoff := goretry.WithCappedDuration(maxReconnectDelay, goretry.NewExponential(time.Second))
	err := goretry.Do(t.ctx, backoff, func(ctx context.Context) error {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return nil
		}
		if t.conn != nil {
			t.mu.Unlock()
			return nil
		}
		conn, err := t.dial(ctx)
		if err != nil {
			t.mu.Unlock()
			t.logger.Debug("Realtime reconnect failed", "error", err)
			return goretry.RetryableError(err)
		}
		t.attach(conn)
		topics := make([]string, 0, len(t.handlers))
		for topic := range t.handlers {
			topics = append(topics, topic)
		}
		t.mu.Unlock()

		for _, topic := range topics {
			if err := t.send(conn, api.FrameJoin, topic); err != nil {
				t.logger.Warn("Failed to rejoin topic", "topic", topic, "error", err)
			}
		}
		t.logger.Info("Realtime connection restored", "topics", len(topics))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Error("Realtime reconnect aborted", "error", err)
	}
}

func (t *Transport) send(conn *websocket.Conn, frameType, topic string) error {
	t.mu.Lock()
	t.ref++
	ref := strconv.FormatUint(t.ref, 10)
	t.mu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(api.Frame{Type: frameType, Topic: topic, Ref: ref})
}
