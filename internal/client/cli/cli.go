package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/iudanet/forkful/internal/client/auth"
	"github.com/iudanet/forkful/internal/client/engagement"
	"github.com/iudanet/forkful/internal/client/iocli"
	"github.com/iudanet/forkful/internal/client/session"
)

// TokenEnv переменная окружения с access token
const TokenEnv = "FORKFUL_TOKEN"

// DefaultSettleTimeout сколько команда ждет повторов мутации перед выходом
const DefaultSettleTimeout = 30 * time.Second

// Tokens источники access token для login
type Tokens struct {
	FromFile string
	FromArgs string
}

// Opener открывает сессию движка для одной команды
type Opener func(ctx context.Context) (*session.Session, error)

type Cli struct {
	io            iocli.IO
	authService   auth.Service
	open          Opener
	logger        *slog.Logger
	settleTimeout time.Duration
	outMu         sync.Mutex // watch печатает из нескольких наблюдателей
}

func New(io iocli.IO, authService auth.Service, open Opener, logger *slog.Logger) *Cli {
	return &Cli{
		io:            io,
		authService:   authService,
		open:          open,
		logger:        logger,
		settleTimeout: DefaultSettleTimeout,
	}
}

// SetSettleTimeout задает время ожидания повторов (0 = не ждать)
func (c *Cli) SetSettleTimeout(d time.Duration) {
	c.settleTimeout = d
}

// getToken retrieves the access token from various sources with priority:
// 1. Environment variable FORKFUL_TOKEN
// 2. File specified in tokens.FromFile
// 3. Command-line parameter tokens.FromArgs
// 4. Interactive prompt (fallback)
func (c *Cli) getToken(tokens Tokens) (string, error) {
	// Priority 1: Environment variable
	if envToken := os.Getenv(TokenEnv); envToken != "" {
		return envToken, nil
	}

	// Priority 2: File
	if tokens.FromFile != "" {
		content, err := os.ReadFile(tokens.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		// Убираем trailing newline/whitespace
		token := strings.TrimSpace(string(content))
		if token == "" {
			return "", fmt.Errorf("token file is empty")
		}
		return token, nil
	}

	// Priority 3: CLI parameter
	if tokens.FromArgs != "" {
		return tokens.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	token, err := c.io.ReadPassword("Access token: ")
	if err != nil {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	return token, nil
}

// withSession открывает сессию на время fn и закрывает ее, сохраняя snapshot
func (c *Cli) withSession(ctx context.Context, fn func(s *session.Session) error) error {
	s, err := c.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := s.Close(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("Failed to close session", "error", err)
		}
	}()
	return fn(s)
}

// failureLog собирает откаты мутаций поста, пока команда ждет повторов
type failureLog struct {
	stop func()
	errs []error
	mu   sync.Mutex
}

func watchFailures(s *session.Session, itemID string) *failureLog {
	l := &failureLog{}
	l.stop = s.Coordinator().OnFailure(itemID, func(f engagement.Failure) {
		l.mu.Lock()
		l.errs = append(l.errs, f.Err)
		l.mu.Unlock()
	})
	return l
}

func (l *failureLog) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.errs...)
}

// settle waits for a queued mutation and reports how it ended.
func settle[T any](ctx context.Context, c *Cli, s *session.Session, res engagement.Result[T], failures *failureLog) error {
	if res.Err != nil {
		return describe(res.Err, res.Kind)
	}
	if !res.Pending {
		return nil
	}

	c.warn("Server unavailable, retrying in background...")
	if c.settleTimeout > 0 {
		settleCtx, cancel := context.WithTimeout(ctx, c.settleTimeout)
		err := s.Settle(settleCtx)
		cancel()
		if err != nil {
			// Close откатит то, что осталось в очереди
			return fmt.Errorf("mutation not confirmed in %s: %w", c.settleTimeout, engagement.ErrRetryExhausted)
		}
	}
	if err := failures.err(); err != nil {
		return describe(err, engagement.Classify(err))
	}
	return nil
}

// describe добавляет к ошибке вид отказа для пользователя
func describe(err error, kind engagement.ErrorKind) error {
	switch kind {
	case engagement.KindAuthRequired:
		return fmt.Errorf("sign in required: %w", err)
	case engagement.KindValidation:
		return fmt.Errorf("rejected: %w", err)
	case engagement.KindRetryExhausted:
		return fmt.Errorf("gave up after retries: %w", err)
	default:
		return err
	}
}

func (c *Cli) success(format string, a ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = color.New(color.FgGreen).Fprintf(c.io, "✓ "+format+"\n", a...)
}

func (c *Cli) warn(format string, a ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = color.New(color.FgYellow).Fprintf(c.io, "⚠️  "+format+"\n", a...)
}

func (c *Cli) line(format string, a ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	c.io.Printf(format+"\n", a...)
}
