package cli

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/realtime"
	"github.com/iudanet/forkful/internal/client/session"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/pkg/api"
)

// pushTransport запоминает обработчики топиков, чтобы тест мог слать события
type pushTransport struct {
	*realtime.TransportMock
	handlers map[string]realtime.EventHandler
	mu       sync.Mutex
}

func newPushTransport() *pushTransport {
	p := &pushTransport{handlers: make(map[string]realtime.EventHandler)}
	p.TransportMock = &realtime.TransportMock{
		JoinFunc: func(ctx context.Context, topic string, handler realtime.EventHandler) error {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.handlers[topic] = handler
			return nil
		},
		LeaveFunc: func(ctx context.Context, topic string) error { return nil },
		CloseFunc: func() error { return nil },
	}
	return p
}

func (p *pushTransport) joined(topic string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.handlers[topic]
	return ok
}

func (p *pushTransport) push(t *testing.T, topic string, v any) {
	t.Helper()
	p.mu.Lock()
	h := p.handlers[topic]
	p.mu.Unlock()
	require.NotNil(t, h)

	payload, err := json.Marshal(v)
	require.NoError(t, err)
	h(payload)
}

func TestRunWatch(t *testing.T) {
	out := &output{}
	tr := newPushTransport()
	remote := &clientapi.ClientAPIMock{
		GetAuthorFunc: func(ctx context.Context, authorID string) (*api.Author, error) {
			return &api.Author{ID: authorID, Username: "nonna"}, nil
		},
	}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote, Transport: tr.TransportMock})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.RunWatch(ctx, []string{"post-1"})
	}()

	require.Eventually(t, func() bool {
		return tr.joined("post-comments:post-1") && tr.joined("post-stats:post-1")
	}, 2*time.Second, 5*time.Millisecond)

	tr.push(t, "post-stats:post-1", api.StatsEvent{ItemID: "post-1", LikesCount: 7, CommentsCount: 1, Version: 1})
	tr.push(t, "post-comments:post-1", api.CommentInsertEvent{Comment: api.Comment{ID: "c1", AuthorID: "u9", Content: "needs salt"}})
	// Повтор того же события не печатается второй раз
	tr.push(t, "post-comments:post-1", api.CommentInsertEvent{Comment: api.Comment{ID: "c1", AuthorID: "u9", Content: "needs salt"}})

	assert.Eventually(t, func() bool {
		got := out.String()
		return strings.Contains(got, "Watching 1 post(s)") &&
			strings.Contains(got, "post-1  likes=7 comments=1 saves=0 shares=0") &&
			strings.Contains(got, "post-1  new comment by @nonna: needs salt")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	assert.Equal(t, 1, strings.Count(out.String(), "new comment by"))
	assert.Len(t, tr.LeaveCalls(), 2)
}

func TestRunWatch_NoItems(t *testing.T) {
	c := New(nil, nil, nil, testLogger())
	assert.Error(t, c.RunWatch(context.Background(), nil))
}

func TestAuthorName(t *testing.T) {
	tests := []struct {
		name   string
		author models.AuthorRef
		want   string
	}{
		{name: "username", author: models.AuthorRef{ID: "u1", Username: "nonna"}, want: "@nonna"},
		{name: "id only", author: models.AuthorRef{ID: "u1"}, want: "u1"},
		{name: "invalid username falls back to id", author: models.AuthorRef{ID: "u1", Username: "\x1b[31mred"}, want: "u1"},
		{name: "unknown", author: models.AuthorRef{}, want: "someone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, authorName(tt.author))
		})
	}
}
