package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/auth"
	"github.com/iudanet/forkful/internal/client/iocli"
	"github.com/iudanet/forkful/internal/client/realtime"
	"github.com/iudanet/forkful/internal/client/session"
	"github.com/iudanet/forkful/internal/client/share"
	"github.com/iudanet/forkful/internal/client/storage"
	"github.com/iudanet/forkful/internal/config"
	"github.com/iudanet/forkful/pkg/api"
)

func init() {
	color.NoColor = true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// output собирает все, что команда напечатала через IO
type output struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

func (o *output) mock() *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			o.mu.Lock()
			defer o.mu.Unlock()
			fmt.Fprintln(&o.buf, a...)
		},
		PrintfFunc: func(format string, a ...any) {
			o.mu.Lock()
			defer o.mu.Unlock()
			fmt.Fprintf(&o.buf, format, a...)
		},
		WriteFunc: func(p []byte) (int, error) {
			o.mu.Lock()
			defer o.mu.Unlock()
			return o.buf.Write(p)
		},
	}
}

func signedIn() *auth.ServiceMock {
	return &auth.ServiceMock{
		ActorIDFunc:     func(ctx context.Context) (string, error) { return "u1", nil },
		AccessTokenFunc: func(ctx context.Context) (string, error) { return "token", nil },
	}
}

func idleTransport() *realtime.TransportMock {
	return &realtime.TransportMock{
		JoinFunc:  func(ctx context.Context, topic string, handler realtime.EventHandler) error { return nil },
		LeaveFunc: func(ctx context.Context, topic string) error { return nil },
		CloseFunc: func() error { return nil },
	}
}

// newTestCli собирает Cli, открывающий сессию на моках
func newTestCli(out *output, authService auth.Service, deps session.Deps) *Cli {
	mockIO := out.mock()
	cfg := config.Default()
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = time.Millisecond

	deps.Auth = authService
	if deps.Transport == nil {
		deps.Transport = idleTransport()
	}
	if deps.Sheet == nil {
		deps.Sheet = share.NewConsoleSheet(mockIO)
	}
	deps.Prompter = iocli.NewSignInPrompt(mockIO, "forkful")

	return New(mockIO, authService, func(ctx context.Context) (*session.Session, error) {
		return session.Open(ctx, cfg, deps, testLogger())
	}, testLogger())
}

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "token-*.txt")
	require.NoError(t, err)
	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestGetToken_Priority(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		file    string
		args    string
		prompt  string
		want    string
		wantErr string
	}{
		{name: "env over everything", env: "env-token", file: "file-token", args: "arg-token", want: "env-token"},
		{name: "file over args", file: "file-token", args: "arg-token", want: "file-token"},
		{name: "file whitespace trimmed", file: "  file-token  \n\n", want: "file-token"},
		{name: "args", args: "arg-token", want: "arg-token"},
		{name: "prompt fallback", prompt: "typed-token", want: "typed-token"},
		{name: "empty file", file: "", args: "arg-token", wantErr: "token file is empty"},
		{name: "empty prompt", wantErr: "token cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(TokenEnv, tt.env)

			mockIO := &iocli.IOMock{
				ReadPasswordFunc: func(prompt string) (string, error) { return tt.prompt, nil },
			}
			c := &Cli{io: mockIO}

			tokens := Tokens{FromArgs: tt.args}
			if tt.file != "" || tt.wantErr == "token file is empty" {
				tokens.FromFile = writeTokenFile(t, tt.file)
			}

			got, err := c.getToken(tokens)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetToken_FileNotFound(t *testing.T) {
	t.Setenv(TokenEnv, "")
	c := &Cli{}

	token, err := c.getToken(Tokens{FromFile: "/nonexistent/file/path.txt"})

	require.Error(t, err)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), "failed to read token file")
}

func TestRunLogin(t *testing.T) {
	t.Setenv(TokenEnv, "")
	out := &output{}
	authService := &auth.ServiceMock{
		LoginFunc: func(ctx context.Context, token string) (*storage.AuthData, error) {
			return &storage.AuthData{Username: "chef", ActorID: "u1", AccessToken: token}, nil
		},
	}
	c := New(out.mock(), authService, nil, testLogger())

	require.NoError(t, c.RunLogin(context.Background(), Tokens{FromArgs: "jwt"}))

	require.Len(t, authService.LoginCalls(), 1)
	assert.Equal(t, "jwt", authService.LoginCalls()[0].Token)
	assert.Contains(t, out.String(), "✓ Login successful!")
	assert.Contains(t, out.String(), "Username: chef")
	assert.Contains(t, out.String(), "Actor: u1")
}

func TestRunLogin_InvalidToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	out := &output{}
	authService := &auth.ServiceMock{
		LoginFunc: func(ctx context.Context, token string) (*storage.AuthData, error) {
			return nil, auth.ErrInvalidToken
		},
	}
	c := New(out.mock(), authService, nil, testLogger())

	err := c.RunLogin(context.Background(), Tokens{FromArgs: "garbage"})

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.NotContains(t, out.String(), "successful")
}

func TestRunLogout(t *testing.T) {
	out := &output{}
	authService := &auth.ServiceMock{LogoutFunc: func(ctx context.Context) error { return nil }}
	c := New(out.mock(), authService, nil, testLogger())

	require.NoError(t, c.RunLogout(context.Background()))
	assert.Contains(t, out.String(), "✓ Logout successful!")

	authService.LogoutFunc = func(ctx context.Context) error { return auth.ErrNotSignedIn }
	err := c.RunLogout(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotSignedIn)
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name    string
		current func(ctx context.Context) (*storage.AuthData, error)
		want    []string
		wantErr bool
	}{
		{
			name: "authenticated",
			current: func(ctx context.Context) (*storage.AuthData, error) {
				return &storage.AuthData{Username: "chef", ActorID: "u1", ExpiresAt: time.Now().Add(time.Hour).Unix()}, nil
			},
			want: []string{"Status: Authenticated", "Username: chef", "Actor: u1", "Time remaining:"},
		},
		{
			name: "no expiry",
			current: func(ctx context.Context) (*storage.AuthData, error) {
				return &storage.AuthData{ActorID: "u1"}, nil
			},
			want: []string{"Status: Authenticated", "Token expires: never"},
		},
		{
			name: "not signed in",
			current: func(ctx context.Context) (*storage.AuthData, error) {
				return nil, auth.ErrNotSignedIn
			},
			want: []string{"Status: Not authenticated", "forkful login"},
		},
		{
			name: "storage failure",
			current: func(ctx context.Context) (*storage.AuthData, error) {
				return nil, errors.New("disk failure")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &output{}
			c := New(out.mock(), &auth.ServiceMock{CurrentFunc: tt.current}, nil, testLogger())

			err := c.RunStatus(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestRunLike(t *testing.T) {
	out := &output{}
	remote := &clientapi.ClientAPIMock{
		ToggleEngagementFunc: func(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
			liked := req.Desired
			count := int64(12)
			return &api.ToggleResponse{IsLiked: &liked, LikesCount: &count}, nil
		},
	}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote})

	require.NoError(t, c.RunLike(context.Background(), "post-1"))

	require.Len(t, remote.ToggleEngagementCalls(), 1)
	assert.True(t, remote.ToggleEngagementCalls()[0].Req.Desired)
	assert.Contains(t, out.String(), "✓ Liked post-1 (12 likes)")
}

func TestRunLike_RetriedUntilConfirmed(t *testing.T) {
	out := &output{}
	var (
		calls int
		mu    sync.Mutex
	)
	remote := &clientapi.ClientAPIMock{
		ToggleEngagementFunc: func(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return nil, &clientapi.StatusError{StatusCode: http.StatusServiceUnavailable, Message: "down"}
			}
			liked := req.Desired
			return &api.ToggleResponse{IsLiked: &liked}, nil
		},
	}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote})

	require.NoError(t, c.RunLike(context.Background(), "post-1"))

	assert.Contains(t, out.String(), "retrying in background")
	assert.Contains(t, out.String(), "✓ Liked post-1 (1 likes)")
	assert.Len(t, remote.ToggleEngagementCalls(), 2)
}

func TestRunLike_RetryExhausted(t *testing.T) {
	out := &output{}
	remote := &clientapi.ClientAPIMock{
		ToggleEngagementFunc: func(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
			return nil, &clientapi.StatusError{StatusCode: http.StatusServiceUnavailable, Message: "down"}
		},
	}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote})

	err := c.RunLike(context.Background(), "post-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up after retries")
	assert.NotContains(t, out.String(), "✓")
}

func TestRunLike_SignInRequired(t *testing.T) {
	out := &output{}
	anonymous := &auth.ServiceMock{
		ActorIDFunc:     func(ctx context.Context) (string, error) { return "", auth.ErrNotSignedIn },
		AccessTokenFunc: func(ctx context.Context) (string, error) { return "", nil },
	}
	remote := &clientapi.ClientAPIMock{}
	c := newTestCli(out, anonymous, session.Deps{Remote: remote})

	err := c.RunLike(context.Background(), "post-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in required")
	assert.Contains(t, out.String(), "Sign in to like: run 'forkful login'")
	assert.Empty(t, remote.ToggleEngagementCalls())
}

func TestRunSave_Collection(t *testing.T) {
	out := &output{}
	remote := &clientapi.ClientAPIMock{
		ToggleEngagementFunc: func(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
			saved := req.Desired
			return &api.ToggleResponse{IsSaved: &saved}, nil
		},
	}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote})

	require.NoError(t, c.RunSave(context.Background(), "post-1", "board-1"))

	require.Len(t, remote.ToggleEngagementCalls(), 1)
	assert.Equal(t, "board-1", remote.ToggleEngagementCalls()[0].Req.CollectionID)
	assert.Contains(t, out.String(), "✓ Saved post-1 to board-1 (1 saves)")
}

func TestRunComment(t *testing.T) {
	out := &output{}
	remote := &clientapi.ClientAPIMock{
		CreateCommentFunc: func(ctx context.Context, req api.CreateCommentRequest) (*api.CreateCommentResponse, error) {
			return &api.CreateCommentResponse{Comment: api.Comment{ID: "c42", Content: req.Content}}, nil
		},
	}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote})

	require.NoError(t, c.RunComment(context.Background(), "post-1", "so good", ""))
	assert.Contains(t, out.String(), "✓ Comment c42 posted on post-1 (1 comments)")
}

func TestRunComment_Rejected(t *testing.T) {
	out := &output{}
	remote := &clientapi.ClientAPIMock{}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote})

	err := c.RunComment(context.Background(), "post-1", "   ", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.Empty(t, remote.CreateCommentCalls())
}

func TestRunShare(t *testing.T) {
	out := &output{}
	remote := &clientapi.ClientAPIMock{
		RecordShareFunc: func(ctx context.Context, event api.ShareEvent) error { return nil },
	}
	c := newTestCli(out, signedIn(), session.Deps{Remote: remote})

	require.NoError(t, c.RunShare(context.Background(), "post-1", "Best ramen in town", ""))

	assert.Contains(t, out.String(), "Best ramen in town")
	assert.Contains(t, out.String(), "https://forkful.app/post/post-1")
	assert.Contains(t, out.String(), "✓ Shared post-1")
	// Сессия закрыта: фоновая аналитика дождалась завершения
	assert.Len(t, remote.RecordShareCalls(), 1)
}

func TestRunCopyLink(t *testing.T) {
	tests := []struct {
		name      string
		clipboard func(text string) error
		want      string
		wantErr   bool
	}{
		{name: "copied", clipboard: func(string) error { return nil }, want: "✓ Link copied: https://forkful.app/post/post-1"},
		{name: "no clipboard", clipboard: func(string) error { return share.ErrClipboardUnavailable }, want: "copy the link manually"},
		{name: "clipboard failure", clipboard: func(string) error { return errors.New("xclip crashed") }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &output{}
			remote := &clientapi.ClientAPIMock{
				RecordShareFunc: func(ctx context.Context, event api.ShareEvent) error { return nil },
			}
			c := newTestCli(out, signedIn(), session.Deps{
				Remote:    remote,
				Clipboard: &share.ClipboardMock{WriteTextFunc: tt.clipboard},
			})

			err := c.RunCopyLink(context.Background(), "post-1")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.want)
			assert.Contains(t, out.String(), "https://forkful.app/post/post-1")
		})
	}
}
