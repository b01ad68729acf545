package facade

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/engagement"
	"github.com/iudanet/forkful/internal/client/realtime"
	"github.com/iudanet/forkful/internal/client/retry"
	"github.com/iudanet/forkful/internal/client/share"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type actorFunc func(ctx context.Context) (string, error)

func (f actorFunc) ActorID(ctx context.Context) (string, error) { return f(ctx) }

func signedIn(id string) ActorSource {
	return actorFunc(func(context.Context) (string, error) { return id, nil })
}

type prompter struct {
	actions []string
}

func (p *prompter) PromptSignIn(ctx context.Context, action string) {
	p.actions = append(p.actions, action)
}

// observed собирает состояния, переданные наблюдателю
type observed struct {
	states []State
	mu     sync.Mutex
}

func (o *observed) add(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *observed) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.states)
}

func (o *observed) last() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[len(o.states)-1]
}

type env struct {
	cache     *cache.Cache
	remote    *clientapi.ClientAPIMock
	transport *realtime.TransportMock
	feed      *realtime.Manager
	deps      Deps
	handlers  map[string]realtime.EventHandler
	mu        sync.Mutex
}

func newEnv(t *testing.T, actors ActorSource) *env {
	t.Helper()

	e := &env{
		cache:    cache.New(),
		handlers: make(map[string]realtime.EventHandler),
		remote: &clientapi.ClientAPIMock{
			ToggleEngagementFunc: func(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
				liked := req.Desired
				return &api.ToggleResponse{IsLiked: &liked}, nil
			},
			RecordShareFunc: func(ctx context.Context, event api.ShareEvent) error { return nil },
		},
	}
	e.transport = &realtime.TransportMock{
		JoinFunc: func(ctx context.Context, topic string, handler realtime.EventHandler) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.handlers[topic] = handler
			return nil
		},
		LeaveFunc: func(ctx context.Context, topic string) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.handlers, topic)
			return nil
		},
		CloseFunc: func() error { return nil },
	}

	scheduler := retry.NewScheduler(retry.Config{BaseDelay: time.Millisecond, MaxAttempts: 1}, testLogger())
	t.Cleanup(scheduler.Close)

	e.feed = realtime.NewManager(e.transport, e.cache, nil, testLogger())
	coord := engagement.NewCoordinator(e.remote, e.cache, scheduler, engagement.Sharing{
		Clipboard: &share.ClipboardMock{WriteTextFunc: func(string) error { return nil }},
	}, testLogger())
	t.Cleanup(coord.Wait)

	e.deps = Deps{
		Coordinator: coord,
		Cache:       e.cache,
		Feed:        e.feed,
		Actors:      actors,
	}
	return e
}

func (e *env) push(t *testing.T, topic string, v any) {
	t.Helper()

	e.mu.Lock()
	h := e.handlers[topic]
	e.mu.Unlock()
	require.NotNil(t, h)

	payload, err := json.Marshal(v)
	require.NoError(t, err)
	h(payload)
}

func TestNew_Seed(t *testing.T) {
	e := newEnv(t, signedIn("u1"))

	f := New("post-1", &models.EngagementStats{LikesCount: 5, CommentsCount: -1}, e.deps, testLogger())
	st := f.State()
	assert.Equal(t, "post-1", st.Stats.ItemID)
	assert.Equal(t, int64(5), st.Stats.LikesCount)
	assert.Equal(t, int64(0), st.Stats.CommentsCount)

	// Второй экран того же поста не перетирает кэш
	New("post-1", &models.EngagementStats{LikesCount: 1}, e.deps, testLogger())
	stats, _ := e.cache.Stats("post-1")
	assert.Equal(t, int64(5), stats.LikesCount)
}

func TestNew_SeedReplacesWarmStart(t *testing.T) {
	e := newEnv(t, signedIn("u1"))
	e.cache.Import(&models.EngagementSnapshot{
		Stats: []models.EngagementStats{
			{ItemID: "post-1", LikesCount: 6},
			{ItemID: "post-2", LikesCount: 3},
		},
		Flags: []models.ActorFlag{{ItemID: "post-1", ActorID: "u1", Action: models.ActionLike, Value: true}},
	})

	f := New("post-1", &models.EngagementStats{LikesCount: 9}, e.deps, testLogger())
	require.NoError(t, f.Show(context.Background()))
	defer f.Hide()

	st := f.State()
	assert.Equal(t, int64(9), st.Stats.LikesCount, "fresh seed wins over restored counters")
	assert.True(t, st.Liked, "restored flags are kept")

	// Без seed остаются сохраненные значения
	other := New("post-2", nil, e.deps, testLogger())
	assert.Equal(t, int64(3), other.State().Stats.LikesCount)

	// Значения этой сессии сильнее seed'а следующего экрана
	require.NoError(t, f.ToggleLike(context.Background()).Err)
	New("post-1", &models.EngagementStats{LikesCount: 1}, e.deps, testLogger())
	stats, _ := e.cache.Stats("post-1")
	assert.Equal(t, int64(8), stats.LikesCount)
}

func TestFacade_SharedChannelSurvivesOtherScreenHide(t *testing.T) {
	e := newEnv(t, signedIn("u1"))
	first := New("post-1", &models.EngagementStats{LikesCount: 5}, e.deps, testLogger())
	second := New("post-1", nil, e.deps, testLogger())

	obs := &observed{}
	first.Observe(obs.add)

	require.NoError(t, first.Show(context.Background()))
	require.NoError(t, second.Show(context.Background()))
	assert.Len(t, e.transport.JoinCalls(), 2, "second screen reuses both channels")

	second.Hide()
	assert.Empty(t, e.transport.LeaveCalls())
	assert.True(t, first.State().Live)
	assert.False(t, second.State().Live)
	assert.True(t, e.feed.Active("post-1"))

	e.push(t, "post-stats:post-1", api.StatsEvent{LikesCount: 12, Version: 1})
	assert.Equal(t, int64(12), obs.last().Stats.LikesCount)

	first.Hide()
	assert.Len(t, e.transport.LeaveCalls(), 2)
	assert.False(t, e.feed.Active("post-1"))
}

func TestFacade_ShowObserveHide(t *testing.T) {
	e := newEnv(t, signedIn("u1"))
	f := New("post-1", &models.EngagementStats{LikesCount: 5}, e.deps, testLogger())

	obs := &observed{}
	f.Observe(obs.add)

	require.NoError(t, f.Show(context.Background()))
	require.NoError(t, f.Show(context.Background()))
	assert.True(t, f.State().Live)
	assert.Len(t, e.transport.JoinCalls(), 2)
	require.Equal(t, 1, obs.count())

	res := f.ToggleLike(context.Background())
	require.NoError(t, res.Err)
	assert.True(t, obs.last().Liked)
	assert.Equal(t, int64(6), obs.last().Stats.LikesCount)

	e.push(t, "post-stats:post-1", api.StatsEvent{LikesCount: 11, Version: 1})
	assert.Equal(t, int64(11), obs.last().Stats.LikesCount)

	e.push(t, "post-comments:post-1", api.CommentInsertEvent{Comment: api.Comment{ID: "c1", AuthorID: "u2"}})
	require.Len(t, obs.last().Comments, 1)

	f.Hide()
	f.Hide()
	assert.Len(t, e.transport.LeaveCalls(), 2)
	assert.False(t, e.feed.Active("post-1"))

	seen := obs.count()
	// После Hide мутации меняют кэш, но не экран
	res = f.ToggleLike(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, seen, obs.count())
	stats, _ := e.cache.Stats("post-1")
	assert.Equal(t, int64(10), stats.LikesCount)
}

func TestFacade_RequiresActor(t *testing.T) {
	e := newEnv(t, actorFunc(func(context.Context) (string, error) {
		return "", errors.New("not signed in")
	}))
	p := &prompter{}
	e.deps.Prompter = p
	f := New("post-1", &models.EngagementStats{LikesCount: 5}, e.deps, testLogger())

	like := f.ToggleLike(context.Background())
	save := f.ToggleSave(context.Background(), "")
	comment := f.AddComment(context.Background(), "great food", "")

	for _, err := range []error{like.Err, save.Err, comment.Err} {
		assert.ErrorIs(t, err, engagement.ErrAuthRequired)
	}
	assert.Equal(t, engagement.KindAuthRequired, like.Kind)
	assert.Equal(t, []string{"like", "save", "comment"}, p.actions)
	assert.Empty(t, e.remote.ToggleEngagementCalls())
	assert.Empty(t, e.remote.CreateCommentCalls())

	stats, _ := e.cache.Stats("post-1")
	assert.Equal(t, int64(5), stats.LikesCount, "optimistic update never applied")

	// Шеринг доступен анонимно
	link := f.CopyLink(context.Background())
	require.NoError(t, link.Err)
	assert.Equal(t, "https://forkful.app/post/post-1", link.Value)
}

func TestFacade_EmptyActorPrompts(t *testing.T) {
	e := newEnv(t, signedIn(""))
	p := &prompter{}
	e.deps.Prompter = p
	f := New("post-1", nil, e.deps, testLogger())

	res := f.ToggleLike(context.Background())

	assert.ErrorIs(t, res.Err, engagement.ErrAuthRequired)
	assert.Equal(t, []string{"like"}, p.actions)
}

func TestFacade_FailureSurfacedOnce(t *testing.T) {
	e := newEnv(t, signedIn("u1"))
	e.remote.ToggleEngagementFunc = func(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
		return nil, &clientapi.StatusError{StatusCode: http.StatusUnprocessableEntity, Message: "rejected"}
	}
	f := New("post-1", &models.EngagementStats{LikesCount: 5}, e.deps, testLogger())

	var (
		errs []error
		mu   sync.Mutex
	)
	f.Observe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		if s.LastError != nil && (len(errs) == 0 || errs[len(errs)-1] != s.LastError) {
			errs = append(errs, s.LastError)
		}
	})
	require.NoError(t, f.Show(context.Background()))
	defer f.Hide()

	res := f.ToggleLike(context.Background())
	require.Error(t, res.Err)

	st := f.State()
	assert.False(t, st.Liked)
	assert.Equal(t, int64(5), st.Stats.LikesCount)
	require.Error(t, st.LastError)

	mu.Lock()
	assert.Len(t, errs, 1)
	mu.Unlock()

	// Успешная мутация сбрасывает ошибку
	e.remote.ToggleEngagementFunc = func(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
		liked := req.Desired
		return &api.ToggleResponse{IsLiked: &liked}, nil
	}
	require.NoError(t, f.ToggleLike(context.Background()).Err)
	assert.NoError(t, f.State().LastError)
}

func TestFacade_ShowWithRealtimeError(t *testing.T) {
	e := newEnv(t, signedIn("u1"))
	e.transport.JoinFunc = func(ctx context.Context, topic string, handler realtime.EventHandler) error {
		return errors.New("offline")
	}
	f := New("post-1", nil, e.deps, testLogger())

	obs := &observed{}
	f.Observe(obs.add)

	err := f.Show(context.Background())
	require.Error(t, err)
	assert.False(t, f.State().Live)

	// Локальные изменения по-прежнему видны
	require.NoError(t, f.ToggleLike(context.Background()).Err)
	assert.True(t, obs.last().Liked)
	f.Hide()
}

func TestFacade_WithoutFeed(t *testing.T) {
	e := newEnv(t, signedIn("u1"))
	e.deps.Feed = nil
	f := New("post-1", nil, e.deps, testLogger())

	require.NoError(t, f.Show(context.Background()))
	assert.False(t, f.State().Live)
	assert.Empty(t, e.transport.JoinCalls())
	f.Hide()
}
