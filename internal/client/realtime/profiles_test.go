package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/pkg/api"
)

type profileSourceFunc func(ctx context.Context, authorID string) (*api.Author, error)

func (f profileSourceFunc) GetAuthor(ctx context.Context, authorID string) (*api.Author, error) {
	return f(ctx, authorID)
}

func TestProfileResolver_DeduplicatesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	r := NewProfileResolver(profileSourceFunc(func(ctx context.Context, id string) (*api.Author, error) {
		calls.Add(1)
		<-release
		return &api.Author{ID: id, Username: "chef"}, nil
	}), testLogger())

	var wg sync.WaitGroup
	results := make([]models.AuthorRef, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := r.Resolve(context.Background(), "u1")
			assert.NoError(t, err)
			results[i] = ref
		}(i)
	}

	// Даем горутинам встать в singleflight
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, ref := range results {
		assert.Equal(t, "chef", ref.Username)
	}
}

func TestProfileResolver_Errors(t *testing.T) {
	var calls atomic.Int32
	r := NewProfileResolver(profileSourceFunc(func(ctx context.Context, id string) (*api.Author, error) {
		calls.Add(1)
		return nil, errors.New("not found")
	}), testLogger())

	ref, err := r.Resolve(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, "u1", ref.ID, "falls back to the author id")

	// Ошибки не кэшируются
	_, _ = r.Resolve(context.Background(), "u1")
	assert.Equal(t, int32(2), calls.Load())

	_, err = r.Resolve(context.Background(), "")
	assert.Error(t, err)
}

func TestProfileResolver_Remember(t *testing.T) {
	r := NewProfileResolver(profileSourceFunc(func(ctx context.Context, id string) (*api.Author, error) {
		return nil, errors.New("must not be called")
	}), testLogger())

	r.Remember(models.AuthorRef{ID: "u1", Username: "chef"})
	r.Remember(models.AuthorRef{ID: "u2"})

	ref, err := r.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "chef", ref.Username)

	_, err = r.Resolve(context.Background(), "u2")
	assert.Error(t, err, "references without a username are not remembered")
}
