package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/forkful/pkg/api"
)

func TestStatsFromEvent(t *testing.T) {
	now := time.Now()
	stats := StatsFromEvent(api.StatsEvent{
		ItemID:        "post-1",
		LikesCount:    9,
		CommentsCount: -1,
		ShareCount:    2,
		Version:       4,
		UpdatedAt:     now,
	})

	assert.Equal(t, "post-1", stats.ItemID)
	assert.Equal(t, int64(9), stats.LikesCount)
	assert.Equal(t, int64(0), stats.CommentsCount, "negative counts are clamped")
	assert.Equal(t, int64(2), stats.ShareCount)
	assert.Equal(t, int64(4), stats.Version)
	assert.Equal(t, now, stats.UpdatedAt)
}

func TestCommentRecord(t *testing.T) {
	tests := []struct {
		name       string
		wantAuthor string
		wantName   string
		in         api.Comment
	}{
		{
			name:       "embedded author",
			in:         api.Comment{ID: "c1", AuthorID: "u1", Author: &api.Author{ID: "u1", Username: "chef"}},
			wantAuthor: "u1",
			wantName:   "chef",
		},
		{
			name:       "author id only",
			in:         api.Comment{ID: "c1", AuthorID: "u2"},
			wantAuthor: "u2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := CommentRecord(tt.in)
			assert.Equal(t, "c1", rec.ID)
			assert.Equal(t, tt.wantAuthor, rec.Author.ID)
			assert.Equal(t, tt.wantName, rec.Author.Username)
			assert.False(t, rec.IsTemporary())
		})
	}
}
