package memory

import (
	"time"

	"yt-chatbot-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps idle conversations for ttl, purging every 10 minutes.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(conversation *entity.Conversation) {
	r.cache.Set(conversation.Id.String(), conversation, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(id uuid.UUID) (*entity.Conversation, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.Conversation), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}

// ResetAll empties every conversation not yet bound to videoId and binds it.
// Conversations already on videoId have only seen the new video.
func (r *SessionRepository) ResetAll(videoId string) int {
	n := 0
	for key, item := range r.cache.Items() {
		conv := item.Object.(*entity.Conversation)
		if conv.VideoId == videoId {
			continue
		}
		conv.Reset(videoId)
		r.cache.Set(key, conv, cache.DefaultExpiration)
		n++
	}
	return n
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
