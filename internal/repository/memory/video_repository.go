package memory

import (
	"sync"

	"yt-chatbot-be/internal/entity"
)

// VideoRepository remembers which video is loaded in this process.
type VideoRepository struct {
	mu      sync.RWMutex
	current *entity.LoadedVideo
}

func NewVideoRepository() *VideoRepository {
	return &VideoRepository{}
}

func (r *VideoRepository) Current() (entity.LoadedVideo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return entity.LoadedVideo{}, false
	}
	return *r.current, true
}

func (r *VideoRepository) Set(video entity.LoadedVideo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = &video
}

func (r *VideoRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}
