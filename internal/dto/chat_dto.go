package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	VideoId   string    `json:"video_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AskRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Question  string    `json:"question" validate:"required,max=2000"`
}

type SourceChunk struct {
	Id      string  `json:"id"`
	ChunkId int     `json:"chunk_id"`
	Score   float64 `json:"score"`
}

type AskResponse struct {
	SessionId uuid.UUID     `json:"session_id"`
	VideoId   string        `json:"video_id"`
	Answer    string        `json:"answer"`
	Sources   []SourceChunk `json:"sources"`
}

type TurnResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	SessionId uuid.UUID      `json:"session_id"`
	VideoId   string         `json:"video_id"`
	Turns     []TurnResponse `json:"turns"`
}
