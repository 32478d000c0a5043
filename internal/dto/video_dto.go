package dto

import "time"

type IngestVideoRequest struct {
	Url string `json:"url" validate:"required,max=2048"`
}

type IngestVideoResponse struct {
	VideoId    string    `json:"video_id"`
	Chunks     int       `json:"chunks"`
	Stored     int       `json:"stored"`
	Cached     bool      `json:"transcript_cached"`
	IngestedAt time.Time `json:"ingested_at"`
}

type CurrentVideoResponse struct {
	Loaded     bool       `json:"loaded"`
	VideoId    string     `json:"video_id,omitempty"`
	Url        string     `json:"url,omitempty"`
	Chunks     int        `json:"chunks,omitempty"`
	IngestedAt *time.Time `json:"ingested_at,omitempty"`
}
