package entity

import "time"

// LoadedVideo is the video whose chunks currently fill the working partition.
type LoadedVideo struct {
	VideoId    string
	Url        string
	Chunks     int
	Stored     int
	IngestedAt time.Time
}
