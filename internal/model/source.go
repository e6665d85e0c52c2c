package model

import "time"

// SourceObject describes one stored tracker export.
type SourceObject struct {
	Key          string    `json:"key"`
	LastModified time.Time `json:"lastModified"`
	Size         int64     `json:"size"`
}
