// Package models defines the domain types shared by storage and catalog.
package models

import "time"

// MediaMetadata describes one media file in a library.
type MediaMetadata struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	// HasSidecar is true when a "<path>.yaml" metadata file sits next to it.
	HasSidecar bool `json:"has_sidecar"`
}

// MediaRecord is a catalogued media file with its capture date.
type MediaRecord struct {
	Pane        string    `json:"pane"`
	ID          string    `json:"id"`
	TakenOn     string    `json:"taken_on"`
	Title       string    `json:"title,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}
