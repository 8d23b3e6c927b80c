package repository

import "errors"

// Sentinel error kinds for this package.
var (
	ErrBeatmapNotFound = errors.New("beatmap not found")
	ErrNoMaxUserID     = errors.New("could not determine maximum user id")
)
