package model

import "fmt"

// LastScoreIDKey is the osu_counts row name holding the score-poller's high
// watermark for mode m.
func LastScoreIDKey(m Mode) string {
	return fmt.Sprintf("last_score_id:%s", m.Tag())
}

// LastUserIDKey is the osu_counts row name holding the full-reprocess
// driver's high watermark for mode m.
func LastUserIDKey(m Mode) string {
	return fmt.Sprintf("last_user_id:%s", m.Tag())
}

// NoCheckpoint is the sentinel returned by Counters.Retrieve when a key has
// never been stored.
const NoCheckpoint int64 = -1
