package domain

import "time"

// LeaderboardPeriod selects which ranking window a snapshot covers.
type LeaderboardPeriod string

const (
	LeaderboardPeriodWeekly  LeaderboardPeriod = "weekly"
	LeaderboardPeriodMonthly LeaderboardPeriod = "monthly"
	LeaderboardPeriodAllTime LeaderboardPeriod = "all_time"
)

// LeaderboardEntry is one ranked user in a snapshot.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	TotalMiles float64 `json:"total_miles"`
	TotalTrips int     `json:"total_trips"`
	Change     int     `json:"change"` // previousRank - newRank; positive = moved up
}

// LeaderboardSnapshot is a derived, read-only ranking. It is recomputed
// and replaced whole each run, never partially updated.
type LeaderboardSnapshot struct {
	Period       LeaderboardPeriod  `json:"period"`
	Entries      []LeaderboardEntry `json:"entries"`
	Participants int                `json:"participants"`
	MeanScore    float64            `json:"mean_score"`
	MedianScore  float64            `json:"median_score"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
