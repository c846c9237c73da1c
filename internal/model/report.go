package model

// StudentReport is the top-level JSON structure for a student's
// compliance/analytics report.
type StudentReport struct {
	StudentID    int64       `json:"student_id"`
	Category     Category    `json:"category"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Compliance   Compliance  `json:"compliance"`
	Trend        Trend       `json:"trend"`
	RecentScores []int       `json:"recent_scores"`
	WeakPoints   []WeakPoint `json:"weak_points"`
}

// KeyImport is used for loading answer keys from JSON files.
type KeyImport struct {
	Category     Category `json:"category"`
	TargetID     int64    `json:"target_id"`
	Answers      []int    `json:"answers"`
	BonusIndices []int    `json:"bonus_indices,omitempty"`
}
