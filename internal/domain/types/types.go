// Package types contains common types used across the application
package types

// SkillEntry represents one extracted skill in API responses.
type SkillEntry struct {
	Skill      string  `json:"skill"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Context    string  `json:"context,omitempty"`
	Position   [2]int  `json:"position"`
}

// Summary aggregates an extraction result set.
type Summary struct {
	TotalSkills   int            `json:"total_skills"`
	UniqueSkills  int            `json:"unique_skills"`
	AvgConfidence float64        `json:"avg_confidence"`
	MethodCounts  map[string]int `json:"method_counts"`
}
