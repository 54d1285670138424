package interaction

import (
	"sort"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// SortField represents the field to sort recommendations by
type SortField int

const (
	SortByTime SortField = iota
	SortByConfidence
	SortByStatus
)

func (f SortField) String() string {
	switch f {
	case SortByConfidence:
		return "confidence"
	case SortByStatus:
		return "status"
	default:
		return "time"
	}
}

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// RecommendationSorter orders the agent view's recommendation list
type RecommendationSorter struct {
	field SortField
	order SortOrder
}

// NewRecommendationSorter creates a sorter showing the newest first
func NewRecommendationSorter() *RecommendationSorter {
	return &RecommendationSorter{
		field: SortByTime,
		order: SortDescending,
	}
}

// Field returns the active sort field
func (s *RecommendationSorter) Field() SortField {
	return s.field
}

// Cycle advances to the next sort field
func (s *RecommendationSorter) Cycle() SortField {
	s.field = (s.field + 1) % 3
	return s.field
}

// Sort sorts the recommendations based on current settings. Pending ones
// always come before decided ones when sorting by status.
func (s *RecommendationSorter) Sort(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		var less bool

		switch s.field {
		case SortByTime:
			less = recs[i].ID < recs[j].ID
		case SortByConfidence:
			less = confidence(recs[i]) < confidence(recs[j])
		case SortByStatus:
			// Reversed so that descending puts pending first.
			less = statusRank(recs[i].Status) > statusRank(recs[j].Status)
		}

		if s.order == SortDescending {
			return !less && !equalKey(s.field, recs[i], recs[j])
		}
		return less
	})
}

func confidence(r model.Recommendation) float64 {
	if r.Confidence == nil {
		return -1
	}
	return *r.Confidence
}

func statusRank(status string) int {
	switch status {
	case model.RecommendationPending:
		return 0
	case model.RecommendationApproved:
		return 1
	default:
		return 2
	}
}

func equalKey(f SortField, a, b model.Recommendation) bool {
	switch f {
	case SortByConfidence:
		return confidence(a) == confidence(b)
	case SortByStatus:
		return statusRank(a.Status) == statusRank(b.Status)
	default:
		return a.ID == b.ID
	}
}
