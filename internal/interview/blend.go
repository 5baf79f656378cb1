package interview

import (
	"math"
	"sort"
	"strings"
	"time"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
)

const (
	// PriorWeight is the share of the existing mastery kept on each update.
	PriorWeight = 0.7
	// ObservationWeight is the share given to the newest session score.
	ObservationWeight = 0.3
)

func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Blend folds one observed score into an existing mastery level.
func Blend(current, score int) int {
	return Clamp(int(math.Round(PriorWeight*float64(current) + ObservationWeight*float64(score))))
}

// TopicKey is the case-folded identity of a canonical topic name.
func TopicKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// MasteryEstimate mirrors a persisted mastery record.
type MasteryEstimate struct {
	Topic         string    `json:"topic"`
	Category      string    `json:"category"`
	MasteryLevel  int       `json:"mastery_level"`
	SessionsCount int       `json:"sessions_count"`
	LastPracticed time.Time `json:"last_practiced"`
}

// ReconstructMastery replays the topic scores of completed sessions in
// chronological order with the same blend used for live updates. normalize
// maps raw topic names to canonical ones and may be nil.
func ReconstructMastery(sessions []*types.Session, normalize func(string) string) []MasteryEstimate {
	ordered := make([]*types.Session, 0, len(sessions))
	for _, s := range sessions {
		if s != nil && s.Status == types.StatusCompleted {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].StartedAt.Before(ordered[j].StartedAt) })

	byKey := map[string]*MasteryEstimate{}
	for _, s := range ordered {
		overall := 0
		if s.Score != nil {
			overall = *s.Score
		}
		practiced := s.StartedAt
		if s.CompletedAt != nil {
			practiced = *s.CompletedAt
		}
		for _, ts := range s.TopicsEvaluated {
			if ts.Topic == "" {
				continue
			}
			ts = ts.Resolve(overall)
			name := ts.Topic
			if normalize != nil {
				name = normalize(name)
			}
			key := TopicKey(name)
			cur, ok := byKey[key]
			if !ok {
				byKey[key] = &MasteryEstimate{
					Topic:         name,
					Category:      ts.Category,
					MasteryLevel:  Clamp(ts.Score),
					SessionsCount: 1,
					LastPracticed: practiced,
				}
				continue
			}
			cur.MasteryLevel = Blend(cur.MasteryLevel, ts.Score)
			cur.SessionsCount++
			cur.LastPracticed = practiced
		}
	}

	out := make([]MasteryEstimate, 0, len(byKey))
	for _, m := range byKey {
		out = append(out, *m)
	}
	SortMastery(out)
	return out
}

// SortMastery orders estimates by category then topic.
func SortMastery(in []MasteryEstimate) {
	sort.Slice(in, func(i, j int) bool {
		if in[i].Category != in[j].Category {
			return in[i].Category < in[j].Category
		}
		return in[i].Topic < in[j].Topic
	})
}
