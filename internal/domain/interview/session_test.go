package interview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicScoreAcceptsStringsAndObjects(t *testing.T) {
	var topics []TopicScore
	raw := `["Closures", {"topic":"Hooks","category":"React","score":71.6}, {"topic":"Grid"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &topics))
	require.Len(t, topics, 3)

	assert.Equal(t, TopicScore{Topic: "Closures", Score: ScoreUnknown}, topics[0])
	assert.Equal(t, TopicScore{Topic: "Hooks", Category: "React", Score: 72}, topics[1])
	assert.Equal(t, TopicScore{Topic: "Grid", Category: "General", Score: 55}, topics[2].Resolve(55))
	assert.Equal(t, 72, topics[1].Resolve(10).Score)
}

func TestStoredReportOnlyWhenCompleted(t *testing.T) {
	score := 64
	s := &Session{Status: StatusActive, Score: &score}
	assert.Nil(t, s.StoredReport())

	s.Status = StatusCompleted
	r := s.StoredReport()
	require.NotNil(t, r)
	assert.Equal(t, 64, r.Score)
	assert.NotNil(t, r.Strengths)
	assert.NotNil(t, r.TopicsEvaluated)
}
