package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Athena/internal/knowledge/schema"
	"Athena/pkg/logger"
)

func newTestCache(t *testing.T) (*AnswerCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewAnswerCache(rdb, time.Hour, logger.New("test")), mr
}

func answerWithConfidence(confidence float64) *schema.Answer {
	text := "Twenty days of paid leave per year."
	return &schema.Answer{
		Answer:     &text,
		Sources:    []schema.Source{{DocumentName: "handbook.md", RelevantExcerpt: "twenty days"}},
		Confidence: confidence,
	}
}

func TestKeyIsInvariantToDocumentOrder(t *testing.T) {
	a := Key("tenant-1", "What is the vacation policy?", []string{"doc-a", "doc-b"})
	b := Key("tenant-1", "What is the vacation policy?", []string{"doc-b", "doc-a"})
	assert.Equal(t, a, b)
}

func TestKeyDistinguishesTenantQuestionAndDocuments(t *testing.T) {
	base := Key("tenant-1", "What is the vacation policy?", []string{"doc-a"})

	assert.NotEqual(t, base, Key("tenant-2", "What is the vacation policy?", []string{"doc-a"}))
	assert.NotEqual(t, base, Key("tenant-1", "What is the expense policy?", []string{"doc-a"}))
	assert.NotEqual(t, base, Key("tenant-1", "What is the vacation policy?", []string{"doc-b"}))
}

func TestPutAndGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	answer := answerWithConfidence(0.95)
	require.NoError(t, c.Put(ctx, "tenant-1", "What is the vacation policy?", []string{"doc-a", "doc-b"}, answer, 0))

	// Retrieval order of the fragment set must not matter.
	got, err := c.Get(ctx, "tenant-1", "What is the vacation policy?", []string{"doc-b", "doc-a"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, answer.Answer, got.Answer)
	assert.Equal(t, answer.Confidence, got.Confidence)
	assert.Equal(t, answer.Sources, got.Sources)
}

func TestGetMissIsNotAnError(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), "tenant-1", "Anything?", []string{"doc-a"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "tenant-1", "What is the expense policy?", []string{"doc-a"}, answerWithConfidence(0.9), time.Minute))

	got, err := c.Get(ctx, "tenant-1", "What is the expense policy?", []string{"doc-a"})
	require.NoError(t, err)
	require.NotNil(t, got)

	mr.FastForward(2 * time.Minute)

	got, err = c.Get(ctx, "tenant-1", "What is the expense policy?", []string{"doc-a"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLowConfidenceAnswerIsNotAdmitted(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "tenant-1", "What is the travel policy?", []string{"doc-a"}, answerWithConfidence(0.69), 0))

	got, err := c.Get(ctx, "tenant-1", "What is the travel policy?", []string{"doc-a"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsufficientContextAnswerIsNotAdmitted(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	answer := answerWithConfidence(0.9)
	answer.InsufficientContext = true
	require.NoError(t, c.Put(ctx, "tenant-1", "What is the travel policy?", []string{"doc-a"}, answer, 0))

	got, err := c.Get(ctx, "tenant-1", "What is the travel policy?", []string{"doc-a"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPersonalQuestionIsNotAdmitted(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "tenant-1", "What is my vacation policy?", []string{"doc-a"}, answerWithConfidence(0.9), 0))

	got, err := c.Get(ctx, "tenant-1", "What is my vacation policy?", []string{"doc-a"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAdmissible(t *testing.T) {
	cases := []struct {
		name     string
		question string
		answer   *schema.Answer
		want     bool
	}{
		{"high confidence neutral question", "What is the vacation policy?", answerWithConfidence(0.95), true},
		{"confidence below threshold", "What is the vacation policy?", answerWithConfidence(0.69), false},
		{"time marker today", "What meetings are scheduled today?", answerWithConfidence(0.95), false},
		{"time marker latest", "What is the LATEST security advisory?", answerWithConfidence(0.95), false},
		{"time marker deadline", "When is the filing deadline?", answerWithConfidence(0.95), false},
		{"personal marker", "How many vacation days do I have left?", answerWithConfidence(0.95), false},
		{"nil answer", "What is the vacation policy?", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Admissible(tc.question, tc.answer))
		})
	}
}
