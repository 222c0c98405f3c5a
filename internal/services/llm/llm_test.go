package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/common"
)

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"plain", `{"sentiment_index": 72, "sentiment_label": "乐观"}`, 72, false},
		{"fenced", "```json\n{\"sentiment_index\": 35.5}\n```", 35.5, false},
		{"prose around", "分析如下：{\"sentiment_index\": \"64\"} 以上。", 64, false},
		{"clamped high", `{"sentiment_index": 130}`, 100, false},
		{"clamped low", `{"sentiment_index": -5}`, 0, false},
		{"missing index", `{"sentiment_label": "中性"}`, 0, true},
		{"null index", `{"sentiment_index": null}`, 0, true},
		{"text index", `{"sentiment_index": "high"}`, 0, true},
		{"no json", "内容不足，无法判断", 0, true},
		{"broken json", `{"sentiment_index": 50`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSentiment(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Index)
		})
	}
}

func TestParseSentimentFields(t *testing.T) {
	got, err := ParseSentiment(`{"sentiment_index": 58, "sentiment_label": " 中性偏多 ",
		"risk_points": ["美元走强"], "opportunity_points": ["降息预期"], "summary": "观望为主"}`)
	require.NoError(t, err)
	assert.Equal(t, "中性偏多", got.Label)
	assert.Equal(t, []string{"美元走强"}, got.RiskPoints)
	assert.Equal(t, []string{"降息预期"}, got.OpportunityPoints)
	assert.Equal(t, "观望为主", got.Summary)

	_, err = ParseSentiment(`{"summary": "x"}`)
	assert.ErrorIs(t, err, ErrNoSentiment)
}

func TestBuildUserPrompt(t *testing.T) {
	prompt, n := BuildUserPrompt([]string{"第一条", "  ", "第二条很长很长很长", "第三条"}, PromptConfig{MaxTexts: 2, MaxTextRunes: 5})
	assert.Equal(t, 2, n)
	assert.Contains(t, prompt, "【帖子1】\n第一条")
	assert.Contains(t, prompt, "【帖子2】\n第二条很长…")
	assert.NotContains(t, prompt, "第三条")

	_, n = BuildUserPrompt(nil, DefaultPromptConfig())
	assert.Equal(t, 0, n)
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: quota. Please retry in 45.5s., Status: RESOURCE_EXHAUSTED")
	assert.True(t, IsRateLimitError(err))
	assert.Equal(t, 45500*time.Millisecond, ExtractRetryDelay(err))

	assert.False(t, IsRateLimitError(errors.New("connection reset")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no delay here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()
	assert.Equal(t, 20*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 30*time.Second, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 15*time.Second, cfg.CalculateBackoff(0, 10*time.Second))
	assert.Equal(t, 90*time.Second, cfg.CalculateBackoff(10, 0))
}

type fakeCompleter struct {
	calls     atomic.Int32
	failFirst int32
	response  string
	lastUser  string
}

func (f *fakeCompleter) complete(ctx context.Context, system, user string) (string, error) {
	n := f.calls.Add(1)
	f.lastUser = user
	if n <= f.failFirst {
		return "", fmt.Errorf("temporary failure %d", n)
	}
	return f.response, nil
}

func newTestScorer(fc *fakeCompleter, retries int) *Scorer {
	s := newScorer("fake", "fake-model", fc, &common.LLMConfig{MaxTexts: 10, MaxTextRunes: 100, MaxRetries: retries}, "5s", arbor.NewLogger())
	s.retry.ErrorBackoff = time.Millisecond
	return s
}

func TestScorerRetriesThenScores(t *testing.T) {
	fc := &fakeCompleter{failFirst: 2, response: "```json\n{\"sentiment_index\": 66, \"sentiment_label\": \"乐观\"}\n```"}
	scorer := newTestScorer(fc, 3)

	score, err := scorer.Score(context.Background(), []string{"黄金突破新高", "央行继续增持"})
	require.NoError(t, err)
	assert.Equal(t, 66.0, score)
	assert.Equal(t, int32(3), fc.calls.Load())
	assert.True(t, strings.Contains(fc.lastUser, "央行继续增持"))
	assert.Equal(t, "fake", scorer.Name())
}

func TestScorerGivesUp(t *testing.T) {
	fc := &fakeCompleter{failFirst: 10}
	scorer := newTestScorer(fc, 1)

	_, err := scorer.Score(context.Background(), []string{"黄金"})
	require.Error(t, err)
	assert.Equal(t, int32(2), fc.calls.Load())
}

func TestScorerNoTexts(t *testing.T) {
	fc := &fakeCompleter{response: `{"sentiment_index": 50}`}
	scorer := newTestScorer(fc, 0)

	_, err := scorer.Score(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, ErrNoTexts)
	assert.Equal(t, int32(0), fc.calls.Load())
}

func TestScorerUnparseableResponse(t *testing.T) {
	fc := &fakeCompleter{response: "内容不足，无法判断"}
	scorer := newTestScorer(fc, 0)

	_, err := scorer.Score(context.Background(), []string{"黄金"})
	assert.ErrorIs(t, err, ErrNoSentiment)
}

func TestNewScorer(t *testing.T) {
	logger := arbor.NewLogger()
	cfg := common.NewDefaultConfig()

	scorer, err := NewScorer(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, scorer)

	cfg.LLM.DefaultProvider = "openai"
	_, err = NewScorer(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "unsupported LLM provider")

	t.Setenv("MURMUR_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg.LLM.DefaultProvider = common.LLMProviderClaude
	_, err = NewScorer(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "Anthropic API key is required")

	cfg.Claude.APIKey = "test-key"
	scorer, err = NewScorer(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, ClaudeProvider, scorer.Name())
	assert.Equal(t, "claude-haiku-4-5", scorer.Model())
	assert.Equal(t, 60*time.Second, scorer.timeout)
}
