package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
)

func f64(v float64) *float64 { return &v }
func yes() *bool             { b := true; return &b }

func TestMatchScore(t *testing.T) {
	c := DefaultCriteria()

	tests := []struct {
		name  string
		facts *models.Facts
		want  int
	}{
		{
			name:  "nil facts fail every criterion",
			facts: nil,
			want:  0,
		},
		{
			name:  "empty facts fail every criterion",
			facts: &models.Facts{Code: "600547"},
			want:  0,
		},
		{
			name: "everything in the target bands",
			facts: &models.Facts{
				FloatShares: f64(10), FloatMarketValue: f64(100), PE: f64(20), PB: f64(2),
				HasStateHolder: yes(), KDJState: "low", MACDState: "golden_cross",
			},
			want: 100,
		},
		{
			name: "partial credit tiers",
			facts: &models.Facts{
				FloatShares: f64(18), FloatMarketValue: f64(250), PE: f64(40), PB: f64(4),
				StateHolders: []string{"香港中央结算有限公司", "中央汇金资产管理有限责任公司"},
				KDJState:     "高位", MACDState: "MACD金叉",
			},
			want: 10 + 10 + 8 + 8 + 20 + 0 + 5,
		},
		{
			name: "negative ratios fail",
			facts: &models.Facts{
				PE: f64(-12), PB: f64(0),
			},
			want: 0,
		},
		{
			name: "band edges are inclusive",
			facts: &models.Facts{
				FloatShares: f64(5), FloatMarketValue: f64(300),
			},
			want: 20 + 10,
		},
		{
			name: "ceilings are exclusive",
			facts: &models.Facts{
				PE: f64(30), PB: f64(5),
			},
			want: 8 + 0,
		},
		{
			name: "holders without a state-linked name",
			facts: &models.Facts{
				StateHolders: []string{"某私募基金"},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, breakdown := MatchScore(tt.facts, c)
			if got != tt.want {
				t.Errorf("MatchScore() = %d, want %d (breakdown: %+v)", got, tt.want, breakdown)
			}
			if got < 0 || got > 100 {
				t.Errorf("MatchScore() = %d out of range", got)
			}
			if len(breakdown) != 7 {
				t.Errorf("breakdown has %d criteria, want 7", len(breakdown))
			}
		})
	}
}

func TestMatchScoreClamped(t *testing.T) {
	c := DefaultCriteria()
	c.StateHolderPoints = 80
	got, _ := MatchScore(&models.Facts{
		FloatShares: f64(10), FloatMarketValue: f64(100), PE: f64(20), PB: f64(2),
		HasStateHolder: yes(), KDJState: "low", MACDState: "golden_cross",
	}, c)
	assert.Equal(t, 100, got)
}

func TestDefaultCriteriaMaxPoints(t *testing.T) {
	assert.Equal(t, 100, DefaultCriteria().MaxPoints())
}

func candidate(code string) models.Candidate {
	return models.Candidate{Entity: models.Entity{Code: code}, MentionCount: 2}
}

func TestVerify(t *testing.T) {
	good := &models.Facts{
		FloatShares: f64(10), FloatMarketValue: f64(100), PE: f64(20), PB: f64(2),
		HasStateHolder: yes(),
	}
	weak := &models.Facts{PE: f64(20)}

	provider := interfaces.FactsProviderFunc(func(ctx context.Context, e models.Entity) (*models.Facts, error) {
		switch e.Code {
		case "600001":
			return good, nil
		case "600002":
			return weak, nil
		case "600003":
			return nil, errors.New("upstream 503")
		case "600004":
			<-ctx.Done()
			return nil, ctx.Err()
		case "600005":
			// Ignores its context entirely
			time.Sleep(2 * time.Second)
			return good, nil
		case "600007":
			return good, nil
		}
		return nil, nil
	})

	cfg := DefaultConfig()
	cfg.FetchTimeout = 50 * time.Millisecond
	v := NewVerifier(provider, cfg, arbor.NewLogger())

	started := time.Now()
	result := v.Verify(context.Background(), []models.Candidate{
		candidate("600001"),
		candidate("600002"),
		candidate("600003"),
		candidate("600004"),
		candidate("600005"),
		candidate("600006"),
		candidate("600007"),
	})
	assert.Less(t, time.Since(started), time.Second)

	require.Len(t, result.Retained, 2)
	assert.Equal(t, "600001", result.Retained[0].Entity.Code)
	assert.Equal(t, "600007", result.Retained[1].Entity.Code)
	assert.Equal(t, 90, result.Retained[0].MatchScore)

	require.Len(t, result.Rejected, 5)
	codes := make([]string, len(result.Rejected))
	for i, r := range result.Rejected {
		codes[i] = r.Entity.Code
	}
	assert.Equal(t, []string{"600002", "600003", "600004", "600005", "600006"}, codes)

	assert.Equal(t, 15, result.Rejected[0].MatchScore)
	assert.Empty(t, result.Rejected[0].Annotations)

	for _, r := range result.Rejected[1:] {
		assert.Equal(t, 0, r.MatchScore, r.Entity.Code)
		assert.Nil(t, r.Facts, r.Entity.Code)
		require.Len(t, r.Annotations, 1, r.Entity.Code)
		assert.Contains(t, r.Annotations[0], "facts unavailable")
	}
}

func TestVerifyWithoutProvider(t *testing.T) {
	v := NewVerifier(nil, DefaultConfig(), arbor.NewLogger())
	result := v.Verify(context.Background(), []models.Candidate{candidate("600547")})

	assert.Empty(t, result.Retained)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0].Annotations[0], ErrNoProvider.Error())
}

func TestVerifyEmpty(t *testing.T) {
	v := NewVerifier(nil, DefaultConfig(), arbor.NewLogger())
	result := v.Verify(context.Background(), nil)
	assert.Empty(t, result.Retained)
	assert.Empty(t, result.Rejected)
}

func TestVerifyPanickingProvider(t *testing.T) {
	provider := interfaces.FactsProviderFunc(func(ctx context.Context, e models.Entity) (*models.Facts, error) {
		panic("boom")
	})
	v := NewVerifier(provider, DefaultConfig(), arbor.NewLogger())
	result := v.Verify(context.Background(), []models.Candidate{candidate("600547")})

	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0].Annotations[0], "panic")
}
