package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
	"github.com/ternarybob/murmur/internal/services/classify"
	"github.com/ternarybob/murmur/internal/services/entities"
)

const (
	technicalPost   = "贵州茅台今日放量突破1800元平台，5日线与10日线形成金叉，成交额达到85亿元，换手率0.68%，短线强势格局明确。"
	fundamentalPost = "贵州茅台发布年报，全年净利润同比增长15.2%，营收达到1505亿元，董事会公告拟每10股分红276元，业绩超出市场预期。"
	technicalByCode = "600519今日放量突破1800元平台，5日线与10日线形成金叉，MACD红柱持续放大，成交额达到90亿元，短线强势。"
	spamPost        = "加微信进群，老师带盘荐股，必涨！"
	marketPost      = "今天大盘放量上涨，板块轮动明显，成交额突破万亿。"
)

type memStore struct {
	mu        sync.Mutex
	reports   map[string]*models.Report
	snapshots []*models.MentionSnapshot
}

func newMemStore() *memStore {
	return &memStore{reports: make(map[string]*models.Report)}
}

func (m *memStore) SaveReport(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.RunID] = report
	return nil
}

func (m *memStore) GetReport(ctx context.Context, runID string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[runID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return r, nil
}

func (m *memStore) ListReports(ctx context.Context, limit int) ([]*models.Report, error) {
	return nil, nil
}

func (m *memStore) SaveSnapshot(ctx context.Context, snapshot *models.MentionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

func (m *memStore) LatestSnapshot(ctx context.Context) (*models.MentionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return m.snapshots[len(m.snapshots)-1], nil
}

func goodFacts() interfaces.FactsProvider {
	return interfaces.FactsProviderFunc(func(ctx context.Context, entity models.Entity) (*models.Facts, error) {
		f := func(v float64) *float64 { return &v }
		yes := true
		return &models.Facts{
			Code:        entity.Code,
			FloatShares: f(10), FloatMarketValue: f(100), PE: f(20), PB: f(2),
			HasStateHolder: &yes, KDJState: "low", MACDState: "golden_cross",
		}, nil
	})
}

func newTestEngine(facts interfaces.FactsProvider, store interfaces.RunStorage) *Engine {
	pattern := entities.MustCodePattern(entities.DefaultPrefixes)
	resolver := entities.NewResolver(pattern, entities.DefaultTable(pattern))
	return NewEngine(DefaultConfig(), resolver, classify.Default(), facts, store, arbor.NewLogger())
}

func TestAnalyze(t *testing.T) {
	engine := newTestEngine(nil, nil)

	a := engine.Analyze(models.Post{ID: "p1", Text: technicalPost})
	require.Equal(t, OutcomeSignals, a.Outcome)
	require.Len(t, a.Signals, 1)
	assert.Equal(t, "600519", a.Signals[0].Entity.Code)
	assert.Equal(t, "贵州茅台", a.Signals[0].Entity.Name)
	assert.Equal(t, models.CategoryTechnical, a.Signals[0].Category)
	assert.Equal(t, 8, a.Signals[0].ValueScore)
	assert.NotEqual(t, "no explicit evidence", a.Signals[0].Evidence)

	b := engine.Analyze(models.Post{ID: "p2", Text: fundamentalPost})
	require.Len(t, b.Signals, 1)
	assert.Equal(t, models.CategoryFundamental, b.Signals[0].Category)
	assert.Equal(t, 8, b.Signals[0].ValueScore)

	assert.Equal(t, OutcomeNoise, engine.Analyze(models.Post{ID: "p3", Text: spamPost}).Outcome)
	assert.Equal(t, OutcomeUnresolved, engine.Analyze(models.Post{ID: "p4", Text: marketPost}).Outcome)
	assert.Equal(t, OutcomeUnclassified, engine.Analyze(models.Post{ID: "p5", Text: "贵州茅台今天怎么样，大家聊聊吧"}).Outcome)
}

func TestRunProducesVerifiedCandidate(t *testing.T) {
	engine := newTestEngine(goodFacts(), nil)

	report, err := engine.Run(context.Background(), []models.Post{
		{ID: "p1", Text: technicalPost},
		{ID: "p2", Text: fundamentalPost},
		{ID: "p3", Text: spamPost},
		{ID: "p4", Text: marketPost},
		{ID: "p5", Text: technicalPost}, // duplicate
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, models.RunStats{
		Posts: 5, Duplicates: 1, Noise: 1, Unresolved: 1, Signals: 2, Entities: 1,
	}, report.Stats)

	require.Len(t, report.Candidates, 1)
	c := report.Candidates[0]
	assert.Equal(t, "600519", c.Entity.Code)
	assert.Equal(t, 2, c.MentionCount)
	assert.Equal(t, 2, c.DistinctCategoryCount)
	assert.Equal(t, 2, c.HighValueSignalCount)
	assert.InDelta(t, 8*0.4+2*2, c.Composite, 1e-9)
	assert.Nil(t, c.MentionDelta)

	require.Len(t, report.Verified, 1)
	assert.Equal(t, 100, report.Verified[0].MatchScore)
	assert.Empty(t, report.Rejected)
}

func TestRunSingleCategoryIsNotACandidate(t *testing.T) {
	engine := newTestEngine(goodFacts(), nil)

	report, err := engine.Run(context.Background(), []models.Post{
		{ID: "p1", Text: technicalPost},
		{ID: "p2", Text: technicalByCode},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Signals)
	assert.Empty(t, report.Candidates)
	assert.Empty(t, report.Verified)
}

func TestRunEnglishWordsDoNotAddACategory(t *testing.T) {
	engine := newTestEngine(goodFacts(), nil)

	report, err := engine.Run(context.Background(), []models.Post{
		{ID: "p1", Text: technicalPost},
		{ID: "p2", Text: "600519 expected to open higher, analysts expect 15% upside toward the 1800 target, steps ahead of the market"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Signals)
	assert.Equal(t, 1, report.Stats.Unclassified)
	assert.Empty(t, report.Candidates)
	assert.Empty(t, report.Verified)
}

func TestRunWithoutFactsRejects(t *testing.T) {
	engine := newTestEngine(nil, nil)

	report, err := engine.Run(context.Background(), []models.Post{
		{ID: "p1", Text: technicalPost},
		{ID: "p2", Text: fundamentalPost},
	})
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	assert.Empty(t, report.Verified)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, 0, report.Rejected[0].MatchScore)
}

func TestRunEmptyBatch(t *testing.T) {
	engine := newTestEngine(nil, nil)

	report, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Candidates)
	assert.Equal(t, 0, report.Stats.Posts)
}

func TestRunMomentumAcrossRuns(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(goodFacts(), store)
	ctx := context.Background()

	first, err := engine.Run(ctx, []models.Post{
		{ID: "p1", Text: technicalPost},
		{ID: "p2", Text: fundamentalPost},
	})
	require.NoError(t, err)
	require.Len(t, first.Candidates, 1)
	assert.Nil(t, first.Candidates[0].MentionDelta)

	second, err := engine.Run(ctx, []models.Post{
		{ID: "p1", Text: technicalPost},
		{ID: "p2", Text: fundamentalPost},
		{ID: "p3", Text: technicalByCode},
	})
	require.NoError(t, err)
	require.Len(t, second.Candidates, 1)
	require.NotNil(t, second.Candidates[0].MentionDelta)
	assert.Equal(t, 1, *second.Candidates[0].MentionDelta)

	stored, err := store.GetReport(ctx, second.RunID)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, stored.RunID)
	assert.Len(t, store.snapshots, 2)
	assert.Equal(t, 3, store.snapshots[1].Mentions["600519"])
}

func TestRunCancelled(t *testing.T) {
	engine := newTestEngine(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, []models.Post{{ID: "p1", Text: technicalPost}})
	assert.ErrorIs(t, err, context.Canceled)
}
