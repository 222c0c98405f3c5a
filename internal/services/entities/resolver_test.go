package entities

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/models"
)

func newDefaultResolver() *Resolver {
	pattern := MustCodePattern(DefaultPrefixes)
	return NewResolver(pattern, DefaultTable(pattern))
}

func TestResolve(t *testing.T) {
	r := newDefaultResolver()

	tests := []struct {
		name string
		text string
		want []models.Entity
	}{
		{
			name: "name and code of the same entity resolve once",
			text: "山东黄金(600547)今天放量",
			want: []models.Entity{{Code: "600547", Name: "山东黄金"}},
		},
		{
			name: "name only",
			text: "紫金矿业回踩支撑",
			want: []models.Entity{{Code: "601899", Name: "紫金矿业"}},
		},
		{
			name: "unknown code keeps an empty name",
			text: "关注300999的走势",
			want: []models.Entity{{Code: "300999"}},
		},
		{
			name: "invalid prefix is ignored",
			text: "代码123456和900001都不是",
			want: []models.Entity{},
		},
		{
			name: "longer digit runs are not codes",
			text: "成交额1600547000元",
			want: []models.Entity{},
		},
		{
			name: "sorted by code",
			text: "中金黄金 和 贵州茅台 以及 000858",
			want: []models.Entity{
				{Code: "000858", Name: "五粮液"},
				{Code: "600489", Name: "中金黄金"},
				{Code: "600519", Name: "贵州茅台"},
			},
		},
		{
			name: "unknown names are dropped",
			text: "某某黄金要涨",
			want: []models.Entity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.text))
		})
	}
}

func TestLabels(t *testing.T) {
	got := Labels([]models.Entity{{Code: "600547", Name: "山东黄金"}, {Code: "300999"}})
	assert.Equal(t, []string{"山东黄金(600547)", "300999"}, got)
}

func TestNewCodePattern(t *testing.T) {
	_, err := NewCodePattern("")
	assert.Error(t, err)

	_, err = NewCodePattern("6x")
	assert.Error(t, err)

	p, err := NewCodePattern("6")
	require.NoError(t, err)
	assert.True(t, p.Valid("600547"))
	assert.False(t, p.Valid("000858"))
	assert.False(t, p.Valid("60054"))
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entities.yaml")
	content := `entities:
  - name: 山东黄金
    code: "600547"
  - name: 测试公司
    code: "999999"
  - name: 万科A
    code: "000002"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	pattern := MustCodePattern(DefaultPrefixes)
	table, err := LoadTable(path, pattern, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	code, ok := table.Code("万科A")
	assert.True(t, ok)
	assert.Equal(t, "000002", code)

	_, ok = table.Code("测试公司")
	assert.False(t, ok)
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"), MustCodePattern(DefaultPrefixes), arbor.NewLogger())
	assert.Error(t, err)
}
