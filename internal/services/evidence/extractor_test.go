package evidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	technical   = []string{"放量", "突破", "支撑", "回踩"}
	positioning = []string{"主力", "净流入", "机构"}
)

func TestExtract(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := "山东黄金今天放量突破平台压力位。主力资金持续净流入，机构在买！短评。业绩很好但和技术无关的一句话在这里"

	assert.Equal(t, "山东黄金今天放量突破平台压力位", e.Extract(text, technical))
	assert.Equal(t, "主力资金持续净流入，机构在买", e.Extract(text, positioning))
}

func TestExtractSentinel(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	// Keyword present but the sentence is too short to count
	assert.Equal(t, NoEvidence, e.Extract("放量！", technical))
	assert.Equal(t, NoEvidence, e.Extract("", technical))
	assert.False(t, IsConcrete(NoEvidence))
	assert.True(t, IsConcrete("放量突破"))
}

func TestExtractBounds(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := strings.Join([]string{
		"第一句话里提到了放量的情况",
		"第二句话里提到了突破的情况",
		"第二句话里提到了突破的情况",
		"第三句话里提到了支撑的情况",
		"第四句话里提到了回踩的情况",
	}, "；")

	got := e.Fragments(text, technical)
	assert.Equal(t, []string{
		"第一句话里提到了放量的情况",
		"第二句话里提到了突破的情况",
		"第三句话里提到了支撑的情况",
	}, got)
	assert.Equal(t, strings.Join(got, Separator), e.Extract(text, technical))
}

func TestExtractTruncates(t *testing.T) {
	e := NewExtractor(Config{MaxFragments: 3, MinFragmentRunes: 10, MaxFragmentRunes: 20})
	long := "放量" + strings.Repeat("很", 30)

	got := e.Extract(long, technical)
	assert.Equal(t, 21, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("第一句。第二句!第三句？\n  第四句 ;;")
	assert.Equal(t, []string{"第一句", "第二句", "第三句", "第四句"}, got)
}

func TestExtractLatinKeywordsMatchWholeWords(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	fundamental := []string{"pe", "eps"}

	assert.Equal(t, NoEvidence, e.Extract("Analysts expect a strong open today, steps ahead", fundamental))
	assert.Equal(t, "PE仅12倍，估值处于历史低位",
		e.Extract("Analysts expect a strong open today。PE仅12倍，估值处于历史低位", fundamental))
}
