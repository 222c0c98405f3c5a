package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt instructs the model to score only what the posts say
const SystemPrompt = `你是一位行为金融学专家，请分析这些社交媒体帖子，给出市场看涨情绪指数。

规则：
1. 只能根据提供的帖子内容进行分析，禁止编造任何内容、新闻或事件
2. 如果内容不足以判断情绪，请在summary中说明"内容不足，无法判断"
3. 风险点和机会点必须从帖子中提取，如果没有则说明"未提及"
4. 如果帖子主要是广告或无关内容，请在data_quality_note中说明

情绪指数（0-100）：
- 0-20: 极度悲观
- 21-40: 悲观
- 41-60: 中性
- 61-80: 乐观
- 81-100: 极度乐观

请只输出JSON：
{
    "sentiment_index": 数值(0-100),
    "sentiment_label": "情绪标签",
    "risk_points": ["风险点"],
    "opportunity_points": ["机会点"],
    "summary": "一句话总结",
    "data_quality_note": "数据质量说明"
}`

// PromptConfig bounds the user prompt
type PromptConfig struct {
	MaxTexts     int
	MaxTextRunes int
}

// DefaultPromptConfig returns the default prompt bounds
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{MaxTexts: 50, MaxTextRunes: 200}
}

// BuildUserPrompt numbers the first MaxTexts non-empty texts, each
// truncated to MaxTextRunes. The second result is how many were included.
func BuildUserPrompt(texts []string, cfg PromptConfig) (string, int) {
	var b strings.Builder
	b.WriteString("请分析以下帖子内容：\n")

	n := 0
	for _, text := range texts {
		if cfg.MaxTexts > 0 && n >= cfg.MaxTexts {
			break
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if cfg.MaxTextRunes > 0 {
			if r := []rune(text); len(r) > cfg.MaxTextRunes {
				text = string(r[:cfg.MaxTextRunes]) + "…"
			}
		}
		n++
		fmt.Fprintf(&b, "\n---\n【帖子%d】\n%s\n", n, text)
	}
	return b.String(), n
}
