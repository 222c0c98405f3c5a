package noise

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ternarybob/murmur/internal/common"
)

// Family groups promotional phrases by intent
type Family string

const (
	FamilyMarketing Family = "marketing"
	FamilyContact   Family = "contact"
	FamilyHype      Family = "hype"
)

// Config holds the phrase tables and thresholds for the filter
type Config struct {
	Marketing      []string
	Contact        []string
	Hype           []string
	LowInformation []string // stripped before measuring informative length

	MinInformativeRunes int // short-text threshold
	MaxPromoHits        int // distinct promotional phrases that mark a post as spam
}

// DefaultConfig returns the phrase tables observed on stock forums and
// social feeds
func DefaultConfig() Config {
	return Config{
		Marketing: []string{
			"抽奖", "转运珠", "代购", "微商", "扫码", "优惠", "促销", "打折",
			"秒杀", "拼团", "砍价", "免费领", "限时", "特价", "包邮", "直播间",
			"带盘", "荐股", "推荐股票", "内幕消息", "收费",
		},
		Contact: []string{
			"加微信", "加v", "加vx", "微信号", "qq", "电话", "联系方式",
			"老师", "进群", "加群", "私信",
		},
		Hype: []string{
			"必涨", "必跌", "翻倍", "十倍股", "妖股", "要起飞", "上天", "入地",
			"梭哈", "满仓", "涨涨涨", "跌跌跌", "冲冲冲", "牛逼", "666",
			"割韭菜", "完了", "凉了",
		},
		LowInformation: []string{
			"看涨", "看跌", "垃圾", "牛逼", "666", "哈哈", "呵呵",
			"涨涨涨", "跌跌跌", "冲冲冲", "完了", "凉了",
		},
		MinInformativeRunes: 10,
		MaxPromoHits:        3,
	}
}

type phrase struct {
	text   string
	family Family
}

// Filter is a pure predicate over post text. Safe for concurrent use.
type Filter struct {
	phrases             []phrase
	lowInformation      []string
	minInformativeRunes int
	maxPromoHits        int
}

// Verdict explains a keep/discard decision
type Verdict struct {
	Keep             bool     `json:"keep"`
	Reason           string   `json:"reason,omitempty"`
	PromoHits        int      `json:"promo_hits"`
	HypeHits         int      `json:"hype_hits"`
	Matched          []string `json:"matched,omitempty"`
	InformativeRunes int      `json:"informative_runes"`
}

// NewFilter builds a filter, lower-casing and de-duplicating phrases.
// A phrase listed in several families counts once, under the first family.
func NewFilter(cfg Config) *Filter {
	seen := make(map[string]bool)
	var phrases []phrase
	add := func(list []string, family Family) {
		for _, p := range list {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			phrases = append(phrases, phrase{text: p, family: family})
		}
	}
	add(cfg.Marketing, FamilyMarketing)
	add(cfg.Contact, FamilyContact)
	add(cfg.Hype, FamilyHype)

	lowInfo := make([]string, 0, len(cfg.LowInformation))
	for _, p := range cfg.LowInformation {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowInfo = append(lowInfo, p)
		}
	}

	if cfg.MaxPromoHits <= 0 {
		cfg.MaxPromoHits = 3
	}

	return &Filter{
		phrases:             phrases,
		lowInformation:      lowInfo,
		minInformativeRunes: cfg.MinInformativeRunes,
		maxPromoHits:        cfg.MaxPromoHits,
	}
}

// Check classifies text as signal or noise.
//
// Discard rules:
// - distinct promotional phrases (all families) >= MaxPromoHits
// - informative length < MinInformativeRunes and at least one hype phrase
func (f *Filter) Check(text string) Verdict {
	lower := strings.ToLower(text)

	v := Verdict{}
	for _, p := range f.phrases {
		if common.ContainsTerm(lower, p.text) {
			v.PromoHits++
			v.Matched = append(v.Matched, p.text)
			if p.family == FamilyHype {
				v.HypeHits++
			}
		}
	}
	v.InformativeRunes = f.informativeLength(lower)

	switch {
	case v.PromoHits >= f.maxPromoHits:
		v.Reason = fmt.Sprintf("%d promotional phrases", v.PromoHits)
	case v.HypeHits > 0 && v.InformativeRunes < f.minInformativeRunes:
		v.Reason = fmt.Sprintf("hype with only %d informative characters", v.InformativeRunes)
	default:
		v.Keep = true
	}
	return v
}

// Keep reports whether text carries enough signal to process
func (f *Filter) Keep(text string) bool {
	return f.Check(text).Keep
}

// informativeLength counts letters and digits left after removing
// low-information phrases. Digits inside a code like 600666 are kept.
func (f *Filter) informativeLength(lower string) int {
	cleaned := lower
	for _, p := range f.lowInformation {
		cleaned = common.RemoveTerm(cleaned, p)
	}
	n := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			n++
		}
	}
	return n
}
