package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/murmur/internal/services/evidence"
)

// Score bounds
const (
	MinScore = 1
	MaxScore = 10
)

// Additive rule points
const (
	PointsCategory        = 3
	PointsConcrete        = 2
	PointsEvidenceLong    = 1 // evidence longer than EvidenceLongRunes
	PointsEvidenceLonger  = 1 // evidence longer than EvidenceLongerRunes
	PointsManyNumbers     = 2 // >= ManyNumbers distinct numeric tokens
	PointsSomeNumbers     = 1
	PointsProfessional    = 1 // >= ProfessionalTermCount distinct terms
	EvidenceLongRunes     = 50
	EvidenceLongerRunes   = 100
	ManyNumbers           = 3
	ProfessionalTermCount = 3
)

var numericToken = regexp.MustCompile(`\d+\.?\d*%?`)

// ProfessionalTerms are analyst vocabulary that signals a reasoned post
var ProfessionalTerms = []string{
	"突破", "支撑", "压力", "主力", "机构", "业绩",
	"公告", "政策", "行业", "龙头", "资金流入", "净流入",
}

// Result is a value score with the rule lines that produced it
type Result struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Score rates how concrete and grounded a post is, in [1,10].
//
// +3 at least one category matched
// +2 concrete evidence, +1 if longer than 50 chars, +1 more if longer than 100
// +2 for 3 or more distinct numbers, +1 for 1-2
// +1 for 3 or more distinct professional terms
func Score(text string, categoryCount int, evidenceText string) Result {
	total := 0
	var reasons []string

	if categoryCount > 0 {
		total += PointsCategory
		reasons = append(reasons, fmt.Sprintf("+%d category matched", PointsCategory))
	}

	if evidence.IsConcrete(evidenceText) {
		total += PointsConcrete
		reasons = append(reasons, fmt.Sprintf("+%d concrete evidence", PointsConcrete))

		length := len([]rune(evidenceText))
		if length > EvidenceLongRunes {
			total += PointsEvidenceLong
			reasons = append(reasons, fmt.Sprintf("+%d evidence > %d chars", PointsEvidenceLong, EvidenceLongRunes))
		}
		if length > EvidenceLongerRunes {
			total += PointsEvidenceLonger
			reasons = append(reasons, fmt.Sprintf("+%d evidence > %d chars", PointsEvidenceLonger, EvidenceLongerRunes))
		}
	}

	switch numbers := DistinctNumbers(text); {
	case numbers >= ManyNumbers:
		total += PointsManyNumbers
		reasons = append(reasons, fmt.Sprintf("+%d %d distinct numbers", PointsManyNumbers, numbers))
	case numbers > 0:
		total += PointsSomeNumbers
		reasons = append(reasons, fmt.Sprintf("+%d %d distinct numbers", PointsSomeNumbers, numbers))
	}

	if terms := DistinctTerms(text, ProfessionalTerms); terms >= ProfessionalTermCount {
		total += PointsProfessional
		reasons = append(reasons, fmt.Sprintf("+%d %d professional terms", PointsProfessional, terms))
	}

	return Result{Score: Clamp(total, MinScore, MaxScore), Reasons: reasons}
}

// Value is Score without the explanation
func Value(text string, categoryCount int, evidenceText string) int {
	return Score(text, categoryCount, evidenceText).Score
}

// DistinctNumbers counts distinct numeric tokens such as 12, 3.5 or 45%
func DistinctNumbers(text string) int {
	seen := make(map[string]bool)
	for _, tok := range numericToken.FindAllString(text, -1) {
		seen[tok] = true
	}
	return len(seen)
}

// DistinctTerms counts how many terms appear in text
func DistinctTerms(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}

// Clamp constrains value to [min, max]
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
