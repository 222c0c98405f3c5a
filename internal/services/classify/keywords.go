package classify

import "github.com/ternarybob/murmur/internal/models"

// KeywordFamily is a named group of related keywords within one category
type KeywordFamily struct {
	Name     string
	Keywords []string
}

// DefaultFamilies returns the keyword families per category. Keywords are
// disjoint across categories and across families.
func DefaultFamilies() map[models.Category][]KeywordFamily {
	return map[models.Category][]KeywordFamily{
		models.CategoryTechnical: {
			{Name: "moving_average", Keywords: []string{
				"均线", "5日线", "10日线", "20日线", "30日线", "60日线", "120日线", "250日线",
				"金叉", "死叉", "多头排列", "空头排列", "均线粘合", "均线发散",
			}},
			{Name: "volume", Keywords: []string{
				"放量", "缩量", "天量", "地量", "量价齐升", "量价背离", "成交量突破",
				"换手率", "成交额", "巨量", "温和放量", "堆量",
			}},
			{Name: "macd", Keywords: []string{
				"macd", "红柱", "绿柱", "dif", "dea", "macd金叉", "macd背离", "零轴",
				"水上金叉", "水下金叉",
			}},
			{Name: "kdj", Keywords: []string{
				"kdj", "k线", "d线", "j线", "kdj金叉", "kdj钝化", "超买", "超卖",
			}},
			{Name: "pattern", Keywords: []string{
				"突破", "回踩", "支撑", "压力", "箱体", "三角形", "头肩顶", "头肩底",
				"双底", "双顶", "w底", "m顶", "圆弧底", "平台突破", "缺口",
			}},
			{Name: "trend", Keywords: []string{
				"上涨趋势", "下跌趋势", "震荡", "盘整", "拉升", "回调", "反弹", "反转",
				"新高", "新低", "强势", "弱势",
			}},
		},
		models.CategoryPositioning: {
			{Name: "block_orders", Keywords: []string{
				"大单", "主力", "机构", "游资", "北向资金", "外资", "大资金", "主力资金",
				"净流入", "净流出", "大单买入", "大单卖出",
			}},
			{Name: "market_maker", Keywords: []string{
				"庄家", "坐庄", "洗盘", "吸筹", "出货", "砸盘", "护盘", "控盘",
				"建仓", "减仓", "对敲", "对倒",
			}},
			{Name: "state_funds", Keywords: []string{
				"国家队", "社保", "汇金", "证金", "养老金", "国资委", "央企", "国企",
				"社保基金", "中央汇金", "证金公司",
			}},
			{Name: "chips", Keywords: []string{
				"筹码", "筹码集中", "筹码分散", "筹码峰", "获利盘", "套牢盘", "浮筹",
				"锁仓", "解套", "割肉",
			}},
			{Name: "capital_flow", Keywords: []string{
				"资金流向", "资金面", "融资", "融券", "两融", "杠杆", "配资", "抄底",
				"逃顶", "加仓",
			}},
		},
		models.CategoryFundamental: {
			{Name: "earnings", Keywords: []string{
				"业绩", "财报", "营收", "利润", "净利润", "增长", "同比", "环比",
				"业绩预告", "业绩快报", "年报", "季报", "中报", "eps", "pe", "pb",
			}},
			{Name: "policy", Keywords: []string{
				"政策", "利好", "利空", "扶持", "补贴", "税收", "监管", "改革", "规划",
				"产业政策", "国家政策", "地方政策",
			}},
			{Name: "industry", Keywords: []string{
				"行业", "板块", "赛道", "风口", "景气度", "周期", "产业链", "上游",
				"下游", "龙头", "细分领域",
			}},
			{Name: "filings", Keywords: []string{
				"公告", "重组", "并购", "收购", "增持", "回购", "分红", "送转", "定增",
				"配股", "停牌", "复牌", "中标", "合同",
			}},
			{Name: "events", Keywords: []string{
				"突发", "黑天鹅", "利好消息", "利空消息", "重大事项", "重大合同", "订单",
				"产能", "扩产", "投产", "研发", "新品",
			}},
		},
	}
}
