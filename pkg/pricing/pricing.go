package pricing

import "math"

// Price 模型定价，单位：美元/百万token
type Price struct {
	Input  float64 `json:"input"`  // 每百万输入token价格
	Output float64 `json:"output"` // 每百万输出token价格
}

// Usage 单次调用的token用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// table 静态定价表，按 [provider][model] 索引。
// 价格调整需要重新部署，运行时只读。
var table = map[string]map[string]Price{
	"openai": {
		"gpt-4o":        {Input: 2.5, Output: 10},
		"gpt-4o-mini":   {Input: 0.15, Output: 0.6},
		"gpt-4-turbo":   {Input: 10, Output: 30},
		"gpt-4":         {Input: 30, Output: 60},
		"gpt-3.5-turbo": {Input: 0.5, Output: 1.5},
		"o1":            {Input: 15, Output: 60},
		"o1-mini":       {Input: 1.1, Output: 4.4},
	},
	"gemini": {
		"gemini-2.0-flash":    {Input: 0.1, Output: 0.4},
		"gemini-1.5-pro":      {Input: 1.25, Output: 5},
		"gemini-1.5-flash":    {Input: 0.075, Output: 0.3},
		"gemini-1.5-flash-8b": {Input: 0.0375, Output: 0.15},
	},
}

// Lookup 查询指定模型的定价，未收录的模型返回 false
func Lookup(provider, model string) (Price, bool) {
	models, ok := table[provider]
	if !ok {
		return Price{}, false
	}
	price, ok := models[model]
	return price, ok
}

// Calculate 计算单次调用的费用（美元），保留6位小数。
// 定价表中不存在的 provider/model 返回 (0, false)，不视为错误，
// 新模型上线不应导致调用方失败。
// token数不做校验，负数输入产生负数费用。
func Calculate(provider, model string, usage Usage) (float64, bool) {
	price, ok := Lookup(provider, model)
	if !ok {
		return 0, false
	}

	cost := float64(usage.PromptTokens)/1e6*price.Input +
		float64(usage.CompletionTokens)/1e6*price.Output
	return round6(cost), true
}

// Costed 已持久化费用的记录
type Costed interface {
	CostValue() float64
}

// CalculateBatch 汇总一批日志上已存储的费用字段，不根据token重算。
// 空列表返回 0。
func CalculateBatch[T Costed](logs []T) float64 {
	var total float64
	for _, l := range logs {
		total += l.CostValue()
	}
	return round6(total)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
