package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	price, ok := Lookup("openai", "gpt-4o")
	require.True(t, ok)
	assert.Equal(t, 2.5, price.Input)
	assert.Equal(t, 10.0, price.Output)

	_, ok = Lookup("openai", "gpt-99")
	assert.False(t, ok)

	_, ok = Lookup("anthropic", "claude-3")
	assert.False(t, ok)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		usage    Usage
		want     float64
		priced   bool
	}{
		{
			name:     "百万输入加五十万输出",
			provider: "openai",
			model:    "gpt-4-turbo",
			usage:    Usage{PromptTokens: 1_000_000, CompletionTokens: 500_000},
			want:     25.0,
			priced:   true,
		},
		{
			name:     "零用量",
			provider: "openai",
			model:    "gpt-4o",
			usage:    Usage{},
			want:     0,
			priced:   true,
		},
		{
			name:     "小用量保留6位小数",
			provider: "openai",
			model:    "gpt-4o-mini",
			usage:    Usage{PromptTokens: 123, CompletionTokens: 456},
			// 123/1e6*0.15 + 456/1e6*0.6 = 0.00001845 + 0.0002736
			want:   0.000292,
			priced: true,
		},
		{
			name:     "未收录模型费用为0",
			provider: "openai",
			model:    "gpt-unknown",
			usage:    Usage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000},
			want:     0,
			priced:   false,
		},
		{
			name:     "未收录provider费用为0",
			provider: "bedrock",
			model:    "gpt-4o",
			usage:    Usage{PromptTokens: 1000},
			want:     0,
			priced:   false,
		},
		{
			name:     "gemini定价",
			provider: "gemini",
			model:    "gemini-1.5-pro",
			usage:    Usage{PromptTokens: 2_000_000, CompletionTokens: 1_000_000},
			want:     7.5,
			priced:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, priced := Calculate(tt.provider, tt.model, tt.usage)
			assert.Equal(t, tt.priced, priced)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCalculateDeterministic(t *testing.T) {
	usage := Usage{PromptTokens: 31_337, CompletionTokens: 7_331}
	first, ok := Calculate("openai", "gpt-4o", usage)
	require.True(t, ok)
	for i := 0; i < 100; i++ {
		got, _ := Calculate("openai", "gpt-4o", usage)
		assert.Equal(t, first, got)
	}
}

type costedRecord struct {
	cost float64
}

func (r costedRecord) CostValue() float64 { return r.cost }

func TestCalculateBatch(t *testing.T) {
	assert.Equal(t, 0.0, CalculateBatch([]costedRecord{}))
	assert.Equal(t, 0.0, CalculateBatch[costedRecord](nil))

	logs := []costedRecord{{cost: 0.01}, {cost: 0.02}, {cost: 0.000001}}
	assert.InDelta(t, 0.030001, CalculateBatch(logs), 1e-9)
}
