package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

func testCards() []CardView {
	return []CardView{
		{
			Name: "The Fool", NameZh: "愚者", Position: 1, IsReversed: false,
			MeaningUpright: "New beginnings", MeaningReversed: "Recklessness",
			MeaningUprightZh: "新的开始", MeaningReversedZh: "鲁莽",
		},
		{
			Name: "The Tower", NameZh: "高塔", Position: 2, IsReversed: true,
			MeaningUpright: "Sudden upheaval", MeaningReversed: "Averted disaster",
			MeaningUprightZh: "突变", MeaningReversedZh: "灾难暂避",
		},
		{
			Name: "The Sun", NameZh: "太阳", Position: 3, IsReversed: false,
			MeaningUpright: "Joy", MeaningReversed: "Dimmed optimism",
			MeaningUprightZh: "喜悦", MeaningReversedZh: "乐观受挫",
		},
	}
}

func TestBuildPrompt_English(t *testing.T) {
	prompt := BuildPrompt(testCards(), "Will my career improve?", domain.LanguageEN)

	require.Contains(t, prompt, `"Will my career improve?"`)
	require.Contains(t, prompt, "Past: The Fool (Upright)")
	require.Contains(t, prompt, "Present: The Tower (Reversed)")
	require.Contains(t, prompt, "Future: The Sun (Upright)")
	require.Contains(t, prompt, "Meaning: Averted disaster")
	require.NotContains(t, prompt, "Sudden upheaval")
	require.Contains(t, prompt, "respond in English")
}

func TestBuildPrompt_Chinese(t *testing.T) {
	prompt := BuildPrompt(testCards(), "我的事业会好转吗？", domain.LanguageZH)

	require.Contains(t, prompt, "我的事业会好转吗？")
	require.Contains(t, prompt, "过去：愚者（正位）")
	require.Contains(t, prompt, "现在：高塔（逆位）")
	require.Contains(t, prompt, "未来：太阳（正位）")
	require.Contains(t, prompt, "牌义：灾难暂避")
	require.Contains(t, prompt, "请用中文回复")
}

func TestViewFromDrawn(t *testing.T) {
	d := domain.DrawnCardDetail{
		DrawnCard: domain.DrawnCard{Position: 2, IsReversed: true},
		Card: domain.TarotCard{
			Name: "Death", NameZh: "死神",
			MeaningUpright: "Endings", MeaningReversed: "Stagnation",
		},
	}
	v := ViewFromDrawn(d)
	require.Equal(t, "Death", v.Name)
	require.Equal(t, 2, v.Position)
	require.True(t, v.IsReversed)
	require.Equal(t, "Stagnation", v.MeaningReversed)
}
