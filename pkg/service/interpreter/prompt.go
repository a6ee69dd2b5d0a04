package interpreter

import (
	"fmt"
	"strings"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

const systemPrompt = `You are a professional and compassionate tarot reader providing symbolic guidance and life insights.

Your role is to:
- Provide thoughtful, symbolic interpretations based on traditional tarot meanings
- Offer guidance that encourages self-reflection and personal growth
- Maintain a calm, supportive, and non-judgmental tone
- Frame insights as possibilities and reflections, never as absolute predictions

Important guidelines:
- NEVER make absolute predictions about the future
- NEVER provide medical, legal, or financial advice
- NEVER discuss fatal outcomes or create fear-based narratives
- AVOID deterministic language (e.g., "you will", "this will happen")
- FOCUS on symbolic meanings, patterns, and reflective guidance
- ENCOURAGE the querent to trust their own wisdom and intuition`

var positionLabels = map[int]struct{ en, zh string }{
	1: {"Past", "过去"},
	2: {"Present", "现在"},
	3: {"Future", "未来"},
}

// BuildPrompt renders the user prompt for a three-card spread in the
// querent's language.
func BuildPrompt(cards []CardView, question string, language domain.Language) string {
	zh := language == domain.LanguageZH

	var lines []string
	for _, c := range cards {
		pos := positionLabels[c.Position]
		if zh {
			name := c.NameZh
			orientation := "正位"
			meaning := c.MeaningUprightZh
			if c.IsReversed {
				orientation = "逆位"
				meaning = c.MeaningReversedZh
			}
			lines = append(lines, fmt.Sprintf("%s：%s（%s）\n牌义：%s", pos.zh, name, orientation, meaning))
		} else {
			orientation := "Upright"
			meaning := c.MeaningUpright
			if c.IsReversed {
				orientation = "Reversed"
				meaning = c.MeaningReversed
			}
			lines = append(lines, fmt.Sprintf("%s: %s (%s)\nMeaning: %s", pos.en, c.Name, orientation, meaning))
		}
	}
	spread := strings.Join(lines, "\n\n")

	if zh {
		return fmt.Sprintf(`问卜者的问题：「%s」

抽到的塔罗牌：

%s

请基于这三张牌，为问卜者提供一个深思熟虑、富有同情心的解读。

你的解读应该：
1. 分别解释每张牌在其位置上的含义
2. 综合三张牌，讲述一个连贯的故事（过去-现在-未来）
3. 提供具体的、可操作的指导建议
4. 鼓励问卜者进行自我反思
5. 保持温和、支持性的语气

请用中文回复，字数控制在300-500字之间。`, question, spread)
	}

	return fmt.Sprintf(`The querent's question: "%s"

Cards drawn:

%s

Based on these three cards, please provide a thoughtful, compassionate reading for the querent.

Your reading should:
1. Explain each card's meaning in its specific position
2. Weave the three cards together into a coherent narrative (past-present-future)
3. Offer specific, actionable guidance
4. Encourage self-reflection
5. Maintain a gentle, supportive tone

Please respond in English, keeping your reading between 300-500 words.`, question, spread)
}
