// Package tarot holds the static 78-card reference deck seeded into the
// database on startup. Card numbers are stable: 0-21 major arcana, then
// wands, cups, swords, pentacles in rank order.
package tarot

import (
	"fmt"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

const DeckSize = 78

type majorCard struct {
	name       string
	nameZh     string
	upright    string
	reversed   string
	uprightZh  string
	reversedZh string
}

var majorArcana = []majorCard{
	{"The Fool", "愚者", "New beginnings, innocence, a leap of faith", "Recklessness, hesitation, fear of the unknown", "新的开始，天真，勇敢一跃", "鲁莽，犹豫，对未知的恐惧"},
	{"The Magician", "魔术师", "Willpower, resourcefulness, manifestation", "Manipulation, untapped talent, scattered energy", "意志力，足智多谋，心想事成", "操纵，才能未展，精力分散"},
	{"The High Priestess", "女祭司", "Intuition, inner wisdom, the subconscious", "Secrets withheld, disconnection from intuition", "直觉，内在智慧，潜意识", "隐瞒的秘密，与直觉失联"},
	{"The Empress", "女皇", "Nurturing, abundance, creativity", "Dependence, creative block, smothering", "滋养，丰盛，创造力", "依赖，创意受阻，过度保护"},
	{"The Emperor", "皇帝", "Structure, authority, stability", "Rigidity, domination, lack of discipline", "秩序，权威，稳定", "僵化，专制，缺乏自律"},
	{"The Hierophant", "教皇", "Tradition, guidance, shared beliefs", "Rebellion, unconventional paths, dogma questioned", "传统，指引，共同信念", "叛逆，非传统之路，质疑教条"},
	{"The Lovers", "恋人", "Union, alignment of values, meaningful choice", "Disharmony, misaligned values, avoidance of choice", "结合，价值观一致，重要抉择", "不和谐，价值观分歧，逃避抉择"},
	{"The Chariot", "战车", "Determination, momentum, victory through focus", "Loss of direction, opposition, scattered drive", "决心，前进的动力，专注致胜", "方向迷失，阻力，动力涣散"},
	{"Strength", "力量", "Courage, patience, gentle power", "Self-doubt, raw emotion, inner weakness", "勇气，耐心，温柔的力量", "自我怀疑，情绪失控，内在软弱"},
	{"The Hermit", "隐士", "Introspection, solitude, inner guidance", "Isolation, withdrawal, lost in loneliness", "内省，独处，内在指引", "孤立，退缩，迷失于孤独"},
	{"Wheel of Fortune", "命运之轮", "Cycles, turning points, good fortune", "Resistance to change, setbacks, broken cycles", "循环，转折点，好运", "抗拒改变，挫折，循环中断"},
	{"Justice", "正义", "Fairness, truth, cause and effect", "Unfairness, dishonesty, avoidance of accountability", "公平，真相，因果", "不公，欺瞒，逃避责任"},
	{"The Hanged Man", "倒吊人", "Surrender, new perspective, pause", "Stalling, resistance, fruitless sacrifice", "放下，全新视角，暂停", "拖延，抗拒，徒劳的牺牲"},
	{"Death", "死神", "Endings, transformation, release", "Clinging to the past, stagnation, delayed change", "结束，蜕变，释放", "执着过去，停滞，延迟的改变"},
	{"Temperance", "节制", "Balance, moderation, patient blending", "Imbalance, excess, competing currents", "平衡，适度，耐心调和", "失衡，过度，相互冲突"},
	{"The Devil", "恶魔", "Attachment, temptation, self-imposed limits", "Breaking free, reclaiming power, awareness", "束缚，诱惑，自我设限", "挣脱束缚，夺回力量，觉察"},
	{"The Tower", "高塔", "Sudden upheaval, revelation, necessary collapse", "Averted disaster, fear of change, lingering ruin", "突变，启示，必要的崩塌", "灾难暂避，恐惧改变，余波未平"},
	{"The Star", "星星", "Hope, renewal, quiet faith", "Discouragement, faded faith, disconnection", "希望，更新，宁静的信念", "气馁，信念消退，失去连结"},
	{"The Moon", "月亮", "Intuition, illusion, the unknown surfacing", "Clarity returning, fear released, confusion fading", "直觉，幻象，未知浮现", "重获清晰，恐惧释放，迷雾散去"},
	{"The Sun", "太阳", "Joy, vitality, success in the open", "Dimmed optimism, delays, forced cheer", "喜悦，活力，光明的成功", "乐观受挫，延迟，强颜欢笑"},
	{"Judgement", "审判", "Awakening, reckoning, a clear calling", "Self-doubt, harsh self-judgement, ignored calling", "觉醒，清算，清晰的召唤", "自我怀疑，苛责自己，忽视召唤"},
	{"The World", "世界", "Completion, integration, fulfillment", "Loose ends, incompletion, delayed closure", "圆满，整合，成就", "未竟之事，不完整，迟来的结局"},
}

type suit struct {
	name       string
	nameZh     string
	theme      string
	themeZh    string
	reversed   string
	reversedZh string
}

var suits = []suit{
	{"Wands", "权杖", "creative fire, ambition and will", "创造之火、抱负与意志", "blocked drive and misdirected energy", "动力受阻、精力错付"},
	{"Cups", "圣杯", "emotion, relationships and intuition", "情感、关系与直觉", "emotional imbalance and unmet feeling", "情感失衡、心意未酬"},
	{"Swords", "宝剑", "intellect, truth and conflict", "思维、真相与冲突", "clouded judgement and harsh words", "判断混沌、言语伤人"},
	{"Pentacles", "星币", "work, resources and the material world", "事业、资源与现实世界", "material insecurity and misplaced worth", "物质不安、价值错置"},
}

type rank struct {
	name       string
	nameZh     string
	upright    string
	reversed   string
	uprightZh  string
	reversedZh string
}

var ranks = []rank{
	{"Ace", "一", "A seed of pure potential", "Potential delayed or squandered", "纯粹潜能的种子", "潜能延迟或虚掷"},
	{"Two", "二", "A choice between paths, early balance", "Indecision, imbalance between options", "路径的抉择，初步的平衡", "犹豫不决，两难失衡"},
	{"Three", "三", "First results, collaboration taking shape", "Delays, efforts pulling apart", "初见成果，合作成形", "延误，各行其是"},
	{"Four", "四", "Consolidation, a stable foundation", "Stagnation, holding on too tightly", "巩固，稳定的基础", "停滞，抓得太紧"},
	{"Five", "五", "Friction, loss, a test of resolve", "Recovery beginning, conflict easing", "摩擦，失落，意志的考验", "开始复原，冲突缓和"},
	{"Six", "六", "Harmony restored, generosity, progress", "Imbalance of giving, nostalgia that binds", "和谐恢复，慷慨，进展", "施受失衡，困于怀旧"},
	{"Seven", "七", "Assessment, patience, defending ground", "Impatience, scattered effort, giving up early", "评估，耐心，坚守立场", "急躁，用力分散，过早放弃"},
	{"Eight", "八", "Movement, dedicated effort, mastery building", "Burnout, rushed steps, trapped perspective", "行动，专注投入，渐入佳境", "倦怠，仓促行事，视角受困"},
	{"Nine", "九", "Near completion, resilience, earned comfort", "Weariness, guardedness, comfort questioned", "接近完成，坚韧，应得的安适", "疲惫，戒备，安适存疑"},
	{"Ten", "十", "Culmination, legacy, a cycle closing", "Burden carried too long, an ending resisted", "顶点，传承，周期落幕", "负重过久，抗拒终局"},
	{"Page", "侍从", "A messenger, curiosity, a new study", "Immaturity, restless news, unfocused start", "信使，好奇心，新的学习", "稚嫩，躁动的消息，起步失焦"},
	{"Knight", "骑士", "Pursuit in motion, dedication to the quest", "Haste or stalling, a quest losing its way", "追寻的行动，对目标的执着", "或急或怠，追寻迷途"},
	{"Queen", "王后", "Mature mastery turned inward, quiet authority", "Self-neglect, authority turned brittle", "内化的成熟掌握，沉静的权威", "忽视自我，权威变得脆弱"},
	{"King", "国王", "Mature mastery turned outward, steady command", "Control overextended, command without heart", "外显的成熟掌握，稳健的统御", "控制过度，统御失温"},
}

// Deck returns all 78 cards in card-number order.
func Deck() []domain.TarotCard {
	cards := make([]domain.TarotCard, 0, DeckSize)
	for i, m := range majorArcana {
		cards = append(cards, domain.TarotCard{
			CardNumber:        i,
			Name:              m.name,
			NameZh:            m.nameZh,
			Arcana:            "MAJOR",
			MeaningUpright:    m.upright,
			MeaningReversed:   m.reversed,
			MeaningUprightZh:  m.uprightZh,
			MeaningReversedZh: m.reversedZh,
			ImageURL:          imageURL(i),
		})
	}
	n := len(majorArcana)
	for _, s := range suits {
		for _, r := range ranks {
			cards = append(cards, domain.TarotCard{
				CardNumber:        n,
				Name:              fmt.Sprintf("%s of %s", r.name, s.name),
				NameZh:            s.nameZh + r.nameZh,
				Arcana:            "MINOR",
				MeaningUpright:    fmt.Sprintf("%s in %s", r.upright, s.theme),
				MeaningReversed:   fmt.Sprintf("%s; %s", r.reversed, s.reversed),
				MeaningUprightZh:  fmt.Sprintf("%s，关乎%s", r.uprightZh, s.themeZh),
				MeaningReversedZh: fmt.Sprintf("%s，%s", r.reversedZh, s.reversedZh),
				ImageURL:          imageURL(n),
			})
			n++
		}
	}
	return cards
}

func imageURL(cardNumber int) string {
	return fmt.Sprintf("/images/cards/%02d.jpg", cardNumber)
}
