package narrative

import (
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/platform/i18n"
)

func pick(lang i18n.Language, zh, en string) string {
	if lang == i18n.English {
		return en
	}
	return zh
}

// FallbackQuote replaces a failed era transition quote.
func FallbackQuote(lang i18n.Language) string {
	return pick(lang, "新的纪元。", "A new age dawns.")
}

func emptyQuote(lang i18n.Language) string {
	return pick(lang, "时代变迁。", "The era shifts.")
}

// FallbackJudgement replaces a failed final verdict.
func FallbackJudgement(lang i18n.Language) string {
	return pick(lang, "数据已归档。", "Data archived.")
}

func emptyJudgement(lang i18n.Language) string {
	return pick(lang, "观测结束。", "Observation concluded.")
}

// FallbackOutcome replaces a failed outcome narration.
func FallbackOutcome(lang i18n.Language) string {
	return pick(lang, "因果已定。", "Fate sealed.")
}

func emptyOutcome(lang i18n.Language) string {
	return pick(lang, "世界线变动。", "Timeline shifted.")
}

// FallbackScenario is used whenever a scenario cannot be produced or parsed.
func FallbackScenario(lang i18n.Language) life.Scenario {
	return life.Scenario{
		Text: pick(lang, "虚空震荡，你看到了一些不可名状的幻象。", "Reality glitches."),
		Choices: []life.Choice{
			{Text: pick(lang, "凝视深渊", "Stare"), Reward: life.RewardKnowledge},
			{Text: pick(lang, "转身离开", "Leave"), Reward: life.RewardWealth},
		},
	}
}
