// Package ai - prompts.go
// Prompt builders for the observer narrator. Every builder keeps the
// response short so latency stays low.
package ai

import (
	"fmt"

	"github.com/velist/gametest/internal/platform/i18n"
)

// NarratorSystemPrompt frames every call.
const NarratorSystemPrompt = `You are the narrator of a minimalist civilization observer game.
The player is a detached higher-dimensional Observer watching a civilization evolve.
Tone: terse, philosophical, Cyber-Zen. Never use quotation marks. Never explain yourself.`

// Genres give scenario prompts variety.
var Genres = []string{
	"正剧历史", "玄幻修仙", "赛博朋克", "穿越逆袭", "宫廷权谋",
	"末世生存", "克苏鲁神话", "甜蜜言情", "悬疑推理", "无厘头搞笑",
}

// StandardGenre is the only genre rendered as a grounded theme in English.
const StandardGenre = "正剧历史"

// EraQuotePrompt asks for a one-line turning point quote.
func EraQuotePrompt(era string, lang i18n.Language) string {
	if lang == i18n.Chinese {
		return fmt.Sprintf("为文明演化游戏生成一句关于%s的极简、充满哲学感的转折点语录。少于20字。不要引号。", era)
	}
	return fmt.Sprintf("Generate a minimalist, philosophical quote about the transition to %s for a civ game. Under 15 words. No quotes.", era)
}

// JudgementPrompt asks for the final verdict on a run.
func JudgementPrompt(name, era string, karma, interventions int, lang i18n.Language) string {
	if lang == i18n.Chinese {
		return fmt.Sprintf(`你是一个高维生物观察者。评价玩家"%s"管理的文明。最终时代：%s。剩余业力：%d（初始1000，越低代表干预越多）。干预次数：%d。
如果是高业力，称赞其"无为而治"；如果是低业力，评价其"控制欲"或"慈悲/残暴"。
输出一段极简、冷峻、赛博禅意的最终审判词。少于30字。`, name, era, karma, interventions)
	}
	return fmt.Sprintf(`You are a higher-dimensional observer. Judge player "%s". Final Era: %s. Remaining Karma: %d (Start 1000). Interventions: %d.
High karma = praise "Wu Wei" (non-action). Low karma = comment on control or chaos.
Output a minimalist, Cyber-Zen final judgment. Under 25 words.`, name, era, karma, interventions)
}

// ScenarioPrompt asks for one life beat with two choices as JSON.
func ScenarioPrompt(era, role string, age int, genre string, lang i18n.Language) string {
	if lang == i18n.Chinese {
		return fmt.Sprintf(`模拟人生文字RPG。时代：%s。角色：%s。年龄：%d岁。
【强制风格：%s】
请根据该风格生成一个脑洞大开的剧情节点（可无视时代限制）。
包含情境描述（30字内，节奏快）和2个选择。
只输出JSON：{"text":"情境","choices":[{"text":"选择A","reward":"wealth"},{"text":"选择B","reward":"karma"}]}
reward 只能是 karma、wealth 或 knowledge。`, era, role, age, genre)
	}
	theme := "Wild Fantasy/Sci-Fi"
	if genre == StandardGenre {
		theme = "Standard"
	}
	return fmt.Sprintf(`Life sim text RPG. Era: %s. Role: %s. Age: %d.
Theme: %s.
Generate a creative scenario (under 25 words) and 2 choices.
Output JSON only: {"text":"Scenario","choices":[{"text":"Choice A","reward":"wealth"},{"text":"Choice B","reward":"karma"}]}
reward is one of karma, wealth, knowledge.`, era, role, age, theme)
}

// OutcomePrompt asks for the consequence of a chosen action.
func OutcomePrompt(era, role, action string, lang i18n.Language) string {
	if lang == i18n.Chinese {
		return fmt.Sprintf(`模拟人生：时代%s，角色%s，做了"%s"。
生成一句极简的、带有宿命感的后果描述或旁白。30字以内。`, era, role, action)
	}
	return fmt.Sprintf(`Life sim: Era %s, Role %s, Action "%s".
Generate a short philosophical consequence. Under 20 words.`, era, role, action)
}
