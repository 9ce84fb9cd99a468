// Package life defines the entities of a single inhabited mortal life.
// This package is PURE and must NOT import any infrastructure packages.
package life

import (
	"fmt"

	"github.com/velist/gametest/internal/domain/civ"
)

// Age progression of a life.
const (
	StartAge = 10
	AgeStep  = 15
	MaxAge   = 70
)

// RoleID identifies a mortal role.
type RoleID string

const (
	RoleLeader     RoleID = "leader"
	RoleWorker     RoleID = "worker"
	RoleWarrior    RoleID = "warrior"
	RoleMerchant   RoleID = "merchant"
	RoleScholar    RoleID = "scholar"
	RoleCEO        RoleID = "ceo"
	RoleArtist     RoleID = "artist"
	RolePolitician RoleID = "politician"
	RoleHacker     RoleID = "hacker"
	RoleAndroid    RoleID = "android"
)

// Role is an era-specific role offer.
type Role struct {
	ID    RoleID `json:"id"`
	Label string `json:"label"` // zh
	Desc  string `json:"desc"`  // en
}

var rolesByEra = map[civ.Era][]Role{
	civ.StoneAge: {
		{ID: RoleLeader, Label: "部落首领", Desc: "Leader"},
		{ID: RoleWorker, Label: "采集者", Desc: "Gatherer"},
		{ID: RoleWarrior, Label: "猎手", Desc: "Hunter"},
	},
	civ.BronzeAge: {
		{ID: RoleLeader, Label: "君主", Desc: "King"},
		{ID: RoleMerchant, Label: "行商", Desc: "Merchant"},
		{ID: RoleWarrior, Label: "士兵", Desc: "Soldier"},
	},
	civ.IronAge: {
		{ID: RoleScholar, Label: "谋士", Desc: "Scholar"},
		{ID: RoleMerchant, Label: "富贾", Desc: "Merchant"},
		{ID: RoleWarrior, Label: "将军", Desc: "General"},
	},
	civ.ModernAge: {
		{ID: RoleCEO, Label: "资本家", Desc: "CEO"},
		{ID: RoleArtist, Label: "艺术家", Desc: "Artist"},
		{ID: RolePolitician, Label: "政客", Desc: "Politician"},
	},
	civ.FutureAge: {
		{ID: RoleHacker, Label: "黑客", Desc: "Hacker"},
		{ID: RoleAndroid, Label: "仿生人", Desc: "Android"},
		{ID: RoleLeader, Label: "元首", Desc: "Overseer"},
	},
}

// RolesFor returns the role catalog of an era. Unknown eras get the Stone Age list.
func RolesFor(era civ.Era) []Role {
	roles, ok := rolesByEra[era]
	if !ok {
		roles = rolesByEra[civ.StoneAge]
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// FindRole looks up a role offered in the given era.
func FindRole(era civ.Era, id RoleID) (Role, bool) {
	for _, r := range RolesFor(era) {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

// RewardCategory tags what a choice pays out.
type RewardCategory string

const (
	RewardKarma     RewardCategory = "karma"
	RewardWealth    RewardCategory = "wealth"
	RewardKnowledge RewardCategory = "knowledge"
)

// Valid reports whether c is a known category.
func (c RewardCategory) Valid() bool {
	switch c {
	case RewardKarma, RewardWealth, RewardKnowledge:
		return true
	}
	return false
}

// Reward is what a life hands back to the observer.
type Reward struct {
	Karma     int     `json:"karma"`
	Knowledge float64 `json:"knowledge"`
}

// RewardFor returns the credit for a chosen category.
func RewardFor(c RewardCategory) Reward {
	switch c {
	case RewardKarma:
		return Reward{Karma: 50}
	case RewardWealth:
		return Reward{Knowledge: 100}
	case RewardKnowledge:
		return Reward{Knowledge: 200}
	}
	return Reward{}
}

// Add sums two rewards.
func (r Reward) Add(o Reward) Reward {
	return Reward{Karma: r.Karma + o.Karma, Knowledge: r.Knowledge + o.Knowledge}
}

// Choice is one option of a scenario.
type Choice struct {
	Text   string         `json:"text"`
	Reward RewardCategory `json:"reward"`
}

// ChoicesPerScenario is fixed.
const ChoicesPerScenario = 2

// Scenario is a single life beat.
type Scenario struct {
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// Valid reports whether the scenario is well-formed.
func (s Scenario) Valid() bool {
	if s.Text == "" || len(s.Choices) != ChoicesPerScenario {
		return false
	}
	for _, c := range s.Choices {
		if c.Text == "" || !c.Reward.Valid() {
			return false
		}
	}
	return true
}

// HistoryEntry formats a completed beat.
func HistoryEntry(age int, scenario, choice string) string {
	return fmt.Sprintf("%d: %s -> %s", age, scenario, choice)
}

// HasNextBeat reports whether another beat follows the one at age.
func HasNextBeat(age int) bool {
	return age+AgeStep <= MaxAge
}
