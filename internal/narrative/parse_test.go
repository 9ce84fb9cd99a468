package narrative

import (
	"errors"
	"testing"

	"github.com/velist/gametest/internal/domain/life"
)

func TestParseScenarioPipeFormat(t *testing.T) {
	s, err := ParseScenario("The river floods. | Build a dam | Pray")
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if s.Text != "The river floods." {
		t.Errorf("Unexpected text %q", s.Text)
	}
	if s.Choices[0].Text != "Build a dam" || s.Choices[0].Reward != life.RewardWealth {
		t.Errorf("Expected choice A to pay wealth, got %+v", s.Choices[0])
	}
	if s.Choices[1].Text != "Pray" || s.Choices[1].Reward != life.RewardKarma {
		t.Errorf("Expected choice B to pay karma, got %+v", s.Choices[1])
	}
}

func TestParseScenarioFencedJSON(t *testing.T) {
	raw := "```json\n{\"text\":\"Neon rain.\",\"choices\":[{\"text\":\"Hack\",\"reward\":\"knowledge\"},{\"text\":\"Hide\",\"reward\":\"wealth\"}]}\n```"
	s, err := ParseScenario(raw)
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if s.Text != "Neon rain." || len(s.Choices) != 2 {
		t.Errorf("Unexpected scenario %+v", s)
	}
}

func TestParseScenarioRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"just a sentence",
		"only|two",
		"|a|b",
		`{"text":"x","choices":[{"text":"a","reward":"karma"}]}`,
		`{"text":"x","choices":[{"text":"a","reward":"gold"},{"text":"b","reward":"karma"}]}`,
		`{"text":"x","choices":`,
	}
	for _, raw := range cases {
		if _, err := ParseScenario(raw); !errors.Is(err, ErrUnparseable) {
			t.Errorf("ParseScenario(%q) = %v, want ErrUnparseable", raw, err)
		}
	}
}
