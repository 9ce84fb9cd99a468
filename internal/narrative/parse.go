package narrative

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/velist/gametest/internal/domain/life"
)

//go:embed schemas/scenario.schema.json
var scenarioSchemaSource string

var scenarioSchema = jsonschema.MustCompileString("scenario.schema.json", scenarioSchemaSource)

// ErrUnparseable is returned when provider output matches no known format.
var ErrUnparseable = errors.New("unparseable scenario")

// ParseScenario accepts either a JSON object
// {"text": ..., "choices": [{"text": ..., "reward": ...}, ...]} or the
// "Scenario|Choice A|Choice B" line format, where A pays wealth and B karma.
func ParseScenario(raw string) (life.Scenario, error) {
	raw = stripFence(strings.TrimSpace(raw))
	if raw == "" {
		return life.Scenario{}, ErrUnparseable
	}
	if strings.HasPrefix(raw, "{") {
		return parseJSONScenario(raw)
	}
	return parsePipeScenario(raw)
}

func parseJSONScenario(raw string) (life.Scenario, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return life.Scenario{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if err := scenarioSchema.Validate(doc); err != nil {
		return life.Scenario{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	var s life.Scenario
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return life.Scenario{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	s.Text = strings.TrimSpace(s.Text)
	for i := range s.Choices {
		s.Choices[i].Text = strings.TrimSpace(s.Choices[i].Text)
	}
	if !s.Valid() {
		return life.Scenario{}, ErrUnparseable
	}
	return s, nil
}

func parsePipeScenario(raw string) (life.Scenario, error) {
	parts := strings.Split(raw, "|")
	if len(parts) < 3 {
		return life.Scenario{}, ErrUnparseable
	}
	s := life.Scenario{
		Text: strings.TrimSpace(parts[0]),
		Choices: []life.Choice{
			{Text: strings.TrimSpace(parts[1]), Reward: life.RewardWealth},
			{Text: strings.TrimSpace(parts[2]), Reward: life.RewardKarma},
		},
	}
	if !s.Valid() {
		return life.Scenario{}, ErrUnparseable
	}
	return s, nil
}

// stripFence removes a surrounding ``` or ```json block.
func stripFence(raw string) string {
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
		raw = raw[nl+1:]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

// cleanLine normalizes single-line provider text.
func cleanLine(raw string) string {
	raw = strings.TrimSpace(stripFence(strings.TrimSpace(raw)))
	return strings.Trim(raw, "\"“”「」")
}
