package i18n

import "testing"

func TestParseMatchesClosestLanguage(t *testing.T) {
	cases := map[string]Language{
		"":      Chinese,
		"zh":    Chinese,
		"zh-CN": Chinese,
		"en":    English,
		"en-GB": English,
		"!!":    Chinese,
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestTextRendersCatalog(t *testing.T) {
	if got := Text(English, "era_leap"); got != "CIVILIZATION LEAP" {
		t.Errorf("Unexpected en era_leap: %q", got)
	}
	if got := Text(Chinese, "observer"); got != "观察者" {
		t.Errorf("Unexpected zh observer: %q", got)
	}
	if got := Text(English, "log_intervention", "flood"); got != "[INTERVENTION] flood initiated." {
		t.Errorf("Unexpected formatted line: %q", got)
	}
}

func TestEveryKeyExistsInBothLanguages(t *testing.T) {
	keys := []string{"observer", "era_leap", "intervention_msg", "log_start", "mode_descend",
		"mode_ascend", "butterfly_effect", "descent_warning", "era.StoneAge", "era.FutureAge"}
	for _, lang := range Supported() {
		for _, key := range keys {
			if Text(lang, key) == key {
				t.Errorf("Missing %s translation for %q", lang, key)
			}
		}
	}
}
