package language

import (
	"errors"
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2
	display string
}

var languages = []entry{
	{"en", "eng", "English"},
	{"es", "spa", "Spanish"},
	{"fr", "fra", "French"},
	{"de", "deu", "German"},
	{"it", "ita", "Italian"},
	{"pt", "por", "Portuguese"},
	{"ja", "jpn", "Japanese"},
	{"ko", "kor", "Korean"},
	{"zh", "zho", "Chinese"},
	{"ru", "rus", "Russian"},
	{"ar", "ara", "Arabic"},
	{"hi", "hin", "Hindi"},
	{"nl", "nld", "Dutch"},
	{"pl", "pol", "Polish"},
	{"sv", "swe", "Swedish"},
	{"tr", "tur", "Turkish"},
	{"uk", "ukr", "Ukrainian"},
	{"yo", "yor", "Yoruba"},
}

var index = buildIndex()

func buildIndex() map[string]*entry {
	idx := make(map[string]*entry, len(languages)*3)
	for i := range languages {
		e := &languages[i]
		idx[e.code2] = e
		idx[e.code3] = e
		idx[strings.ToLower(e.display)] = e
	}
	return idx
}

// ErrUnrecognized reports a directive that is neither a known language name
// nor a well-formed language code.
var ErrUnrecognized = errors.New("unrecognized language")

// Canonical resolves a language directive to the code handed to the engine.
// Names from the table and BCP 47 tags ("English", "eng", "en-US", "vie")
// reduce to their shortest ISO 639 base code. Well-formed two or three
// letter codes the tag registry does not know pass through unchanged.
// An empty directive yields "" which means auto-detect.
func Canonical(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", nil
	}
	if e, ok := index[code]; ok {
		return e.code2, nil
	}
	tag, err := xlang.Parse(code)
	if err == nil {
		if tag == xlang.Und {
			return "", nil
		}
		if base, conf := tag.Base(); conf == xlang.Exact {
			return base.String(), nil
		}
		return code, nil
	}
	var valueErr xlang.ValueError
	if errors.As(err, &valueErr) && isCodeShaped(code) {
		return code, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnrecognized, code)
}

// ToISO2 is Canonical without the error: unrecognized directives yield ""
// so callers that already validated can use it inline.
func ToISO2(code string) string {
	lang, err := Canonical(code)
	if err != nil {
		return ""
	}
	return lang
}

// DisplayName returns a human-readable language name for any recognized code.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Auto-detect"
	}
	if e, ok := index[strings.ToLower(trimmed)]; ok {
		return e.display
	}
	if tag, err := xlang.Parse(trimmed); err == nil && tag != xlang.Und {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// Known reports whether the code maps to a language in the table.
func Known(code string) bool {
	_, ok := index[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

func isCodeShaped(code string) bool {
	if len(code) < 2 || len(code) > 3 {
		return false
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
