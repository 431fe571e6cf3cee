package i18n

import "strings"

type Lang string

const (
	RU Lang = "ru"
	EN Lang = "en"
	AR Lang = "ar"
)

func FromLanguageCode(code string) Lang {
	code = strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(code, "ru"), strings.HasPrefix(code, "uk"), strings.HasPrefix(code, "be"):
		return RU
	case strings.HasPrefix(code, "ar"):
		return AR
	default:
		return EN
	}
}

func Parse(s string) Lang {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "ru":
		return RU
	case "ar":
		return AR
	default:
		return EN
	}
}

// Pick returns the text for lang, falling back to English.
func Pick(lang Lang, en, ru, ar string) string {
	switch lang {
	case RU:
		return ru
	case AR:
		return ar
	default:
		return en
	}
}
