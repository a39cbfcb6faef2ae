package calconfig

import (
	"strings"

	"golang.org/x/text/language"
)

var supportedLocales = []language.Tag{
	language.MustParse("en-US"), language.MustParse("ca-ES"), language.MustParse("zh-CN"),
	language.MustParse("zh-TW"), language.MustParse("hr-HR"), language.MustParse("cs-CZ"),
	language.MustParse("da-DK"), language.MustParse("nl-NL"), language.MustParse("en-GB"),
	language.MustParse("et-EE"), language.MustParse("fi-FI"), language.MustParse("fr-FR"),
	language.MustParse("fr-CH"), language.MustParse("de-DE"), language.MustParse("he-IL"),
	language.MustParse("id-ID"), language.MustParse("it-IT"), language.MustParse("ja-JP"),
	language.MustParse("ko-KR"), language.MustParse("ky-KG"), language.MustParse("lt-LT"),
	language.MustParse("mk-MK"), language.MustParse("pl-PL"), language.MustParse("pt-BR"),
	language.MustParse("ro-RO"), language.MustParse("ru-RU"), language.MustParse("sr-Latn-RS"),
	language.MustParse("sr-RS"), language.MustParse("sk-SK"), language.MustParse("sl-SI"),
	language.MustParse("es-ES"), language.MustParse("sv-SE"), language.MustParse("tr-TR"),
	language.MustParse("uk-UA"),
}

var localeMatcher = language.NewMatcher(supportedLocales)

// NormalizeLocale turns "en_us" or "EN-us" into the canonical "en-US" form.
// A tag that does not parse is returned trimmed.
func NormalizeLocale(tag string) string {
	tag = strings.TrimSpace(tag)
	t, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return tag
	}
	return t.String()
}

// SupportedLocale reports whether the widget ships translations for tag.
// Only an exact match counts; "de" alone does not select "de-DE".
func SupportedLocale(tag string) bool {
	t, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if err != nil {
		return false
	}
	_, i, conf := localeMatcher.Match(t)
	return conf == language.Exact && supportedLocales[i].String() == t.String()
}
