package greeting

// Language is a two-letter code identifying an entry of the greeting table.
type Language string

// Supported languages, in table order.
const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguageFrench     Language = "fr"
	LanguageGerman     Language = "de"
	LanguageItalian    Language = "it"
	LanguagePortuguese Language = "pt"
	LanguageJapanese   Language = "ja"
	LanguageChinese    Language = "zh"
	LanguageRussian    Language = "ru"
	LanguageArabic     Language = "ar"
)

// DefaultLanguage is the language used when recovering from a greeting error.
const DefaultLanguage = LanguageEnglish

// languages holds the table keys in a fixed order so that random
// selection is uniform and reproducible with a seeded source.
var languages = [...]Language{
	LanguageEnglish,
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguageItalian,
	LanguagePortuguese,
	LanguageJapanese,
	LanguageChinese,
	LanguageRussian,
	LanguageArabic,
}

// greetings is read-only after package initialisation.
var greetings = map[Language]string{
	LanguageEnglish:    "Hello World",
	LanguageSpanish:    "Hola Mundo",
	LanguageFrench:     "Bonjour le Monde",
	LanguageGerman:     "Hallo Welt",
	LanguageItalian:    "Ciao Mondo",
	LanguagePortuguese: "Olá Mundo",
	LanguageJapanese:   "こんにちは世界",
	LanguageChinese:    "你好世界",
	LanguageRussian:    "Привет мир",
	LanguageArabic:     "مرحبا بالعالم",
}

// Languages returns the supported language codes in table order.
// The returned slice is a copy and may be modified by the caller.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages[:])
	return out
}

// Phrase returns the greeting phrase for lang. Unknown codes yield an
// empty phrase and false.
func Phrase(lang Language) (string, bool) {
	p, ok := greetings[lang]
	return p, ok
}

// IsSupported reports whether lang is a key of the greeting table.
func (lang Language) IsSupported() bool {
	_, ok := greetings[lang]
	return ok
}

// String implements fmt.Stringer.
func (lang Language) String() string {
	return string(lang)
}
