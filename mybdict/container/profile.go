package container

import (
	"strings"
)

// ScriptType is the primary writing system of a dictionary's language.
type ScriptType uint8

const (
	ScriptUnknown ScriptType = iota
	ScriptLatin
	ScriptHan
	ScriptHiragana
	ScriptKatakana
	ScriptHangul
	ScriptTibetan
	ScriptArabic
	ScriptThai
	ScriptDevanagari
)

// FeatureFlags describe input-relevant traits of a language.
type FeatureFlags uint32

const (
	FeatureHasTones FeatureFlags = 1 << iota
	FeatureHasPitch
	FeatureHasDiacritics
	FeatureRequiresCompose
	FeatureIsLogographic
	FeatureIsSyllabic
	FeatureIsAbjad
	FeatureHasCase
	FeatureRTLWriting
)

// Profile is the compact language summary stored in the header so a runtime
// can pick a dictionary without parsing locale strings.
type Profile struct {
	LanguageCode uint16
	RegionCode   uint8
	ScriptType   ScriptType
	FeatureFlags FeatureFlags
}

var regionCodes = map[string]uint8{
	"CN": 1,
	"TW": 2,
	"HK": 3,
	"MO": 4,
	"US": 10,
}

type languageTraits struct {
	script   ScriptType
	features FeatureFlags
}

var languageProfiles = map[string]languageTraits{
	"zh": {ScriptHan, FeatureHasTones | FeatureIsLogographic},
	"ja": {ScriptHiragana, FeatureHasPitch | FeatureIsSyllabic},
	"ko": {ScriptHangul, FeatureRequiresCompose | FeatureIsSyllabic},
	"ar": {ScriptArabic, FeatureRTLWriting | FeatureIsAbjad},
}

// DeriveProfile builds the header profile from a locale tag such as "zh-CN"
// or "zh_TW". Unlisted languages get Latin script with case.
func DeriveProfile(tag string) Profile {
	language, region := splitTag(tag)
	p := Profile{RegionCode: regionCodes[region]}

	if traits, ok := languageProfiles[language]; ok {
		p.LanguageCode = PackLanguage(language)
		p.ScriptType = traits.script
		p.FeatureFlags = traits.features
		return p
	}

	p.LanguageCode = PackLanguage(firstRunes(language, 2))
	p.ScriptType = ScriptLatin
	p.FeatureFlags = FeatureHasCase
	return p
}

// PackLanguage packs the first two letters of a lowercase language code as
// char0 | char1<<8. Codes shorter than two letters are completed from "un".
func PackLanguage(code string) uint16 {
	s := []rune(strings.ToLower(strings.TrimSpace(code)))
	if len(s) < 2 {
		s = append(s, 'u', 'n')[:2]
	}
	return uint16(s[0]&0xFF) | uint16(s[1]&0xFF)<<8
}

// Language unpacks LanguageCode into its two letters.
func (p Profile) Language() string {
	return string([]byte{byte(p.LanguageCode), byte(p.LanguageCode >> 8)})
}

func splitTag(tag string) (language, region string) {
	t := strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	var parts []string
	for _, p := range strings.Split(t, "-") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		language = strings.ToLower(parts[0])
	}
	if len(parts) > 1 {
		region = strings.ToUpper(parts[1])
	}
	return language, region
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
