package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveProfile(t *testing.T) {
	tests := []struct {
		tag  string
		want Profile
	}{
		{"zh-CN", Profile{PackLanguage("zh"), 1, ScriptHan, FeatureHasTones | FeatureIsLogographic}},
		{"zh_TW", Profile{PackLanguage("zh"), 2, ScriptHan, FeatureHasTones | FeatureIsLogographic}},
		{"zh-hk", Profile{PackLanguage("zh"), 3, ScriptHan, FeatureHasTones | FeatureIsLogographic}},
		{"zh-MO", Profile{PackLanguage("zh"), 4, ScriptHan, FeatureHasTones | FeatureIsLogographic}},
		{"ja", Profile{PackLanguage("ja"), 0, ScriptHiragana, FeatureHasPitch | FeatureIsSyllabic}},
		{"ko-KR", Profile{PackLanguage("ko"), 0, ScriptHangul, FeatureRequiresCompose | FeatureIsSyllabic}},
		{"ar", Profile{PackLanguage("ar"), 0, ScriptArabic, FeatureRTLWriting | FeatureIsAbjad}},
		{"en-US", Profile{PackLanguage("en"), 10, ScriptLatin, FeatureHasCase}},
		{"EN", Profile{PackLanguage("en"), 0, ScriptLatin, FeatureHasCase}},
		{"fil-PH", Profile{PackLanguage("fi"), 0, ScriptLatin, FeatureHasCase}},
		{"", Profile{PackLanguage("un"), 0, ScriptLatin, FeatureHasCase}},
		{"--", Profile{PackLanguage("un"), 0, ScriptLatin, FeatureHasCase}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveProfile(tt.tag))
		})
	}
}

func TestPackLanguage(t *testing.T) {
	assert.Equal(t, uint16('z')|uint16('h')<<8, PackLanguage("zh"))
	assert.Equal(t, uint16('z')|uint16('h')<<8, PackLanguage(" ZH "))
	assert.Equal(t, PackLanguage("un"), PackLanguage(""))
	assert.Equal(t, PackLanguage("eu"), PackLanguage("e"))
	assert.Equal(t, "en", Profile{LanguageCode: PackLanguage("en")}.Language())
}
