package language

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceLocaleFor(t *testing.T) {
	r := Default()

	tests := []struct {
		code string
		want string
	}{
		{"en", "en-US"},
		{"es", "es-ES"},
		{"pt", "pt-PT"},
		{"pt-BR", "pt-BR"},
		{"ar", "ar-SA"},
		{"zh-TW", "zh-TW"},
		{"sv", "sv"},       // unknown passes through
		{"en-GB", "en-GB"}, // already qualified
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, r.VoiceLocaleFor(tt.code))
		})
	}
}

func TestNameAndLookup(t *testing.T) {
	r := Default()

	assert.Equal(t, "Chinese (Simplified)", r.Name("zh-CN"))
	assert.Equal(t, "German", r.Name("de"))
	assert.Equal(t, "xx", r.Name("xx"))

	l, ok := r.Lookup("ta")
	require.True(t, ok)
	assert.Equal(t, Language{Code: "ta", Name: "Tamil", VoiceLocale: "ta-IN"}, l)

	_, ok = r.Lookup("klingon")
	assert.False(t, ok)
}

func TestAllPreservesOrderAndIsACopy(t *testing.T) {
	r := Default()

	all := r.All()
	require.Len(t, all, 15)
	assert.Equal(t, "en", all[0].Code)
	assert.Equal(t, "ta", all[len(all)-1].Code)

	all[0].Name = "mutated"
	assert.Equal(t, "English", r.Name("en"))
}

func TestBase(t *testing.T) {
	assert.Equal(t, "zh", Base("zh-CN"))
	assert.Equal(t, "en", Base("en_US"))
	assert.Equal(t, "ja", Base("ja"))
	assert.Equal(t, "", Base(""))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "languages: []", "empty"},
		{"missing code", "languages:\n  - name: Nothing", "no code"},
		{"duplicate", "languages:\n  - code: en\n  - code: en", "duplicate"},
		{"malformed", "languages: {", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	doc := "languages:\n  - code: th\n    name: Thai\n    voice_locale: th-TH\n  - code: sw\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "th-TH", r.VoiceLocaleFor("th"))
	assert.Equal(t, "sw", r.Name("sw"))
	assert.Equal(t, "sw", r.VoiceLocaleFor("sw"))

	def, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "en-US", def.VoiceLocaleFor("en"))
}
