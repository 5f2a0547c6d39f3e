package personalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"invalid character excluded", "Hi {{FIRST_NAME}}, {{BAD!}}", []string{"FIRST_NAME"}},
		{"whitespace inside braces", "{{ name }} and {{\tother.key-1 }}", []string{"name", "other.key-1"}},
		{"sorted and distinct", "{{b}} {{a}} {{b}}", []string{"a", "b"}},
		{"empty", "", []string{}},
		{"no closing braces", "{{open", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestDetectAll_MergesBodies(t *testing.T) {
	got := DetectAll("<p>{{CTA_URL}}</p>{{FIRST_NAME}}", "{{FIRST_NAME}} {{FOOTER1}}")
	assert.Equal(t, []string{"CTA_URL", "FIRST_NAME", "FOOTER1"}, got)
}

func TestFill(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		values map[string]string
		want   string
	}{
		{"known token", "Hi {{NAME}}", map[string]string{"NAME": "Ann"}, "Hi Ann"},
		{"unknown token kept", "Hi {{NAME}}", map[string]string{}, "Hi {{NAME}}"},
		{"original whitespace kept", "Hi {{  NAME }}!", nil, "Hi {{  NAME }}!"},
		{"whitespace token filled", "Hi {{ NAME }}!", map[string]string{"NAME": "Bo"}, "Hi Bo!"},
		{"no recursive expansion", "{{A}}", map[string]string{"A": "{{B}}", "B": "x"}, "{{B}}"},
		{"repeated tokens", "{{A}}-{{A}}", map[string]string{"A": "1"}, "1-1"},
		{"empty value", "[{{A}}]", map[string]string{"A": ""}, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fill(tt.text, tt.values))
		})
	}
}

func TestFill_IdempotentForLeftovers(t *testing.T) {
	values := map[string]string{"A": "a"}
	once := Fill("{{A}} {{B}}", values)
	assert.Equal(t, once, Fill(once, values))
}
