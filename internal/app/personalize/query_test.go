package personalize

import (
	"testing"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func params(kv ...string) model.QueryParams {
	out := model.QueryParams{}
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, model.QueryParam{Key: kv[i], Value: model.StringPtr(kv[i+1])})
	}
	return out
}

func TestAppendQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		params model.QueryParams
		want   string
	}{
		{"empty url", "", params("a", "1"), ""},
		{"append new key", "https://x.com/a?x=1", params("y", "2"), "https://x.com/a?x=1&y=2"},
		{"override in place", "https://x.com/a?x=1&y=2", params("x", "9"), "https://x.com/a?x=9&y=2"},
		{"no existing query", "https://x.com/a", params("utm_source", "mail", "utm_medium", "email"), "https://x.com/a?utm_source=mail&utm_medium=email"},
		{"fragment preserved", "https://x.com/a?x=1#top", params("y", "2"), "https://x.com/a?x=1&y=2#top"},
		{"blank values kept", "https://x.com/?empty=&x=1", params("y", "2"), "https://x.com/?empty=&x=1&y=2"},
		{"no re-encoding", "https://x.com/?q=a%20b", params("sub", "{id}|x y"), "https://x.com/?q=a%20b&sub={id}|x y"},
		{"duplicate existing keys collapse", "https://x.com/?a=1&b=2&a=3", nil, "https://x.com/?a=3&b=2"},
		{"params order kept", "https://x.com/", params("z", "1", "a", "2"), "https://x.com/?z=1&a=2"},
		{"no params no query", "https://x.com/path?", nil, "https://x.com/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AppendQueryParams(tt.url, tt.params))
		})
	}
}

func TestAppendQueryParams_NilValuesDropped(t *testing.T) {
	p := model.QueryParams{
		{Key: "x", Value: nil},
		{Key: "y", Value: model.StringPtr("2")},
	}
	assert.Equal(t, "https://x.com/a?x=1&y=2", AppendQueryParams("https://x.com/a?x=1", p))
}

func TestAppendQueryParams_Chained(t *testing.T) {
	first := AppendQueryParams("https://x.com/a?x=1", params("y", "2"))
	second := AppendQueryParams(first, params("x", "9"))
	assert.Equal(t, "https://x.com/a?x=9&y=2", second)
}
