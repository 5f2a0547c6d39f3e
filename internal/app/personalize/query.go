package personalize

import (
	"net/url"
	"strings"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
)

type queryPair struct {
	key   string // as written in the URL
	value string
}

// AppendQueryParams merges params into the query string of rawURL.
//
// Existing parameters keep their position and raw spelling; a param with the
// same (decoded) key overrides the value in place, new keys are appended in
// params order. Values are joined literally and never re-encoded. Params with
// a nil value are ignored.
func AppendQueryParams(rawURL string, params model.QueryParams) string {
	if rawURL == "" {
		return ""
	}

	rest, fragment, hasFragment := strings.Cut(rawURL, "#")
	base, rawQuery, _ := strings.Cut(rest, "?")

	var pairs []queryPair
	index := make(map[string]int)

	set := func(key, lookup, value string) {
		if i, ok := index[lookup]; ok {
			pairs[i].value = value
			return
		}
		index[lookup] = len(pairs)
		pairs = append(pairs, queryPair{key: key, value: value})
	}

	for _, piece := range strings.Split(rawQuery, "&") {
		if piece == "" {
			continue
		}
		key, value, _ := strings.Cut(piece, "=")
		set(key, decodeKey(key), value)
	}

	for _, p := range mergeable(params) {
		set(p.Key, decodeKey(p.Key), *p.Value)
	}

	var b strings.Builder
	b.WriteString(base)
	for i, p := range pairs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}

// mergeable drops params with a nil value. The result is never nil.
func mergeable(params model.QueryParams) model.QueryParams {
	out := make(model.QueryParams, 0, len(params))
	for _, p := range params {
		if p.Value != nil {
			out = append(out, p)
		}
	}
	return out
}

func decodeKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}
