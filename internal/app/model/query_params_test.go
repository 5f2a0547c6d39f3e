package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseQueryParams_PreservesOrder(t *testing.T) {
	params, err := ParseQueryParams(`{"utm_source":"newsletter","b":"2","a":1,"flag":true,"skip":null}`)
	if err != nil {
		t.Fatalf("ParseQueryParams returned error: %v", err)
	}

	wantKeys := []string{"utm_source", "b", "a", "flag", "skip"}
	if len(params) != len(wantKeys) {
		t.Fatalf("expected %d params, got %d", len(wantKeys), len(params))
	}
	for i, key := range wantKeys {
		if params[i].Key != key {
			t.Fatalf("param %d: expected key %q, got %q", i, key, params[i].Key)
		}
	}
	if v, _ := params.Get("a"); v != "1" {
		t.Fatalf("expected number literal 1, got %q", v)
	}
	if v, _ := params.Get("flag"); v != "true" {
		t.Fatalf("expected bool literal true, got %q", v)
	}
	if params[4].Value != nil {
		t.Fatalf("expected null value to stay unset")
	}
}

func TestParseQueryParams_Invalid(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `{"a":{"b":1}}`, `{"a":`, `"text"`} {
		if _, err := ParseQueryParams(raw); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("%s: expected ErrInvalidParams, got %v", raw, err)
		}
	}
}

func TestParseQueryParams_Blank(t *testing.T) {
	params, err := ParseQueryParams("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params == nil || len(params) != 0 {
		t.Fatalf("expected empty non-nil params, got %#v", params)
	}
}

func TestQueryParams_MarshalJSON(t *testing.T) {
	params := QueryParams{
		{Key: "z", Value: StringPtr("1")},
		{Key: "a", Value: nil},
		{Key: "m", Value: StringPtr("x y")},
	}
	data, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(data) != `{"z":"1","a":null,"m":"x y"}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}
