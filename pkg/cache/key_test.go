package cache

import (
	"testing"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params Params
		want   string
	}{
		{
			name: "no params",
			path: "/pages/home",
			want: "/pages/home?",
		},
		{
			name:   "single param",
			path:   "/pages/home",
			params: Params{"lang": "en"},
			want:   "/pages/home?lang=en",
		},
		{
			name:   "multiple params (sorted)",
			path:   "/pages/list",
			params: Params{"page": 2, "lang": "en", "draft": false},
			want:   "/pages/list?draft=false&lang=en&page=2",
		},
		{
			name:   "nil value",
			path:   "/pages/list",
			params: Params{"filter": nil},
			want:   "/pages/list?filter=",
		},
		{
			name:   "float value",
			path:   "/pages/list",
			params: Params{"ratio": 0.5},
			want:   "/pages/list?ratio=0.5",
		},
		{
			name:   "list keeps order",
			path:   "/pages/list",
			params: Params{"ids": []any{3, 1, 2}},
			want:   "/pages/list?ids=[3,1,2]",
		},
		{
			name:   "nested mapping sorted",
			path:   "/pages/list",
			params: Params{"filter": map[string]any{"z": 1, "a": "x"}},
			want:   `/pages/list?filter=["a:x","z:1"]`,
		},
		{
			name: "deeply nested",
			path: "/p",
			params: Params{"f": map[string]any{
				"b": []any{"x", map[string]any{"d": true, "c": nil}},
			}},
			want: `/p?f=["b:[x,[\"c:\",\"d:true\"]]"]`,
		},
		{
			name:   "separators escaped",
			path:   "/search",
			params: Params{"q": "a b&c=d", "x?y": "1"},
			want:   "/search?q=a+b%26c%3Dd&x%3Fy=1",
		},
		{
			name:   "list element escaped",
			path:   "/p",
			params: Params{"ids": []string{"a,b", "c"}},
			want:   "/p?ids=[a%2Cb,c]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.path, tt.params); got != tt.want {
				t.Errorf("Key() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKey_OrderIndependent(t *testing.T) {
	a := Key("/x", Params{"a": 1, "b": 2})
	b := Key("/x", Params{"b": 2, "a": 1})
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}

	nestedA := Key("/x", Params{"f": map[string]any{"a": 1, "b": map[string]any{"y": 1, "x": 2}}})
	nestedB := Key("/x", Params{"f": map[string]any{"b": map[string]any{"x": 2, "y": 1}, "a": 1}})
	if nestedA != nestedB {
		t.Errorf("nested keys differ: %q vs %q", nestedA, nestedB)
	}
}

func TestKey_DistinguishesValues(t *testing.T) {
	if Key("/x", Params{"a": 1}) == Key("/x", Params{"a": 2}) {
		t.Error("different values produced the same key")
	}
	if Key("/x", nil) == Key("/y", nil) {
		t.Error("different paths produced the same key")
	}

	pairs := []struct {
		name string
		a, b Params
	}{
		{"embedded separators", Params{"a": "1&b=2"}, Params{"a": "1", "b": "2"}},
		{"embedded equals in name", Params{"a=1": ""}, Params{"a": "1="}},
		{"comma inside list element", Params{"l": []any{"a,b"}}, Params{"l": []any{"a", "b"}}},
		{"string that looks like a list", Params{"l": "[1,2]"}, Params{"l": []any{1, 2}}},
		{"colon inside nested key", Params{"m": map[string]any{"a:b": "c"}}, Params{"m": map[string]any{"a": "b:c"}}},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			if ka, kb := Key("/x", p.a), Key("/x", p.b); ka == kb {
				t.Errorf("distinct params share key %q", ka)
			}
		})
	}
}

type unsupported struct {
	N int
}

// TestKey_Total ensures values outside the supported variant never fail.
func TestKey_Total(t *testing.T) {
	got := Key("/x", Params{"v": unsupported{N: 7}, "ch": make(chan int)})
	if got == "" {
		t.Fatal("Key() returned empty string")
	}

	// Same input always produces same key
	for i := 0; i < 10; i++ {
		if again := Key("/x", Params{"v": unsupported{N: 7}}); again != Key("/x", Params{"v": unsupported{N: 7}}) {
			t.Errorf("result[%d] not deterministic", i)
		}
	}
}

func TestQueryValues(t *testing.T) {
	values := QueryValues(Params{"page": 2, "lang": "en", "ids": []any{1, 2}})

	if got := values.Encode(); got != "ids=1&ids=2&lang=en&page=2" {
		t.Errorf("Encode() = %v", got)
	}

	// Values reach the origin unmangled; Encode escapes them once
	values = QueryValues(Params{"q": "a&b", "tag": []string{"x", "y"}})
	if got := values.Encode(); got != "q=a%26b&tag=x&tag=y" {
		t.Errorf("Encode() = %v", got)
	}
	if len(QueryValues(nil)) != 0 {
		t.Error("QueryValues(nil) should be empty")
	}
}
