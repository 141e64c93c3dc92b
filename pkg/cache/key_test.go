package cache

import (
	"strings"
	"testing"
)

func TestKeyString_Deterministic(t *testing.T) {
	key1 := Key{
		Method:   "GET",
		Endpoint: "https://api.example.com/posts",
		Headers:  map[string]string{"Accept": "application/json", "X-Request-Source": "web"},
	}
	key2 := Key{
		Method:   "GET",
		Endpoint: "https://api.example.com/posts",
		Headers:  map[string]string{"X-Request-Source": "web", "Accept": "application/json"},
	}

	if key1.String() != key2.String() {
		t.Errorf("Header insertion order changed the key:\n%s\n%s", key1.String(), key2.String())
	}
}

func TestKeyString_CaseCollidingHeadersDeterministic(t *testing.T) {
	key := Key{
		Method:   "GET",
		Endpoint: "https://api.example.com/posts",
		Headers:  map[string]string{"Accept": "application/json", "accept": "text/html"},
	}

	// The colliding keys collapse to one part, and the value comes from
	// the original key sorting last ("accept" > "Accept"), independent
	// of map iteration order.
	first := key.String()
	if !strings.Contains(first, "h=accept=text/html") {
		t.Errorf("Key %q did not pick the last-sorting original key's value", first)
	}
	if strings.Contains(first, "application/json") {
		t.Errorf("Key %q kept the shadowed header value", first)
	}

	for i := 0; i < 50; i++ {
		if s := key.String(); s != first {
			t.Fatalf("Key changed across invocations:\n%s\n%s", first, s)
		}
	}
}

func TestKeyString_MapBodyOrderStable(t *testing.T) {
	key1 := Key{
		Method:   "POST",
		Endpoint: "https://api.example.com/posts",
		Body:     map[string]any{"title": "hello", "tags": []any{"go", "blog"}},
	}
	key2 := Key{
		Method:   "POST",
		Endpoint: "https://api.example.com/posts",
		Body:     map[string]any{"tags": []any{"go", "blog"}, "title": "hello"},
	}

	if key1.String() != key2.String() {
		t.Errorf("Map body key order changed the key:\n%s\n%s", key1.String(), key2.String())
	}
}

func TestKeyString_DiffersPerComponent(t *testing.T) {
	base := Key{
		Method:   "GET",
		Endpoint: "https://api.example.com/posts",
		Headers:  map[string]string{"Accept": "application/json"},
	}

	tests := []struct {
		name  string
		other Key
	}{
		{
			name: "different method",
			other: Key{
				Method:   "DELETE",
				Endpoint: base.Endpoint,
				Headers:  base.Headers,
			},
		},
		{
			name: "different endpoint",
			other: Key{
				Method:   base.Method,
				Endpoint: "https://api.example.com/comments",
				Headers:  base.Headers,
			},
		},
		{
			name: "different headers",
			other: Key{
				Method:   base.Method,
				Endpoint: base.Endpoint,
				Headers:  map[string]string{"Accept": "text/html"},
			},
		},
		{
			name: "body added",
			other: Key{
				Method:   base.Method,
				Endpoint: base.Endpoint,
				Headers:  base.Headers,
				Body:     map[string]any{"page": 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if base.String() == tt.other.String() {
				t.Errorf("Expected different keys, both were %s", base.String())
			}
		})
	}
}

func TestKeyString_DifferentBodiesDiffer(t *testing.T) {
	key1 := Key{Method: "POST", Endpoint: "https://api.example.com/posts", Body: map[string]any{"title": "a"}}
	key2 := Key{Method: "POST", Endpoint: "https://api.example.com/posts", Body: map[string]any{"title": "b"}}

	if key1.String() == key2.String() {
		t.Errorf("Different bodies produced identical key %s", key1.String())
	}
}

func TestKeyString_Format(t *testing.T) {
	key := Key{
		Method:   "get",
		Endpoint: "https://api.example.com/posts/",
		Headers:  map[string]string{"Accept": "application/json"},
	}

	s := key.String()

	if !strings.HasPrefix(s, "blog:GET:") {
		t.Errorf("Key %q missing blog:GET: prefix", s)
	}
	if strings.Contains(s, "posts/") {
		t.Errorf("Key %q kept the trailing slash", s)
	}
	if !strings.Contains(s, "h=accept=application/json") {
		t.Errorf("Key %q missing lowered header part", s)
	}
}

func TestKeyString_NeverFails(t *testing.T) {
	// A body encoding/json cannot marshal still yields a key.
	key := Key{
		Method:   "POST",
		Endpoint: "https://api.example.com/posts",
		Body:     make(chan int),
	}

	if key.String() == "" {
		t.Error("Expected non-empty key for unserializable body")
	}
}
