package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		candidate Scope
		request   Scope
		want      bool
	}{
		{"empty request matches all", Scope{"g", "i"}, nil, true},
		{"empty request matches empty", nil, Scope{}, true},
		{"exact", Scope{"g"}, Scope{"g"}, true},
		{"prefix", Scope{"g", "i"}, Scope{"g"}, true},
		{"different group", Scope{"h", "i"}, Scope{"g"}, false},
		{"candidate shorter", Scope{"g"}, Scope{"g", "i"}, false},
		{"no partial token", Scope{"group"}, Scope{"gr"}, false},
		{"second element differs", Scope{"g", "x"}, Scope{"g", "y"}, false},
		{"empty candidate", nil, Scope{"g"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.candidate, tt.request))
		})
	}
}

// Matches(A, R) is true iff R is empty or A[:len(R)] == R.
func TestMatchesPrefixProperty(t *testing.T) {
	elems := []string{"a", "b", "c"}
	var all []Scope
	all = append(all, Scope{})
	for _, x := range elems {
		all = append(all, Scope{x})
		for _, y := range elems {
			all = append(all, Scope{x, y})
			for _, z := range elems {
				all = append(all, Scope{x, y, z})
			}
		}
	}

	for _, a := range all {
		for _, r := range all {
			want := len(r) == 0 || (len(a) >= len(r) && a[:len(r)].Equal(r))
			assert.Equal(t, want, Matches(a, r), "Matches(%v, %v)", a, r)
		}
	}
}

func TestParseAndString(t *testing.T) {
	assert.Equal(t, Scope{"demo", "web"}, Parse("demo/web"))
	assert.Equal(t, Scope{"demo"}, Parse(" /demo/ "))
	assert.Nil(t, Parse(""))
	assert.Equal(t, "demo/web", Scope{"demo", "web"}.String())
}

func TestTrim(t *testing.T) {
	s := Scope{"g", "i", "x"}
	assert.Equal(t, Scope{"g"}, s.Trim(1))
	assert.Equal(t, s, s.Trim(5))
	assert.Empty(t, s.Trim(-1))
}
