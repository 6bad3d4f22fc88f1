package dictionary

import (
	"errors"
	"strings"
	"testing"
)

func TestDictionary_Lookup(t *testing.T) {
	d := New(KindLabel, []string{"bed", "chair", "lamp"})

	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}

	tests := []struct {
		token string
		id    int
	}{
		{"bed", 1},
		{"chair", 2},
		{"lamp", 3},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if id, ok := d.ID(tt.token); !ok || id != tt.id {
				t.Errorf("ID(%q) = %d, %v, want %d", tt.token, id, ok, tt.id)
			}
			if tok, ok := d.Token(tt.id); !ok || tok != tt.token {
				t.Errorf("Token(%d) = %q, %v, want %q", tt.id, tok, ok, tt.token)
			}
		})
	}

	if _, ok := d.ID("sofa"); ok {
		t.Error("ID of unknown token should report false")
	}
	// IDs are 1-based; 0 is the export padding value.
	if d.Contains(0) || d.Contains(4) {
		t.Error("Contains should be limited to [1, Len()]")
	}
	if !d.Contains(1) || !d.Contains(3) {
		t.Error("Contains should accept defined IDs")
	}
}

func TestDictionary_MappingRoundTrip(t *testing.T) {
	d := New(KindPredicate, []string{"on", "under", "next to"})

	rebuilt, err := FromMapping(KindPredicate, d.Mapping())
	if err != nil {
		t.Fatalf("FromMapping error: %v", err)
	}
	if got := rebuilt.Tokens(); len(got) != 3 || got[0] != "on" || got[2] != "next to" {
		t.Errorf("rebuilt tokens = %v", got)
	}
	if rebuilt.Kind() != KindPredicate {
		t.Errorf("rebuilt kind = %v", rebuilt.Kind())
	}
}

func TestFromMapping_Sparse(t *testing.T) {
	_, err := FromMapping(KindLabel, map[string]int{"bed": 1, "chair": 3})
	if !errors.Is(err, ErrSparseMapping) {
		t.Errorf("FromMapping with gap = %v, want ErrSparseMapping", err)
	}
}

func TestFromMapping_DuplicateID(t *testing.T) {
	// In-range but not a bijection: both tokens claim ID 1, so ID 2
	// would end up with no token at all.
	_, err := FromMapping(KindLabel, map[string]int{"bed": 1, "chair": 1})
	if !errors.Is(err, ErrSparseMapping) {
		t.Errorf("FromMapping with shared id = %v, want ErrSparseMapping", err)
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "bed\nchair\nlamp\n", []string{"bed", "chair", "lamp"}},
		{"no trailing newline", "bed\nchair", []string{"bed", "chair"}},
		{"crlf", "bed\r\nchair\r\n", []string{"bed", "chair"}},
		{"interior blank kept", "bed\n\nchair\n", []string{"bed", "", "chair"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseList(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseList error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseList = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(KindLabel, "does/not/exist.txt"); err == nil {
		t.Error("LoadFile of missing path should fail")
	}
}
