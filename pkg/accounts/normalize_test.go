package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase passthrough", "alice", "alice"},
		{"case folded", "ALICE", "alice"},
		{"mixed case", "ChR15m", "chr15m"},
		{"outer whitespace trimmed", "  alice  ", "alice"},
		{"interior whitespace collapsed", "alice   b", "alice b"},
		{"tabs and newlines collapsed", "alice\t\nb", "alice b"},
		{"fullwidth folded by nfkc", "ａｌｉｃｅ", "alice"},
		{"ideographic space collapsed", "alice　b", "alice b"},
		{"sharp s folds", "straße", "strasse"},
		{"empty", "", ""},
		{"whitespace only", " \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUsername(tt.input))
		})
	}
}

// Lookup and creation share one canonicalization rule; normalizing twice
// must be a no-op or provisioned accounts become unreachable.
func TestNormalizeUsername_Idempotent(t *testing.T) {
	inputs := []string{"ALICE", "  ChR15m ", "ａｌｉｃｅ　B", "straße"}
	for _, in := range inputs {
		once := NormalizeUsername(in)
		assert.Equal(t, once, NormalizeUsername(once))
	}
}
