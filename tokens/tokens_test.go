package tokens

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "only blanks", input: "\n\n  \n\t\n", want: []string{}},
		{name: "single", input: "abc", want: []string{"abc"}},
		{name: "skips blanks keeps order", input: "one\n\ntwo\n   \nthree\n", want: []string{"one", "two", "three"}},
		{name: "trims whitespace and crlf", input: "  one  \r\ntwo\r\n", want: []string{"one", "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\n\nb\n"), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
