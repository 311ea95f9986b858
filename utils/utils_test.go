package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatID(t *testing.T) {
	tests := map[string]string{
		"1234567890":     "123-456-7890",
		"123-456-7890":   "123-456-7890",
		"123 456 7890":   "123-456-7890",
		"1234567":        "123-456-7",
		"123456789012":   "123-456-789012",
		"12345":          "12345",
		"12345abcde":     "12345",
		"id: 987654-321": "987-654-321",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatID(in), in)
	}
}

func TestReadWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("# jobs\n42\n\n  43 \n"), 0644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "43"}, lines)

	out := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteLines(out, lines))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "42\n43\n", string(data))
}

func TestResolvePath(t *testing.T) {
	t.Setenv(RootEnv, "/srv/adwords")
	assert.Equal(t, "/srv/adwords", GetProjectRoot())
	assert.Equal(t, "/srv/adwords/config/report.yaml", ResolvePath("config/report.yaml"))
	assert.Equal(t, "/etc/x.yaml", ResolvePath("/etc/x.yaml"))
	assert.Equal(t, "", ResolvePath(""))
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(16)
	require.NoError(t, err)
	b, err := RandomHex(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	_, err = RandomHex(0)
	assert.Error(t, err)
}
