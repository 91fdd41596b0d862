package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatError(t *testing.T) {
	got := formatError(os.ErrNotExist)
	assert.Contains(t, got, "Error:")
	assert.Contains(t, got, "file does not exist")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputJSON(&buf, map[string]int{"window": 2}))

	var v map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v))
	assert.Equal(t, 2, v["window"])
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	out := newPrinter(&buf)

	out.Success("saved")
	out.Warning("careful")
	out.Info("plain")
	out.LabelValue("Root", "/tmp/x")
	out.List([]string{"tab_state", "tab3"}, 1)

	got := buf.String()
	for _, want := range []string{"saved", "careful", "plain", "Root", "/tmp/x", "tab_state", "tab3"} {
		assert.Contains(t, got, want)
	}
}

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	out := newPrinter(&buf)

	out.Table([]string{"ID", "URL"}, [][]string{
		{"1", "https://a.example"},
		{"12", "https://b.example"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[1], "--")
	assert.Contains(t, lines[3], "https://b.example")
}

func TestPrinter_TableEmpty(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf).Table([]string{"ID"}, nil)
	assert.Empty(t, buf.String())
}

func TestCountNoun(t *testing.T) {
	assert.Equal(t, "1 tab", countNoun(1, "tab", "tabs"))
	assert.Equal(t, "0 tabs", countNoun(0, "tab", "tabs"))
	assert.Equal(t, "3 tabs", countNoun(3, "tab", "tabs"))
}
