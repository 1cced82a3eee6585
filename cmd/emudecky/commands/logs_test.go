package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTimestamp(t *testing.T) {
	local := time.Date(2026, 3, 4, 10, 30, 45, 0, time.Local)

	tests := []struct {
		name string
		line string
		want time.Time
	}{
		{
			name: "text handler prefix",
			line: "[2026-03-04 10:30:45] [INFO] Coordinator running started=[MetaDeck]",
			want: local,
		},
		{
			name: "shim prefix",
			line: "[EmuDecky] [2026-03-04 10:30:45] [WARN] Module start failed",
			want: local,
		},
		{
			name: "json handler",
			line: `{"time":"2026-03-04T10:30:45.123Z","level":"INFO","msg":"Coordinator running"}`,
			want: time.Date(2026, 3, 4, 10, 30, 45, 123000000, time.UTC),
		},
		{
			name: "no timestamp",
			line: "plain line",
		},
		{
			name: "broken prefix",
			line: "[not a date at all] [INFO] x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTimestamp(tt.line)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestTailLines(t *testing.T) {
	input := strings.Join([]string{
		"[2026-03-04 10:00:00] [INFO] one",
		"[2026-03-04 11:00:00] [INFO] two",
		"[2026-03-04 12:00:00] [INFO] three",
		"no timestamp",
	}, "\n")

	res := tailLines(strings.NewReader(input), 2, time.Time{})
	require.NoError(t, res.err)
	assert.Equal(t, []string{"[2026-03-04 12:00:00] [INFO] three", "no timestamp"}, res.lines)

	since := time.Date(2026, 3, 4, 10, 30, 0, 0, time.Local)
	res = tailLines(strings.NewReader(input), 10, since)
	require.NoError(t, res.err)
	assert.Len(t, res.lines, 3)
	assert.Contains(t, res.lines[0], "two")

	assert.Empty(t, tailLines(strings.NewReader(input), 0, time.Time{}).lines)
}

func TestShowLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emudecky.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0644))

	var buf bytes.Buffer
	require.NoError(t, showLogs(&buf, path, 2, time.Time{}))
	assert.Equal(t, "b\nc\n", buf.String())

	assert.Error(t, showLogs(&buf, filepath.Join(t.TempDir(), "missing.log"), 2, time.Time{}))
}
