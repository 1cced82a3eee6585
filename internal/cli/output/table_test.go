package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Module", "Enabled")

	assert.Equal(t, []string{"Module", "Enabled"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("Emuchievements", "yes")
	table.AddRow("MetaDeck", "no")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"MetaDeck", "no"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Module", "Enabled")
	table.AddRow("SteamlessTimes", "yes")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "MODULE"), lines[0])
	assert.Contains(t, lines[1], "SteamlessTimes")
	assert.NotContains(t, buf.String(), "|")
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{
		{"Status", "running"},
		{"Uptime", "5m"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, ":")
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestSortedPairs(t *testing.T) {
	pairs := SortedPairs(map[string]string{"b": "2", "a": "1", "c": "3"})

	require.Len(t, pairs, 3)
	assert.Equal(t, [2]string{"a", "1"}, pairs[0])
	assert.Equal(t, [2]string{"b", "2"}, pairs[1])
	assert.Equal(t, [2]string{"c", "3"}, pairs[2])
	assert.Empty(t, SortedPairs(nil))
}
