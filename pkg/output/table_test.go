package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajxudir/cargoup/pkg/upgrade"
)

// TestTableFormatting tests header, separator, and row alignment.
//
// It verifies:
//   - Columns grow to fit their widest value
//   - Rows are padded column by column
//   - Trailing padding is trimmed from data rows
func TestTableFormatting(t *testing.T) {
	table := NewTable().AddColumn("CRATE").AddColumn("TO")
	table.UpdateWidths("serde_json", "1.0")

	assert.Equal(t, "CRATE       TO ", table.HeaderRow())
	assert.Equal(t, "----------  ---", table.SeparatorRow())
	assert.Equal(t, "serde_json  1.0", table.FormatRow("serde_json", "1.0"))
	assert.Equal(t, "rand        0.8", table.FormatRow("rand", "0.8"))
}

// TestTableMissingValues tests rows with fewer values than columns.
//
// It verifies:
//   - Missing values render as empty cells
func TestTableMissingValues(t *testing.T) {
	table := NewTable().AddColumn("A").AddColumn("B")
	assert.Equal(t, "x", table.FormatRow("x"))
}

// TestTableUnicodeWidths tests Unicode-aware column sizing.
//
// It verifies:
//   - Wide characters count as two cells when sizing columns
func TestTableUnicodeWidths(t *testing.T) {
	table := NewTable().AddColumn("NAME")
	table.UpdateWidths("日本語")

	// 3 wide runes = 6 display cells
	assert.Equal(t, "NAME  ", table.HeaderRow())
}

// TestWriteUpgradeSummary tests the upgrade summary table.
//
// It verifies:
//   - One row per change in application order
//   - An empty change set writes the up-to-date message
func TestWriteUpgradeSummary(t *testing.T) {
	changes := []upgrade.Change{
		{Crate: "serde", Section: "dependencies", From: "1.0", To: "1.0.219"},
		{Crate: "rand", Section: "dev-dependencies", From: "0.8", To: "0.9.2"},
	}

	var buf strings.Builder
	require.NoError(t, WriteUpgradeSummary(&buf, changes))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "CRATE  SECTION           FROM  TO     ", lines[0])
	assert.Contains(t, lines[2], "serde  dependencies      1.0   1.0.219")
	assert.Contains(t, lines[3], "rand   dev-dependencies  0.8   0.9.2")

	buf.Reset()
	require.NoError(t, WriteUpgradeSummary(&buf, nil))
	assert.Equal(t, "All dependencies are up to date\n", buf.String())
}
