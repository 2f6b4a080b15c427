package output

import (
	"fmt"
	"io"

	"github.com/ajxudir/cargoup/pkg/upgrade"
)

// WriteUpgradeSummary writes a table of applied upgrades to the writer.
//
// It performs the following operations:
//   - Step 1: Builds a table with CRATE, SECTION, FROM, and TO columns
//   - Step 2: Sizes each column to fit its widest value
//   - Step 3: Writes the header, separator, and one row per change
//
// When changes is empty, a short message is written instead of a table.
//
// Parameters:
//   - w: destination writer for the formatted summary
//   - changes: the upgrades to report, in the order they were applied
//
// Returns:
//   - error: any error encountered while writing
func WriteUpgradeSummary(w io.Writer, changes []upgrade.Change) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "All dependencies are up to date")
		return err
	}

	table := NewTable().
		AddColumn("CRATE").
		AddColumn("SECTION").
		AddColumn("FROM").
		AddColumn("TO")

	for _, ch := range changes {
		table.UpdateWidths(ch.Crate, ch.Section, ch.From, ch.To)
	}

	if _, err := fmt.Fprintln(w, table.HeaderRow()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, table.SeparatorRow()); err != nil {
		return err
	}
	for _, ch := range changes {
		if _, err := fmt.Fprintln(w, table.FormatRow(ch.Crate, ch.Section, ch.From, ch.To)); err != nil {
			return err
		}
	}
	return nil
}
