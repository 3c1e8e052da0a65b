// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"

	"github.com/fabrun/fabrun/lib/xdo"
)

// Window title patterns (xdotool --name regular expressions).
const (
	// The schematic editor's main window title contains the sheet
	// path in brackets.
	eeschemaMainPattern = `\[`
	libraryWarningLabel = "library warning"
	libraryWarningTitle = "Not Found"
	plotDialogPattern   = "Plot"
	ercDialogPattern    = "Electrical Rules Checker"
	ercSavePattern      = "ERC File"
	pcbnewMainPattern   = "Pcbnew"
	drcDialogPattern    = "DRC Control"
	drcCompletedPattern = "Disk File Report Completed"
	dsnSavePattern      = "Specctra DSN File"
	sesImportPattern    = "Merge Specctra Session file"
)

// pcbnew builds its menu bar lazily; resizing the main window forces it.
const (
	pcbnewResizeWidth  = 750
	pcbnewResizeHeight = 600
)

// Menu accelerators.
var (
	plotMenuKeys      = []string{"alt+f", "p", "p"}
	ercMenuKeys       = []string{"alt+t", "c"}
	drcMenuKeys       = []string{"alt+i", "d"}
	dsnExportMenuKeys = []string{"alt+f", "x", "Return"}
	sesImportMenuKeys = []string{"alt+f", "i", "s"}
)

// SchematicFormat is an output format of the schematic plot dialog.
type SchematicFormat string

const (
	SchematicPDF SchematicFormat = "pdf"
	SchematicSVG SchematicFormat = "svg"
)

// ParseSchematicFormat validates a format name.
func ParseSchematicFormat(name string) (SchematicFormat, error) {
	switch format := SchematicFormat(name); format {
	case SchematicPDF, SchematicSVG:
		return format, nil
	}
	return "", fmt.Errorf("unsupported schematic format %q (want pdf or svg)", name)
}

// plotDialogKeys walks the plot dialog from the output directory field
// to the format radio box, selects format, and leaves the focus on the
// page selection. The dialog opens with HPGL selected, which is
// guaranteed by resetting the remembered plot format before launch;
// PDF is three entries above it and SVG two.
func plotDialogKeys(format SchematicFormat, allPages bool) []string {
	keys := xdo.Repeat("Tab", 5)
	keys = append(keys, "space")
	switch format {
	case SchematicPDF:
		keys = append(keys, xdo.Repeat("Up", 3)...)
	case SchematicSVG:
		keys = append(keys, xdo.Repeat("Up", 2)...)
	}
	// "Plot all pages" is the default button; four tabs move to
	// "Plot current page".
	if !allPages {
		keys = append(keys, xdo.Repeat("Tab", 4)...)
	}
	return keys
}

// ercDialogKeys enables writing the report file and starts the check.
func ercDialogKeys() []string {
	keys := xdo.Repeat("Tab", 4)
	return append(keys, "space", "Return")
}

// drcDialogKeys sets the DRC options (refill zones, report all track
// errors, create report file) and leaves the focus on the report path
// field.
func drcDialogKeys() []string {
	return []string{
		"Tab", "Tab", "Tab",
		"Tab", "space",
		"Tab", "Tab", "Tab", "space",
		"Tab",
	}
}

// replaceFieldKeys selects the focused text field's content, replaces
// it with the clipboard, and confirms.
func replaceFieldKeys() []string {
	return []string{"ctrl+a", "ctrl+v", "Return"}
}
