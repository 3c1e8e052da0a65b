// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package layer enumerates the board layers of the PCB editor and their
// default display colors. Layer names are what plot requests and
// plotted file names use; ids match the editor's layer numbering.
package layer

import (
	"fmt"
	"strings"
)

// ID identifies a board layer.
type ID int

const (
	FrontCopper ID = 0
	// Inner copper layers In1.Cu..In30.Cu are 1..30.
	BackCopper ID = 31

	BackAdhesive ID = iota + 30
	FrontAdhesive
	BackPaste
	FrontPaste
	BackSilkscreen
	FrontSilkscreen
	BackMask
	FrontMask
	DrawingsUser
	CommentsUser
	Eco1User
	Eco2User
	EdgeCuts
	Margin
	BackCourtyard
	FrontCourtyard
	BackFab
	FrontFab

	idCount
)

// InnerCopperCount is the number of inner copper layers.
const InnerCopperCount = 30

// InnerCopper returns the id of inner copper layer n (1-based).
func InnerCopper(n int) (ID, error) {
	if n < 1 || n > InnerCopperCount {
		return 0, fmt.Errorf("inner copper layer %d out of range 1..%d", n, InnerCopperCount)
	}
	return ID(n), nil
}

type layerInfo struct {
	name  string
	color Color
}

var technical = [idCount - BackAdhesive]layerInfo{
	BackAdhesive - BackAdhesive:    {"B.Adhes", Blue},
	FrontAdhesive - BackAdhesive:   {"F.Adhes", Magenta},
	BackPaste - BackAdhesive:       {"B.Paste", LightCyan},
	FrontPaste - BackAdhesive:      {"F.Paste", Red},
	BackSilkscreen - BackAdhesive:  {"B.SilkS", Magenta},
	FrontSilkscreen - BackAdhesive: {"F.SilkS", Cyan},
	BackMask - BackAdhesive:        {"B.Mask", Brown},
	FrontMask - BackAdhesive:       {"F.Mask", Magenta},
	DrawingsUser - BackAdhesive:    {"Dwgs.User", LightGray},
	CommentsUser - BackAdhesive:    {"Cmts.User", Blue},
	Eco1User - BackAdhesive:        {"Eco1.User", Green},
	Eco2User - BackAdhesive:        {"Eco2.User", Yellow},
	EdgeCuts - BackAdhesive:        {"Edge.Cuts", Yellow},
	Margin - BackAdhesive:          {"Margin", Magenta},
	BackCourtyard - BackAdhesive:   {"B.CrtYd", LightGray},
	FrontCourtyard - BackAdhesive:  {"F.CrtYd", DarkGray},
	BackFab - BackAdhesive:         {"B.Fab", Blue},
	FrontFab - BackAdhesive:        {"F.Fab", DarkGray},
}

// copperColors cycles through the inner layers the way the editor's
// default palette does.
var copperColors = [8]Color{Red, Yellow, LightMagenta, LightRed, Cyan, Green, Blue, DarkGray}

// All returns every layer id in numbering order.
func All() []ID {
	all := make([]ID, idCount)
	for i := range all {
		all[i] = ID(i)
	}
	return all
}

// Valid reports whether id is a defined layer.
func (id ID) Valid() bool { return id >= 0 && id < idCount }

// IsCopper reports whether id is a copper layer.
func (id ID) IsCopper() bool { return id >= FrontCopper && id <= BackCopper }

// Name returns the layer's canonical name, such as "F.Cu".
func (id ID) Name() string {
	switch {
	case !id.Valid():
		return fmt.Sprintf("Layer(%d)", int(id))
	case id == FrontCopper:
		return "F.Cu"
	case id == BackCopper:
		return "B.Cu"
	case id.IsCopper():
		return fmt.Sprintf("In%d.Cu", int(id))
	default:
		return technical[id-BackAdhesive].name
	}
}

func (id ID) String() string { return id.Name() }

// FileSuffix is the layer's name as it appears in plotted file names
// ("F.Cu" plots to "<board>-F_Cu.gbr").
func (id ID) FileSuffix() string {
	return strings.ReplaceAll(id.Name(), ".", "_")
}

// DefaultColor returns the color the editor shows the layer in on a
// fresh board.
func (id ID) DefaultColor() Color {
	switch {
	case !id.Valid():
		return Black
	case id == BackCopper:
		return Green
	case id.IsCopper():
		return copperColors[int(id)%len(copperColors)]
	default:
		return technical[id-BackAdhesive].color
	}
}

// Parse resolves a layer name. Matching ignores case and accepts the
// file-name spelling with underscores ("f_cu").
func Parse(name string) (ID, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "."))
	for _, id := range All() {
		if strings.ToLower(id.Name()) == normalized {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", name)
}

// ParseAll resolves a list of layer names, rejecting duplicates.
func ParseAll(names []string) ([]ID, error) {
	ids := make([]ID, 0, len(names))
	seen := make(map[ID]bool, len(names))
	for _, name := range names {
		id, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("layer %s listed twice", id.Name())
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
