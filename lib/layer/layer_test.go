// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package layer

import (
	"regexp"
	"strings"
	"testing"
)

func TestEveryColorHasNameAndRGB(t *testing.T) {
	names := make(map[string]Color)
	for _, color := range Colors() {
		if !color.Valid() {
			t.Fatalf("Colors() returned invalid %d", int(color))
		}
		name := color.String()
		if name == "" || strings.HasPrefix(name, "Color(") {
			t.Errorf("color %d has no name", int(color))
		}
		if previous, ok := names[name]; ok {
			t.Errorf("colors %d and %d share the name %s", int(previous), int(color), name)
		}
		names[name] = color
		_ = color.RGB()
	}
	if len(names) != int(colorCount) {
		t.Fatalf("%d named colors, want %d", len(names), colorCount)
	}
}

func TestColorRGB(t *testing.T) {
	tests := []struct {
		color Color
		want  RGB
		hex   string
	}{
		{Black, RGB{0, 0, 0}, "#000000"},
		{White, RGB{255, 255, 255}, "#ffffff"},
		{Red, RGB{132, 0, 0}, "#840000"},
		{DarkBlue, RGB{0, 0, 72}, "#000048"},
		{LightYellow, RGB{255, 255, 194}, "#ffffc2"},
		{PureYellow, RGB{255, 255, 0}, "#ffff00"},
		{Yellow, RGB{194, 194, 0}, "#c2c200"},
	}
	for _, test := range tests {
		if got := test.color.RGB(); got != test.want {
			t.Errorf("%s.RGB() = %v, want %v", test.color, got, test.want)
		}
		if got := test.color.RGB().Hex(); got != test.hex {
			t.Errorf("%s hex = %s, want %s", test.color, got, test.hex)
		}
	}
}

func TestUndefinedColor(t *testing.T) {
	if Color(-1).Valid() || colorCount.Valid() {
		t.Fatal("out-of-range colors reported valid")
	}
	if got := Color(99).String(); got != "Color(99)" {
		t.Fatalf("String() = %q", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("RGB of an undefined color did not panic")
		}
	}()
	Color(99).RGB()
}

func TestEveryLayerIsNamedAndColored(t *testing.T) {
	namePattern := regexp.MustCompile(`^[A-Za-z0-9]+(\.[A-Za-z]+)?$`)
	seen := make(map[string]ID)
	all := All()
	if len(all) != 50 {
		t.Fatalf("%d layers, want 50", len(all))
	}
	for _, id := range all {
		name := id.Name()
		if !namePattern.MatchString(name) {
			t.Errorf("layer %d has malformed name %q", int(id), name)
		}
		if previous, ok := seen[name]; ok {
			t.Errorf("layers %d and %d share the name %s", int(previous), int(id), name)
		}
		seen[name] = id
		if !id.DefaultColor().Valid() {
			t.Errorf("layer %s has invalid default color", name)
		}
		parsed, err := Parse(name)
		if err != nil || parsed != id {
			t.Errorf("Parse(%q) = %v, %v; want %d", name, parsed, err, int(id))
		}
	}
}

func TestLayerNumbering(t *testing.T) {
	tests := []struct {
		id     ID
		name   string
		suffix string
		copper bool
		color  Color
	}{
		{FrontCopper, "F.Cu", "F_Cu", true, Red},
		{1, "In1.Cu", "In1_Cu", true, Yellow},
		{30, "In30.Cu", "In30_Cu", true, Blue},
		{BackCopper, "B.Cu", "B_Cu", true, Green},
		{BackAdhesive, "B.Adhes", "B_Adhes", false, Blue},
		{FrontSilkscreen, "F.SilkS", "F_SilkS", false, Cyan},
		{EdgeCuts, "Edge.Cuts", "Edge_Cuts", false, Yellow},
		{Margin, "Margin", "Margin", false, Magenta},
		{FrontFab, "F.Fab", "F_Fab", false, DarkGray},
	}
	for _, test := range tests {
		if got := test.id.Name(); got != test.name {
			t.Errorf("ID(%d).Name() = %q, want %q", int(test.id), got, test.name)
		}
		if got := test.id.FileSuffix(); got != test.suffix {
			t.Errorf("%s.FileSuffix() = %q, want %q", test.name, got, test.suffix)
		}
		if got := test.id.IsCopper(); got != test.copper {
			t.Errorf("%s.IsCopper() = %v", test.name, got)
		}
		if got := test.id.DefaultColor(); got != test.color {
			t.Errorf("%s.DefaultColor() = %s, want %s", test.name, got, test.color)
		}
	}
	if BackAdhesive != 32 || FrontFab != 49 {
		t.Fatalf("technical layer ids shifted: B.Adhes=%d F.Fab=%d", BackAdhesive, FrontFab)
	}
}

func TestInnerCopper(t *testing.T) {
	id, err := InnerCopper(4)
	if err != nil || id.Name() != "In4.Cu" {
		t.Fatalf("InnerCopper(4) = %v, %v", id, err)
	}
	for _, n := range []int{0, 31, -1} {
		if _, err := InnerCopper(n); err == nil {
			t.Errorf("InnerCopper(%d) succeeded", n)
		}
	}
}

func TestParseSpellings(t *testing.T) {
	for _, name := range []string{"F.Cu", "f.cu", "F_Cu", " f_cu ", "F.CU"} {
		if id, err := Parse(name); err != nil || id != FrontCopper {
			t.Errorf("Parse(%q) = %v, %v", name, id, err)
		}
	}
	if _, err := Parse("Top"); err == nil {
		t.Error("Parse(Top) succeeded")
	}
}

func TestParseAll(t *testing.T) {
	ids, err := ParseAll([]string{"F.Cu", "B.Cu", "Edge.Cuts"})
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(ids) != 3 || ids[0] != FrontCopper || ids[1] != BackCopper || ids[2] != EdgeCuts {
		t.Fatalf("ParseAll = %v", ids)
	}
	if _, err := ParseAll([]string{"F.Cu", "f_cu"}); err == nil {
		t.Fatal("ParseAll accepted a duplicate")
	}
	if _, err := ParseAll([]string{"F.Cu", "nope"}); err == nil {
		t.Fatal("ParseAll accepted an unknown layer")
	}
}
