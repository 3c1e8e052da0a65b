// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/fabrun/fabrun/lib/artifact"
	"github.com/fabrun/fabrun/lib/layer"
	"github.com/fabrun/fabrun/lib/supervisor"
	"github.com/fabrun/fabrun/lib/testutil"
)

// onePagePDF returns a minimal valid PDF with a single page.
func onePagePDF() []byte {
	content := "0 0 m 100 100 l S"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}
	var buffer bytes.Buffer
	buffer.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, object := range objects {
		offsets[i] = buffer.Len()
		fmt.Fprintf(&buffer, "%d 0 obj\n%s\nendobj\n", i+1, object)
	}
	xref := buffer.Len()
	fmt.Fprintf(&buffer, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&buffer, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buffer, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buffer.Bytes()
}

// fakePlotter installs a kicad-cli stand-in that logs its arguments
// and writes the files the real tool would. PDFs are one-page copies
// of onePagePDF; drillMap controls whether "drill --generate-map"
// writes a map, as it does for boards with holes.
func fakePlotter(t *testing.T, h *testHarness, drillMap bool) string {
	t.Helper()
	dir := t.TempDir()
	log := filepath.Join(dir, "calls")
	page := filepath.Join(dir, "page.pdf")
	if err := os.WriteFile(page, onePagePDF(), 0o644); err != nil {
		t.Fatal(err)
	}
	h.config.Tools.KicadCLI = testutil.WriteScript(t, "kicad-cli", fmt.Sprintf(`echo "$@" >> %q
kind="$3"
out=""
board=""
map=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift ;;
    --generate-map) map=%t ;;
    *) board="$1" ;;
  esac
  shift
done
name=$(basename "$board" .kicad_pcb)
case "$kind" in
  gerbers)
    echo G04 > "${out}${name}-F_Cu.gbr"
    echo G04 > "${out}${name}-B_Cu.gbr"
    ;;
  drill)
    echo M48 > "${out}${name}.drl"
    if [ "$map" = true ]; then cp %q "${out}${name}-drl_map.pdf"; fi
    ;;
  pdf) cp %q "$out" ;;
esac`, log, drillMap, page, page))
	return log
}

func readCalls(t *testing.T, log string) []string {
	t.Helper()
	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestPlotZipGerbers(t *testing.T) {
	h := newHarness(t)
	log := fakePlotter(t, h, true)
	board := writeFile(t, t.TempDir(), "amplifier.kicad_pcb", "(kicad_pcb)")
	outputDir := t.TempDir()

	outcome, err := h.runner.Plot(t.Context(), PlotRequest{
		Board:     board,
		OutputDir: outputDir,
		Format:    PlotZipGerbers,
		Layers:    []string{"F.Cu", "b_cu"},
	})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	if want := filepath.Join(outputDir, "amplifier_gerbers.zip"); outcome.Artifact != want {
		t.Errorf("artifact = %q, want %q", outcome.Artifact, want)
	}
	if !slices.Equal(outcome.Layers, []layer.ID{layer.FrontCopper, layer.BackCopper}) {
		t.Errorf("layers = %v", outcome.Layers)
	}

	calls := readCalls(t, log)
	if len(calls) != 2 {
		t.Fatalf("calls = %q, want gerbers then drill", calls)
	}
	if !strings.HasPrefix(calls[0], "pcb export gerbers --output ") || !strings.Contains(calls[0], "--layers F.Cu,B.Cu "+board) {
		t.Errorf("gerber call = %q", calls[0])
	}
	if !strings.HasPrefix(calls[1], "pcb export drill --output ") {
		t.Errorf("drill call = %q", calls[1])
	}

	archive, err := zip.OpenReader(outcome.Artifact)
	if err != nil {
		t.Fatal(err)
	}
	defer archive.Close()
	var names []string
	for _, file := range archive.File {
		names = append(names, file.Name)
	}
	slices.Sort(names)
	if want := []string{"amplifier-B_Cu.gbr", "amplifier-F_Cu.gbr", "amplifier.drl"}; !slices.Equal(names, want) {
		t.Errorf("archive entries = %v, want %v", names, want)
	}

	manifest, err := artifact.ReadManifest(outputDir)
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Workflow != "plot" || manifest.Source != board {
		t.Errorf("manifest = %+v", manifest)
	}
	if len(manifest.Files) != 1 || manifest.Files[0].Path != "amplifier_gerbers.zip" {
		t.Errorf("manifest files = %+v", manifest.Files)
	}
	if err := manifest.Verify(outputDir); err != nil {
		t.Errorf("Verify: %v", err)
	}

	entries, _ := os.ReadDir(outputDir)
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".plot-") {
			t.Errorf("scratch directory %s left behind", entry.Name())
		}
	}
}

func TestPlotGerbersUseBoardSettingsWithoutLayers(t *testing.T) {
	h := newHarness(t)
	log := fakePlotter(t, h, true)
	board := writeFile(t, t.TempDir(), "amplifier.kicad_pcb", "")

	outcome, err := h.runner.Plot(t.Context(), PlotRequest{Board: board, OutputDir: t.TempDir(), Format: PlotZipGerbers})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	if len(outcome.Layers) != 0 {
		t.Errorf("layers = %v, want none", outcome.Layers)
	}
	if calls := readCalls(t, log); !strings.Contains(calls[0], "--board-plot-params") {
		t.Errorf("gerber call = %q", calls[0])
	}
}

func TestPlotPDFDefaultLayers(t *testing.T) {
	h := newHarness(t)
	log := fakePlotter(t, h, true)
	board := writeFile(t, t.TempDir(), "amplifier.kicad_pcb", "")
	outputDir := t.TempDir()

	outcome, err := h.runner.Plot(t.Context(), PlotRequest{Board: board, OutputDir: outputDir, Format: PlotPDF})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	output := filepath.Join(outputDir, "amplifier.pdf")
	if outcome.Artifact != output {
		t.Errorf("artifact = %q, want %q", outcome.Artifact, output)
	}
	if !slices.Equal(outcome.Layers, defaultPDFLayers) {
		t.Errorf("layers = %v", outcome.Layers)
	}

	calls := readCalls(t, log)
	if len(calls) != len(defaultPDFLayers)+1 {
		t.Fatalf("calls = %q, want one per layer then the drill map", calls)
	}
	for i, id := range defaultPDFLayers {
		want := fmt.Sprintf("pcb export pdf --layers %s --drill-shape-opt 2 --output ", id.Name())
		if !strings.HasPrefix(calls[i], want) || !strings.HasSuffix(calls[i], "amplifier-"+id.FileSuffix()+".pdf "+board) {
			t.Errorf("call %d = %q, want a single-layer %s plot", i, calls[i], id.Name())
		}
	}
	if last := calls[len(calls)-1]; !strings.HasPrefix(last, "pcb export drill --generate-map --map-format pdf --output ") {
		t.Errorf("drill map call = %q", last)
	}

	pages, err := api.PageCountFile(output)
	if err != nil {
		t.Fatalf("reading merged PDF: %v", err)
	}
	if pages != len(defaultPDFLayers)+1 {
		t.Errorf("merged PDF has %d pages, want %d", pages, len(defaultPDFLayers)+1)
	}

	entries, _ := os.ReadDir(outputDir)
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".plot-") {
			t.Errorf("scratch directory %s left behind", entry.Name())
		}
	}
}

func TestPlotPDFWithoutHoles(t *testing.T) {
	h := newHarness(t)
	fakePlotter(t, h, false)
	board := writeFile(t, t.TempDir(), "amplifier.kicad_pcb", "")
	outputDir := t.TempDir()

	outcome, err := h.runner.Plot(t.Context(), PlotRequest{
		Board:     board,
		OutputDir: outputDir,
		Format:    PlotPDF,
		Layers:    []string{"F.Cu", "Edge.Cuts"},
	})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	if pages, err := api.PageCountFile(outcome.Artifact); err != nil || pages != 2 {
		t.Errorf("merged PDF pages = %d (%v), want 2", pages, err)
	}
}

func TestPDFOutline(t *testing.T) {
	dir := t.TempDir()
	var parts []pdfPart
	for _, title := range []string{"F.Cu", "B.Cu", drillMapTitle} {
		path := filepath.Join(dir, title+".pdf")
		if err := os.WriteFile(path, onePagePDF(), 0o644); err != nil {
			t.Fatal(err)
		}
		parts = append(parts, pdfPart{Path: path, Title: title})
	}

	bookmarks, err := pdfOutline(parts)
	if err != nil {
		t.Fatalf("pdfOutline: %v", err)
	}
	var got []string
	for _, bookmark := range bookmarks {
		got = append(got, fmt.Sprintf("%s@%d-%d", bookmark.Title, bookmark.PageFrom, bookmark.PageThru))
	}
	if want := []string{"F.Cu@1-1", "B.Cu@2-2", "Drill map@3-3"}; !slices.Equal(got, want) {
		t.Errorf("outline = %q, want %q", got, want)
	}
}

func TestPDFOutlineRejectsInvalidPlot(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.pdf", "%PDF")
	if _, err := pdfOutline([]pdfPart{{Path: path, Title: "F.Cu"}}); err == nil {
		t.Fatal("accepted a truncated PDF")
	}
}

func TestPlotRejectsBadRequests(t *testing.T) {
	h := newHarness(t)
	log := fakePlotter(t, h, true)
	board := writeFile(t, t.TempDir(), "amplifier.kicad_pcb", "")

	tests := []struct {
		name    string
		request PlotRequest
	}{
		{"unknown layer", PlotRequest{Board: board, OutputDir: t.TempDir(), Format: PlotPDF, Layers: []string{"F.Gold"}}},
		{"duplicate layer", PlotRequest{Board: board, OutputDir: t.TempDir(), Format: PlotPDF, Layers: []string{"F.Cu", "f_cu"}}},
		{"unknown format", PlotRequest{Board: board, OutputDir: t.TempDir(), Format: "step"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := h.runner.Plot(t.Context(), test.request); err == nil {
				t.Error("request accepted")
			}
		})
	}
	if _, err := os.Stat(log); !errors.Is(err, os.ErrNotExist) {
		t.Error("plot tool ran for an invalid request")
	}
}

func TestPlotToolFailure(t *testing.T) {
	h := newHarness(t)
	h.config.Tools.KicadCLI = testutil.WriteScript(t, "kicad-cli", "echo 'board file is corrupt' >&2\nexit 3")
	board := writeFile(t, t.TempDir(), "amplifier.kicad_pcb", "")
	outputDir := t.TempDir()

	_, err := h.runner.Plot(t.Context(), PlotRequest{Board: board, OutputDir: outputDir, Format: PlotPDF})
	var exitErr *supervisor.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *supervisor.ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.Code)
	}
	if _, err := os.Stat(filepath.Join(outputDir, artifact.ManifestName)); !errors.Is(err, os.ErrNotExist) {
		t.Error("manifest written for a failed plot")
	}
}
