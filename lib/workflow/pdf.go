// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/fabrun/fabrun/lib/layer"
)

// drillMapTitle is the bookmark of the drill map pages.
const drillMapTitle = "Drill map"

// pdfPart is one plotted PDF and the bookmark it gets in the merged
// document.
type pdfPart struct {
	Path  string
	Title string
}

var disablePDFConfigDir = sync.OnceFunc(api.DisableConfigDir)

// newPDFConfiguration returns a fresh configuration for one pdfcpu
// call. pdfcpu records the running command in it, so it is not shared.
func newPDFConfiguration() *model.Configuration {
	disablePDFConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// plotPDF plots every layer to its own page with drill shapes drawn,
// appends the drill map, and merges the pages into output with one
// bookmark per layer.
func (r *Runner) plotPDF(ctx context.Context, logger *slog.Logger, board string, layers []layer.ID, output string) error {
	scratch, err := os.MkdirTemp(filepath.Dir(output), ".plot-")
	if err != nil {
		return fmt.Errorf("creating plot directory: %w", err)
	}
	defer os.RemoveAll(scratch)
	name := baseName(board)

	parts := make([]pdfPart, 0, len(layers)+1)
	for _, id := range layers {
		page := filepath.Join(scratch, name+"-"+id.FileSuffix()+".pdf")
		logger.Debug("plotting layer to PDF", "layer", id.Name())
		argv := []string{r.config.Tools.KicadCLI, "pcb", "export", "pdf",
			"--layers", id.Name(), "--drill-shape-opt", "2", "--output", page, board}
		if err := r.runTool(ctx, logger, argv); err != nil {
			return err
		}
		parts = append(parts, pdfPart{Path: page, Title: id.Name()})
	}

	drillDir := filepath.Join(scratch, "drill")
	if err := os.Mkdir(drillDir, 0o755); err != nil {
		return fmt.Errorf("creating drill map directory: %w", err)
	}
	argv := []string{r.config.Tools.KicadCLI, "pcb", "export", "drill",
		"--generate-map", "--map-format", "pdf", "--output", drillDir + string(filepath.Separator), board}
	if err := r.runTool(ctx, logger, argv); err != nil {
		return err
	}
	maps, err := filepath.Glob(filepath.Join(drillDir, "*.pdf"))
	if err != nil {
		return fmt.Errorf("finding drill map: %w", err)
	}
	if len(maps) == 0 {
		// No map is generated for a board without holes.
		logger.Info("board has no drill map")
	}
	slices.Sort(maps)
	for _, drillMap := range maps {
		parts = append(parts, pdfPart{Path: drillMap, Title: drillMapTitle})
	}

	return mergePDF(parts, output, scratch)
}

// mergePDF concatenates parts into output, replacing whatever outline
// the merge produces with the parts' titles.
func mergePDF(parts []pdfPart, output, scratch string) error {
	bookmarks, err := pdfOutline(parts)
	if err != nil {
		return err
	}
	files := make([]string, len(parts))
	for i, part := range parts {
		files[i] = part.Path
	}

	merged := filepath.Join(scratch, "merged.pdf")
	if err := api.MergeCreateFile(files, merged, false, newPDFConfiguration()); err != nil {
		return fmt.Errorf("merging plotted pages: %w", err)
	}
	if err := api.AddBookmarksFile(merged, output, bookmarks, true, newPDFConfiguration()); err != nil {
		return fmt.Errorf("adding layer bookmarks: %w", err)
	}
	return nil
}

// pdfOutline returns one top-level bookmark per part, pointing at the
// part's first page in the merged document.
func pdfOutline(parts []pdfPart) ([]pdfcpu.Bookmark, error) {
	disablePDFConfigDir()
	bookmarks := make([]pdfcpu.Bookmark, len(parts))
	page := 1
	for i, part := range parts {
		count, err := api.PageCountFile(part.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", part.Path, err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%s has no pages", part.Path)
		}
		bookmarks[i] = pdfcpu.Bookmark{PageFrom: page, PageThru: page + count - 1, Title: part.Title}
		page += count
	}
	return bookmarks, nil
}
