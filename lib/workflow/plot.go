// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fabrun/fabrun/lib/artifact"
	"github.com/fabrun/fabrun/lib/layer"
	"github.com/fabrun/fabrun/lib/supervisor"
	"github.com/fabrun/fabrun/lib/version"
)

// PlotFormat is an output format of Plot.
type PlotFormat string

const (
	// PlotZipGerbers plots Gerber layers and the drill file and packs
	// them into one archive.
	PlotZipGerbers PlotFormat = "zip_gerbers"
	// PlotPDF plots each layer to its own page, followed by the drill
	// map, in one bookmarked PDF.
	PlotPDF PlotFormat = "pdf"
)

// ParsePlotFormat validates a format name.
func ParsePlotFormat(name string) (PlotFormat, error) {
	switch format := PlotFormat(name); format {
	case PlotZipGerbers, PlotPDF:
		return format, nil
	}
	return "", fmt.Errorf("unsupported plot format %q (want zip_gerbers or pdf)", name)
}

// defaultPDFLayers are plotted to PDF when no layers are named.
var defaultPDFLayers = []layer.ID{
	layer.FrontCopper, layer.BackCopper,
	layer.FrontSilkscreen, layer.BackSilkscreen,
	layer.FrontMask, layer.BackMask,
	layer.EdgeCuts,
}

// PlotRequest requests a headless plot of a board.
type PlotRequest struct {
	Board     string
	OutputDir string
	Format    PlotFormat
	// Layers names the layers to plot. Empty plots the layers selected
	// in the board's own plot settings (Gerber) or defaultPDFLayers.
	Layers []string
}

// PlotOutcome describes a finished plot.
type PlotOutcome struct {
	Artifact string
	Manifest string
	Layers   []layer.ID
}

// Plot plots a board with the command-line tool, which needs no
// display, and records the result in a manifest next to it.
func (r *Runner) Plot(ctx context.Context, request PlotRequest) (PlotOutcome, error) {
	logger := r.logger.With("workflow", "plot")

	board, err := requireFile(request.Board)
	if err != nil {
		return PlotOutcome{}, err
	}
	if _, err := ParsePlotFormat(string(request.Format)); err != nil {
		return PlotOutcome{}, err
	}
	layers, err := layer.ParseAll(request.Layers)
	if err != nil {
		return PlotOutcome{}, err
	}
	if len(layers) == 0 && request.Format == PlotPDF {
		layers = slices.Clone(defaultPDFLayers)
	}
	outputDir, err := prepareDirectory(request.OutputDir)
	if err != nil {
		return PlotOutcome{}, err
	}
	boardInfo, err := os.Stat(board)
	if err != nil {
		return PlotOutcome{}, fmt.Errorf("reading board: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeouts.Plot)
	defer cancel()

	var output string
	switch request.Format {
	case PlotPDF:
		output = filepath.Join(outputDir, baseName(board)+".pdf")
		if err := removeStale(logger, output); err != nil {
			return PlotOutcome{}, err
		}
		if err := r.plotPDF(ctx, logger, board, layers, output); err != nil {
			return PlotOutcome{}, err
		}
	case PlotZipGerbers:
		output = filepath.Join(outputDir, baseName(board)+"_gerbers.zip")
		if err := removeStale(logger, output); err != nil {
			return PlotOutcome{}, err
		}
		if err := r.plotGerbers(ctx, logger, board, layers, output, boardInfo); err != nil {
			return PlotOutcome{}, err
		}
	}
	if _, err := os.Stat(output); err != nil {
		return PlotOutcome{}, fmt.Errorf("plot produced no output: %w", err)
	}

	entries, err := artifact.Build(outputDir, []string{output})
	if err != nil {
		return PlotOutcome{}, err
	}
	manifest := &artifact.Manifest{
		Workflow: "plot",
		Source:   board,
		Created:  r.clock.Now().UTC(),
		Version:  version.Info(),
		Files:    entries,
	}
	manifestPath, err := manifest.Write(outputDir)
	if err != nil {
		return PlotOutcome{}, err
	}

	logger.Info("board plotted", "output", output, "format", request.Format, "layers", layerList(layers))
	return PlotOutcome{Artifact: output, Manifest: manifestPath, Layers: layers}, nil
}

// plotGerbers plots Gerber and drill files into a scratch directory
// and archives everything the tool wrote there.
func (r *Runner) plotGerbers(ctx context.Context, logger *slog.Logger, board string, layers []layer.ID, output string, boardInfo os.FileInfo) error {
	scratch, err := os.MkdirTemp(filepath.Dir(output), ".plot-")
	if err != nil {
		return fmt.Errorf("creating plot directory: %w", err)
	}
	defer os.RemoveAll(scratch)
	target := scratch + string(filepath.Separator)

	gerbers := []string{r.config.Tools.KicadCLI, "pcb", "export", "gerbers", "--output", target}
	if len(layers) == 0 {
		gerbers = append(gerbers, "--board-plot-params")
	} else {
		gerbers = append(gerbers, "--layers", layerList(layers))
	}
	gerbers = append(gerbers, board)
	if err := r.runTool(ctx, logger, gerbers); err != nil {
		return err
	}
	drill := []string{r.config.Tools.KicadCLI, "pcb", "export", "drill", "--output", target, board}
	if err := r.runTool(ctx, logger, drill); err != nil {
		return err
	}

	dirEntries, err := os.ReadDir(scratch)
	if err != nil {
		return fmt.Errorf("reading plot directory: %w", err)
	}
	var files []string
	for _, entry := range dirEntries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(scratch, entry.Name()))
		}
	}
	if len(files) == 0 {
		return errors.New("plot produced no files")
	}
	// Entries carry the board's timestamp so that replotting an
	// unchanged board yields the same archive.
	return artifact.Zip(output, files, boardInfo.ModTime())
}

// runTool runs one headless command to completion. Its stderr is
// logged when it fails.
func (r *Runner) runTool(ctx context.Context, logger *slog.Logger, argv []string) error {
	var stderr bytes.Buffer
	return supervisor.With(supervisor.Config{
		Argv:           argv,
		Stderr:         &stderr,
		TerminateGrace: r.config.Timeouts.TerminateGrace,
		Logger:         logger,
	}, func(tool *supervisor.Process) error {
		err := tool.Wait(ctx)
		// stderr is complete only once the tool has been reaped.
		var exitErr *supervisor.ExitError
		if errors.As(err, &exitErr) {
			logger.Error("plot command failed", "argv", argv, "stderr", strings.TrimSpace(stderr.String()), "exit_code", exitErr.Code)
		}
		return err
	})
}

func layerList(layers []layer.ID) string {
	names := make([]string, len(layers))
	for i, id := range layers {
		names[i] = id.Name()
	}
	return strings.Join(names, ",")
}
