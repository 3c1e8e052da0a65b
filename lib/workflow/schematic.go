// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fabrun/fabrun/lib/filewatch"
	"github.com/fabrun/fabrun/lib/report"
	"github.com/fabrun/fabrun/lib/supervisor"
	"github.com/fabrun/fabrun/lib/xdo"
)

// SchematicExport requests a plot of a schematic.
type SchematicExport struct {
	Schematic string
	OutputDir string
	Format    SchematicFormat
	// AllPages plots every sheet into one file instead of only the
	// root sheet.
	AllPages bool
	Record   bool
}

// ExportSchematic plots a schematic to PDF or SVG through the
// schematic editor's plot dialog and returns the output file path.
func (r *Runner) ExportSchematic(ctx context.Context, request SchematicExport) (string, error) {
	logger := r.logger.With("workflow", "export_schematic")

	schematic, err := requireFile(request.Schematic)
	if err != nil {
		return "", err
	}
	if _, err := ParseSchematicFormat(string(request.Format)); err != nil {
		return "", err
	}
	outputDir, err := prepareDirectory(request.OutputDir)
	if err != nil {
		return "", err
	}
	output := filepath.Join(outputDir, baseName(schematic)+"."+string(request.Format))
	if err := removeStale(logger, output); err != nil {
		return "", err
	}
	if err := resetPlotFormat(filepath.Join(r.config.Paths.KicadConfigDir, "eeschema")); err != nil {
		return "", err
	}

	options := sessionOptions{name: "export_schematic", video: videoPath(request.Record, outputDir, "export_schematic")}
	err = r.environment(ctx, options, func(s *session) error {
		return r.withApplication(s, []string{r.config.Tools.Eeschema, schematic}, nil, func(editor *supervisor.Process) error {
			// The plot dialog's directory field takes a trailing
			// separator as "this directory".
			r.storeClipboard(ctx, s, outputDir+string(filepath.Separator))

			if err := r.dismissLibraryWarning(ctx, s); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "eeschema", eeschemaMainPattern); err != nil {
				return err
			}
			s.logger.Info("opening File > Plot")
			if err := s.desktop.SendKeys(ctx, plotMenuKeys...); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "plot", plotDialogPattern); err != nil {
				return err
			}
			s.logger.Info("pasting output directory")
			if err := s.desktop.SendKeys(ctx, "ctrl+v"); err != nil {
				return err
			}
			s.logger.Info("selecting plot format", "format", request.Format, "all_pages", request.AllPages)
			if err := s.desktop.SendKeys(ctx, plotDialogKeys(request.Format, request.AllPages)...); err != nil {
				return err
			}
			if err := s.desktop.SendKeys(ctx, "Return"); err != nil {
				return err
			}
			return s.files.WaitForFileClosed(ctx, filewatch.Expectation{PID: editor.PID(), Path: output})
		})
	})
	if err != nil {
		return "", err
	}
	logger.Info("schematic exported", "output", output)
	return output, nil
}

// ERCRequest requests an electrical rules check.
type ERCRequest struct {
	Schematic string
	OutputDir string
	Record    bool
}

// ERCOutcome is the result of an electrical rules check.
type ERCOutcome struct {
	Report string
	Result report.ERCResult
}

// RunERC runs the electrical rules checker, has it write its report
// into the output directory, and parses the report.
func (r *Runner) RunERC(ctx context.Context, request ERCRequest) (ERCOutcome, error) {
	logger := r.logger.With("workflow", "run_erc")

	schematic, err := requireFile(request.Schematic)
	if err != nil {
		return ERCOutcome{}, err
	}
	outputDir, err := prepareDirectory(request.OutputDir)
	if err != nil {
		return ERCOutcome{}, err
	}

	var reportPath string
	options := sessionOptions{name: "run_erc", video: videoPath(request.Record, outputDir, "run_erc_schematic")}
	// eeschema offers to open the finished report in $EDITOR; cat
	// exits at once and leaves no window behind.
	editorEnv := []string{"EDITOR=/bin/cat"}
	err = r.environment(ctx, options, func(s *session) error {
		return r.withApplication(s, []string{r.config.Tools.Eeschema, schematic}, editorEnv, func(editor *supervisor.Process) error {
			if err := r.dismissLibraryWarning(ctx, s); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "eeschema", eeschemaMainPattern); err != nil {
				return err
			}
			s.logger.Info("opening Tools > Electrical Rules Checker")
			if err := s.desktop.SendKeys(ctx, ercMenuKeys...); err != nil {
				return err
			}
			r.storeClipboard(ctx, s, outputDir+string(filepath.Separator))

			if _, err := r.waitFor(ctx, s, "Electrical Rules Checker", ercDialogPattern); err != nil {
				return err
			}
			if err := s.desktop.SendKeys(ctx, ercDialogKeys()...); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "ERC file save dialog", ercSavePattern); err != nil {
				return err
			}

			// The save dialog proposes "<schematic>.erc". Prefixing the
			// output directory and copying the field back gives the
			// exact path the editor will write.
			s.logger.Info("pasting output directory")
			if err := s.desktop.SendKeys(ctx, "Home", "ctrl+v", "ctrl+a", "ctrl+c"); err != nil {
				return err
			}
			copied, err := s.desktop.ClipboardRetrieve(ctx)
			if err != nil {
				return err
			}
			reportPath = xdo.NormalizeClipboard(copied)
			if !filepath.IsAbs(reportPath) {
				return fmt.Errorf("ERC save dialog holds %q, not an absolute path", reportPath)
			}
			if err := removeStale(s.logger, reportPath); err != nil {
				return err
			}

			s.logger.Info("running ERC", "report", reportPath)
			if err := s.desktop.SendKeys(ctx, "Return"); err != nil {
				return err
			}
			return s.files.WaitForFileClosed(ctx, filewatch.Expectation{PID: editor.PID(), Path: reportPath})
		})
	})
	if err != nil {
		return ERCOutcome{}, err
	}

	result, err := report.ParseERCFile(reportPath)
	if err != nil {
		return ERCOutcome{}, err
	}
	logger.Info("ERC finished", "report", reportPath, "errors", result.Errors, "warnings", result.Warnings)
	return ERCOutcome{Report: reportPath, Result: result}, nil
}

// resetPlotFormat rewrites the editor's remembered plot format to
// HPGL (0), the state plotDialogKeys starts from. A missing settings
// file already means HPGL.
func resetPlotFormat(settingsPath string) error {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading editor settings: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	changed := false
	for i, line := range lines {
		key, _, found := strings.Cut(line, "=")
		if found && key == "PlotFormat" && strings.TrimRight(line, "\r\n") != "PlotFormat=0" {
			lines[i] = "PlotFormat=0\n"
			changed = true
		}
	}
	if !changed {
		return nil
	}

	temporary := settingsPath + ".new"
	if err := os.WriteFile(temporary, []byte(strings.Join(lines, "")), 0o644); err != nil {
		return fmt.Errorf("writing editor settings: %w", err)
	}
	if err := os.Rename(temporary, settingsPath); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("replacing editor settings: %w", err)
	}
	return nil
}
