// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fabrun/fabrun/lib/filewatch"
	"github.com/fabrun/fabrun/lib/report"
	"github.com/fabrun/fabrun/lib/supervisor"
	"github.com/fabrun/fabrun/lib/xdo"
)

// DRCReportName is the report file RunDRC writes into its output
// directory.
const DRCReportName = "drc_result.rpt"

// DRCRequest requests a design rules check.
type DRCRequest struct {
	Board     string
	OutputDir string
	Record    bool
}

// DRCOutcome is the result of a design rules check.
type DRCOutcome struct {
	Report string
	Result report.DRCResult
}

// RunDRC runs the board editor's design rules check with zone refill
// and a report file, and parses the report.
func (r *Runner) RunDRC(ctx context.Context, request DRCRequest) (DRCOutcome, error) {
	logger := r.logger.With("workflow", "run_drc")

	board, err := requireFile(request.Board)
	if err != nil {
		return DRCOutcome{}, err
	}
	outputDir, err := prepareDirectory(request.OutputDir)
	if err != nil {
		return DRCOutcome{}, err
	}
	reportPath := filepath.Join(outputDir, DRCReportName)
	if err := removeStale(logger, reportPath); err != nil {
		return DRCOutcome{}, err
	}

	options := sessionOptions{name: "run_drc", video: videoPath(request.Record, outputDir, "run_drc")}
	err = r.environment(ctx, options, func(s *session) error {
		return r.withApplication(s, []string{r.config.Tools.Pcbnew, board}, nil, func(editor *supervisor.Process) error {
			r.storeClipboard(ctx, s, reportPath)
			if err := r.pcbnewPreamble(ctx, s); err != nil {
				return err
			}

			s.logger.Info("opening Inspect > Design Rules Checker")
			if err := s.desktop.SendKeys(ctx, drcMenuKeys...); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "DRC modal window", drcDialogPattern); err != nil {
				return err
			}
			if err := s.desktop.SendKeys(ctx, drcDialogKeys()...); err != nil {
				return err
			}
			s.logger.Info("pasting report path and starting DRC", "report", reportPath)
			if err := s.desktop.SendKeys(ctx, "ctrl+v", "Return"); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "report completed dialog", drcCompletedPattern); err != nil {
				return err
			}
			if err := s.desktop.SendKeys(ctx, "Return"); err != nil {
				return err
			}
			return s.files.WaitForFileClosed(ctx, filewatch.Expectation{PID: editor.PID(), Path: reportPath})
		})
	})
	if err != nil {
		return DRCOutcome{}, err
	}

	result, err := report.ParseDRCFile(reportPath)
	if err != nil {
		return DRCOutcome{}, err
	}
	logger.Info("DRC finished", "report", reportPath, "errors", result.Errors, "unconnected_pads", result.UnconnectedPads)
	return DRCOutcome{Report: reportPath, Result: result}, nil
}

// DSNExport requests a Specctra DSN export for an autorouter.
type DSNExport struct {
	Board  string
	Output string
	Record bool
}

// ExportDSN exports a board to a Specctra DSN file and returns its
// path. The output must not exist yet: the editor's overwrite prompt
// is not part of the key sequence.
func (r *Runner) ExportDSN(ctx context.Context, request DSNExport) (string, error) {
	logger := r.logger.With("workflow", "export_dsn")

	board, err := requireFile(request.Board)
	if err != nil {
		return "", err
	}
	output, err := requireAbsent(request.Output)
	if err != nil {
		return "", err
	}

	options := sessionOptions{name: "export_dsn", video: videoPath(request.Record, filepath.Dir(output), "export_dsn")}
	err = r.environment(ctx, options, func(s *session) error {
		return r.withApplication(s, []string{r.config.Tools.Pcbnew, board}, nil, func(editor *supervisor.Process) error {
			r.storeClipboard(ctx, s, output)
			if err := r.pcbnewPreamble(ctx, s); err != nil {
				return err
			}

			s.logger.Info("opening File > Export > Specctra DSN")
			if err := s.desktop.SendKeys(ctx, dsnExportMenuKeys...); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "Specctra DSN file dialog", dsnSavePattern); err != nil {
				return err
			}
			s.logger.Info("entering output path", "output", output)
			if err := s.desktop.SendKeys(ctx, replaceFieldKeys()...); err != nil {
				return err
			}
			return s.files.WaitForFileClosed(ctx, filewatch.Expectation{PID: editor.PID(), Path: output})
		})
	})
	if err != nil {
		return "", err
	}
	logger.Info("DSN exported", "output", output)
	return output, nil
}

// SESImport requests merging an autorouter session into a board.
type SESImport struct {
	Board string
	SES   string
	// Output saves the merged board to a new file. Empty saves the
	// board in place.
	Output string
	Record bool
}

// ImportSES merges a Specctra session file into a board, saves the
// result, and returns the path of the board written.
func (r *Runner) ImportSES(ctx context.Context, request SESImport) (string, error) {
	logger := r.logger.With("workflow", "import_ses")

	board, err := requireFile(request.Board)
	if err != nil {
		return "", err
	}
	ses, err := requireFile(request.SES)
	if err != nil {
		return "", err
	}
	output := board
	if request.Output != "" {
		output, err = requireAbsent(request.Output)
		if err != nil {
			return "", err
		}
	}

	options := sessionOptions{name: "import_ses", video: videoPath(request.Record, filepath.Dir(output), "import_ses")}
	err = r.environment(ctx, options, func(s *session) error {
		return r.withApplication(s, []string{r.config.Tools.Pcbnew, board}, nil, func(editor *supervisor.Process) error {
			r.storeClipboard(ctx, s, ses)
			if err := r.pcbnewPreamble(ctx, s); err != nil {
				return err
			}

			s.logger.Info("opening File > Import > Specctra Session")
			if err := s.desktop.SendKeys(ctx, sesImportMenuKeys...); err != nil {
				return err
			}
			if _, err := r.waitFor(ctx, s, "Import SES dialog", sesImportPattern); err != nil {
				return err
			}
			s.logger.Info("entering session path", "ses", ses)
			if err := s.desktop.SendKeys(ctx, replaceFieldKeys()...); err != nil {
				return err
			}
			// The merge has no completion signal of its own.
			if err := r.settle(ctx); err != nil {
				return err
			}

			if output != board {
				return r.saveBoardAs(ctx, s, editor, output)
			}
			return r.saveBoard(ctx, s, editor, board)
		})
	})
	if err != nil {
		return "", err
	}
	logger.Info("session imported", "board", output)
	return output, nil
}

func (r *Runner) saveBoardAs(ctx context.Context, s *session, editor *supervisor.Process, output string) error {
	r.storeClipboard(ctx, s, output)
	s.logger.Info("saving board as", "output", output)
	if err := s.desktop.SendKeys(ctx, "ctrl+shift+s"); err != nil {
		return err
	}
	if err := s.desktop.SendKeys(ctx, replaceFieldKeys()...); err != nil {
		return err
	}
	return s.files.WaitForFileClosed(ctx, filewatch.Expectation{PID: editor.PID(), Path: output})
}

// saveBoard saves in place. The file already exists, so completion is
// a modification time later than before the save.
func (r *Runner) saveBoard(ctx context.Context, s *session, editor *supervisor.Process, board string) error {
	before, err := os.Stat(board)
	if err != nil {
		return fmt.Errorf("reading board before save: %w", err)
	}
	s.logger.Info("saving board", "board", board)
	if err := s.desktop.SendKeys(ctx, "ctrl+s"); err != nil {
		return err
	}
	return s.files.WaitForFileClosed(ctx, filewatch.Expectation{
		PID:           editor.PID(),
		Path:          board,
		ModifiedAfter: before.ModTime(),
	})
}

// pcbnewPreamble waits for the board editor's main window and gets it
// into a state where menu accelerators work: focused, and resized once
// so the menu bar is built.
func (r *Runner) pcbnewPreamble(ctx context.Context, s *session) error {
	window, err := s.desktop.WaitForWindow(ctx, "pcbnew", pcbnewMainPattern,
		xdo.WaitOptions{Timeout: r.config.Timeouts.Window, NoFocus: true})
	if err != nil {
		return err
	}
	if _, err := r.waitFor(ctx, s, "pcbnew", pcbnewMainPattern); err != nil {
		return err
	}
	s.logger.Debug("resizing board editor", "width", pcbnewResizeWidth, "height", pcbnewResizeHeight)
	if err := s.desktop.ResizeWindow(ctx, window, pcbnewResizeWidth, pcbnewResizeHeight); err != nil {
		return err
	}
	_, err = r.waitFor(ctx, s, "pcbnew", pcbnewMainPattern)
	return err
}
