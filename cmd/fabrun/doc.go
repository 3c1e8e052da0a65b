// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Fabrun runs KiCad's schematic and board editors headless: it exports
// schematics, runs the electrical and design rules checks, round-trips
// boards through a Specctra autorouter, and plots fabrication outputs.
//
// Usage:
//
//	fabrun schematic export <schematic> <output-dir> [--file-format svg|pdf] [--all-pages] [--record]
//	fabrun schematic erc    <schematic> <output-dir> [--warnings-as-errors] [--record]
//	fabrun pcb drc          <board> <output-dir> [--ignore-unconnected] [--record]
//	fabrun pcb export-dsn   <board> <output-file> [--record]
//	fabrun pcb import-ses   <board> <ses-file> [--output-file PATH] [--record]
//	fabrun pcb plot         <board> <output-dir> [layer...] [--file-format zip_gerbers|pdf]
//	fabrun pcb layers
//	fabrun version
package main
