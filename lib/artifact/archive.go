// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
)

// Zip packs files into a deflate-compressed archive at destination,
// each stored under its base name. Entries carry modified as their
// timestamp so that identical inputs produce an identical archive.
// The archive is built under a temporary name and renamed into place.
func Zip(destination string, files []string, modified time.Time) error {
	temporary := destination + ".tmp"
	output, err := os.Create(temporary)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer os.Remove(temporary)

	writer := zip.NewWriter(output)
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		name := filepath.Base(file)
		if seen[name] {
			output.Close()
			return fmt.Errorf("archive %s: duplicate entry %s", destination, name)
		}
		seen[name] = true
		if err := addFile(writer, file, name, modified); err != nil {
			output.Close()
			return fmt.Errorf("archive %s: %w", destination, err)
		}
	}
	if err := writer.Close(); err != nil {
		output.Close()
		return fmt.Errorf("finishing archive %s: %w", destination, err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("closing archive %s: %w", destination, err)
	}
	if err := os.Rename(temporary, destination); err != nil {
		return fmt.Errorf("renaming archive into place: %w", err)
	}
	return nil
}

func addFile(writer *zip.Writer, path, name string, modified time.Time) error {
	input, err := os.Open(path)
	if err != nil {
		return err
	}
	defer input.Close()

	header := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified.UTC()}
	entry, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := io.Copy(entry, input); err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	return nil
}
