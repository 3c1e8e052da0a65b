// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file name manifests are written under.
const ManifestName = "manifest.yaml"

// Manifest lists the files one workflow run produced.
type Manifest struct {
	// Workflow names the producing workflow ("plot", "drc", ...).
	Workflow string `yaml:"workflow"`

	// Source is the schematic or board the outputs were produced from.
	Source string `yaml:"source"`

	// Created is when the manifest was built.
	Created time.Time `yaml:"created"`

	// Version is the fabrun build that produced the outputs.
	Version string `yaml:"version,omitempty"`

	// Files are sorted by path.
	Files []Entry `yaml:"files"`
}

// Entry is one output file.
type Entry struct {
	// Path is relative to the manifest's directory, slash-separated.
	Path   string `yaml:"path"`
	Size   int64  `yaml:"size"`
	Digest string `yaml:"blake3"`
}

// Build hashes files (paths inside directory, absolute or relative to
// it) into a manifest.
func Build(directory string, files []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(directory, path)
		}
		relative, err := filepath.Rel(directory, path)
		if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is not inside %s", file, directory)
		}
		digest, size, err := HashFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Path:   filepath.ToSlash(relative),
			Size:   size,
			Digest: digest.String(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Write stores the manifest as directory/manifest.yaml and returns the
// path. The file is written to a temporary name and renamed, so a
// reader never sees a partial manifest.
func (m *Manifest) Write(directory string) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	path := filepath.Join(directory, ManifestName)
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads directory/manifest.yaml.
func ReadManifest(directory string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(directory, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &manifest, nil
}

// Verify re-hashes every listed file under directory and reports each
// one that is missing or differs.
func (m *Manifest) Verify(directory string) error {
	var problems []error
	for _, entry := range m.Files {
		path := filepath.Join(directory, filepath.FromSlash(entry.Path))
		digest, size, err := HashFile(path)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if size != entry.Size || digest.String() != entry.Digest {
			problems = append(problems, fmt.Errorf("%s: content changed (blake3 %s, manifest %s)", entry.Path, digest, entry.Digest))
		}
	}
	return errors.Join(problems...)
}
