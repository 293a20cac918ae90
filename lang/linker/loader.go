// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package linker

import (
	"errors"
	"os"
	"path/filepath"
)

// DirLoader resolves template references against the referencing file's
// directory on the OS filesystem. A reference without an extension gets
// ".pug" appended.
type DirLoader struct{}

// Resolve joins relPath onto the directory of fromFile and canonicalizes it.
func (DirLoader) Resolve(relPath, fromFile string) (string, error) {
	if filepath.Ext(relPath) == "" {
		relPath += ".pug"
	}
	if filepath.IsAbs(relPath) {
		return filepath.Clean(relPath), nil
	}
	return filepath.Abs(filepath.Join(filepath.Dir(fromFile), relPath))
}

// Read returns the file's contents.
func (DirLoader) Read(canonicalPath string) ([]byte, error) {
	return os.ReadFile(canonicalPath)
}

// NoFiles is a Loader for templates compiled from in-memory strings: any
// extends or include reference fails.
type NoFiles struct{}

var errNoLoader = errors.New("template composition requires a file loader")

func (NoFiles) Resolve(relPath, fromFile string) (string, error) {
	return "", errNoLoader
}

func (NoFiles) Read(canonicalPath string) ([]byte, error) {
	return nil, errNoLoader
}
