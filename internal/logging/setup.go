// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control where and how much the application logs.
type Options struct {
	Level      slog.Level
	File       string // empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a logger writing text records to stdout and, when File is set,
// to a size-rotated file. The returned closer releases the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	return newLogger(os.Stdout, opts)
}

func newLogger(stdout io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	out := stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    nz(opts.MaxSizeMB, 100), // megabytes
			MaxBackups: nz(opts.MaxBackups, 3),
			MaxAge:     nz(opts.MaxAgeDays, 28), // days
			Compress:   true,
		}
		out = io.MultiWriter(stdout, lj)
		closer = lj
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(NewContextHandler(handler)), closer, nil
}

func nz(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
