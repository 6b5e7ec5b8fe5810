// Package studio is the shared root of the AI Studio toolbox.
//
// # Overview
//
// The toolbox is a set of independent utilities for a solo creator's
// image and prompt workflow, exposed through the studio command:
//
//   - clean: batch fringe/halo removal for cutouts (internal/cleanup)
//   - seamless: tileability check for textures (internal/seamless)
//   - split: sprite sheet splitting (internal/sprite)
//   - resize: batch resampling (internal/image)
//   - jobs: job-card folders routed by status (internal/jobcard)
//   - prompts: prompt templates and sequences (internal/prompt)
//   - launch: model launcher presets (internal/launcher)
//
// The tools share nothing but the ambient stack: configuration
// (internal/config), image buffers and codecs (internal/image), the bounded
// worker pool (internal/parallel) and the logger in this package.
//
// # Logging
//
// Library packages log through [Logger], which is silent until the command
// installs a handler with [SetLogger]:
//
//	studio.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
package studio
