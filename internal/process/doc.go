// Package process starts child processes in their own process group and
// tears the whole group down, so renderers that fork helpers (LilyPond runs
// Ghostscript) never outlive a cancelled run.
package process
