package engine

import "runtime"

// Options configures decoding for an engine instance. Fields left at their
// zero value fall back to configuration defaults or auto-detection.
type Options struct {
	// Language is an ISO code or "auto".
	Language string
	// Translate enables translation from the source language to English.
	Translate bool
	// Threads bounds the CPU threads used for inference (0 = all cores).
	Threads int
}

func (o Options) threadCount() uint {
	if o.Threads > 0 {
		return uint(o.Threads)
	}
	return uint(runtime.NumCPU())
}
