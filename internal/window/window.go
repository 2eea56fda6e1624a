// Package window computes transcription window boundaries and the
// continuation state carried between consecutive windows.
package window

import (
	"fmt"
	"math"
	"strconv"
)

// Overlap is the backward step applied when advancing to the next window so
// words straddling a boundary are seen twice.
const Overlap int64 = 5000

// Request describes the window the caller wants transcribed next.
type Request struct {
	OffsetMs int64
	LengthMs int64
	TotalMs  int64
	// Context carries the tokens returned by the previous window, in order.
	Context []string
}

// Plan is the outcome of the windowing arithmetic for a single request.
type Plan struct {
	StartMs      int64
	EndMs        int64
	Completed    bool
	NextOffsetMs int64
	Context      []string
}

// Segment is a bounded interval [Start, End) mapped to produced text.
type Segment struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

// Result is the record returned to the host for every processed window.
type Result struct {
	Text         string    `json:"text"`
	Segments     []Segment `json:"segments"`
	Context      []string  `json:"context"`
	Completed    bool      `json:"completed"`
	NextOffsetMs int64     `json:"next_offset_ms"`
}

// Compute clamps the window to the total duration, appends the new end
// marker to the context and chooses the next offset.
func Compute(req Request) Plan {
	end := min(addSaturating(req.OffsetMs, req.LengthMs), req.TotalMs)
	if end < req.OffsetMs {
		end = req.OffsetMs
	}

	ctx := make([]string, 0, len(req.Context)+1)
	ctx = append(ctx, req.Context...)
	ctx = append(ctx, strconv.FormatInt(end/1000, 10))

	completed := end >= req.TotalMs
	next := end
	if !completed {
		next = max(0, end-Overlap)
		// Tiny windows would otherwise loop on the same offset forever.
		if next <= req.OffsetMs {
			next = end
		}
	}

	return Plan{
		StartMs:      req.OffsetMs,
		EndMs:        end,
		Completed:    completed,
		NextOffsetMs: next,
		Context:      ctx,
	}
}

// Result wraps text produced for the planned window into the host record.
func (p Plan) Result(text string) Result {
	return Result{
		Text: text,
		Segments: []Segment{{
			Start: p.StartMs,
			End:   p.EndMs,
			Text:  text,
		}},
		Context:      append([]string(nil), p.Context...),
		Completed:    p.Completed,
		NextOffsetMs: p.NextOffsetMs,
	}
}

// Describe renders the placeholder text for a window.
func Describe(startMs, endMs int64) string {
	return fmt.Sprintf("Window %ds→%ds", startMs/1000, endMs/1000)
}

func addSaturating(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}
