package transcribe

import (
	"strings"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

// Transcript is the merged output of a whole-file run.
type Transcript struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	Segments   []window.Segment `json:"segments"`
	DurationMs int64            `json:"duration_ms"`
	Windows    int              `json:"windows"`
}

// NormalizedText returns Text with runs of whitespace collapsed to one space.
func (t Transcript) NormalizedText() string {
	return strings.Join(strings.Fields(t.Text), " ")
}

// MergeShortSegments joins consecutive segments while both the accumulated
// segment and the next one are shorter than minDurationMs.
func (t Transcript) MergeShortSegments(minDurationMs int64) []window.Segment {
	if len(t.Segments) == 0 {
		return []window.Segment{}
	}
	merged := make([]window.Segment, 0, len(t.Segments))
	current := t.Segments[0]
	for _, next := range t.Segments[1:] {
		if current.End-current.Start < minDurationMs && next.End-next.Start < minDurationMs {
			current.End = next.End
			current.Text = strings.TrimSpace(current.Text + " " + next.Text)
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
