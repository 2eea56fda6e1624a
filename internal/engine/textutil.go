package engine

import "strings"

func normaliseLanguage(candidate, fallback string) string {
	if trimmed := strings.TrimSpace(candidate); trimmed != "" {
		return trimmed
	}
	if trimmed := strings.TrimSpace(fallback); trimmed != "" {
		return trimmed
	}
	return "auto"
}

// joinSegments concatenates non-blank segment texts with single spaces and
// drops Whisper's blank-audio marker.
func joinSegments(segments []string) string {
	var builder strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg)
		if text == "" || strings.EqualFold(text, "[BLANK_AUDIO]") {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(text)
	}
	return builder.String()
}
