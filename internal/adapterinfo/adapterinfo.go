package adapterinfo

// Metadata captures static identifiers for the bridge. Centralising the values
// keeps the daemon, the gRPC service and emitted metadata in agreement.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
	Version     string
}

// Info describes the current bridge.
var Info = Metadata{
	Name:        "Nupi Whisper Bridge",
	BinaryName:  "plugin-stt-whisper-bridge",
	Slug:        "stt-whisper-bridge",
	Description: "Windowed speech-to-text bridge for Whisper engines.",
	GeneratorID: "stt-whisper-bridge",
	Version:     "0.3.0",
}

// Version returns the bridge release string.
func Version() string { return Info.Version }

// TranscriptMetadata produces the standard metadata payload attached
// to processed windows.
func TranscriptMetadata(engine, language string) map[string]string {
	return map[string]string{
		"generator": Info.GeneratorID,
		"version":   Info.Version,
		"engine":    engine,
		"language":  language,
	}
}
