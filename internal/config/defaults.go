package config

const (
	defaultConfigPath     = "~/.config/signset/config.toml"
	defaultCatalogPath    = "~/.signset/catalog.db"
	defaultDatasetRoot    = "MP_Data"
	defaultSequences      = 30
	defaultSequenceLength = 30
	defaultPrepDelayMs    = 2000
	defaultConfidence     = 0.5
	defaultHookTimeoutMs  = 10000
)

var defaultLabels = []string{"hello", "leo", "my", "name"}

// Default returns a Config populated with the reference collection protocol.
func Default() Config {
	return Config{
		Dataset: Dataset{
			Root:           defaultDatasetRoot,
			Labels:         append([]string(nil), defaultLabels...),
			Sequences:      defaultSequences,
			SequenceLength: defaultSequenceLength,
			Mode:           "overwrite",
		},
		Capture: Capture{
			Device:      "0",
			Width:       640,
			Height:      480,
			FPS:         30,
			PrepDelayMs: defaultPrepDelayMs,
			Window:      true,
			Progress:    true,
		},
		Detector: Detector{
			MinDetectionConfidence: defaultConfidence,
			MinTrackingConfidence:  defaultConfidence,
		},
		Catalog: Catalog{
			Enabled: true,
			Path:    defaultCatalogPath,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Hooks: Hooks{
			TimeoutMs: defaultHookTimeoutMs,
		},
	}
}
