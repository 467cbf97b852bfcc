package config

const (
	defaultDataDir                = "~/.local/share/curio"
	defaultExportDir              = "~/curio-exports"
	defaultLogFileName            = "curio.log"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultExportProduct          = "curio"
	defaultAutofillBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultAutofillModel          = "google/gemini-2.5-flash"
	defaultAutofillReferer        = "https://github.com/curio-collections/curio"
	defaultAutofillTitle          = "Curio Auto-fill"
	defaultAutofillTimeoutSeconds = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ExportDir: defaultExportDir,
		},
		Autofill: Autofill{
			Enabled:        true,
			BaseURL:        defaultAutofillBaseURL,
			Model:          defaultAutofillModel,
			Referer:        defaultAutofillReferer,
			Title:          defaultAutofillTitle,
			TimeoutSeconds: defaultAutofillTimeoutSeconds,
		},
		Export: Export{
			Product: defaultExportProduct,
			Pretty:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
