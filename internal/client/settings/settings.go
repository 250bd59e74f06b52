// Package settings describes the tunables the browser client runs with.
package settings

import "time"

// Settings is the JSON document served at /api/client/settings. Durations are
// expressed in milliseconds on the wire.
type Settings struct {
	CSRFCookie          string `json:"csrf_cookie" koanf:"csrf_cookie"`
	MaxUploadBytes      int64  `json:"max_upload_bytes" koanf:"max_upload_bytes"`
	SearchDebounceMS    int    `json:"search_debounce_ms" koanf:"search_debounce_ms"`
	SuggestionMinLength int    `json:"suggestion_min_length" koanf:"suggestion_min_length"`
	SearchPagePath      string `json:"search_page_path" koanf:"search_page_path"`
	ToastDurationMS     int    `json:"toast_duration_ms" koanf:"toast_duration_ms"`
	ReloadDelayMS       int    `json:"reload_delay_ms" koanf:"reload_delay_ms"`
	FadeOutMS           int    `json:"fade_out_ms" koanf:"fade_out_ms"`
	CollapseBreakpoint  int    `json:"collapse_breakpoint" koanf:"collapse_breakpoint"`
	ContentSelector     string `json:"content_selector" koanf:"content_selector"`
}

// Defaults mirrors the behaviour the pages were designed around.
func Defaults() Settings {
	return Settings{
		CSRFCookie:          "csrftoken",
		MaxUploadBytes:      50 * 1024 * 1024,
		SearchDebounceMS:    300,
		SuggestionMinLength: 2,
		SearchPagePath:      "/search/",
		ToastDurationMS:     3000,
		ReloadDelayMS:       1000,
		FadeOutMS:           300,
		CollapseBreakpoint:  992,
		ContentSelector:     "#content-container",
	}
}

// Normalize fills zero or invalid fields from Defaults.
func (s Settings) Normalize() Settings {
	d := Defaults()
	if s.CSRFCookie == "" {
		s.CSRFCookie = d.CSRFCookie
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = d.MaxUploadBytes
	}
	if s.SearchDebounceMS <= 0 {
		s.SearchDebounceMS = d.SearchDebounceMS
	}
	if s.SuggestionMinLength <= 0 {
		s.SuggestionMinLength = d.SuggestionMinLength
	}
	if s.SearchPagePath == "" {
		s.SearchPagePath = d.SearchPagePath
	}
	if s.ToastDurationMS <= 0 {
		s.ToastDurationMS = d.ToastDurationMS
	}
	if s.ReloadDelayMS <= 0 {
		s.ReloadDelayMS = d.ReloadDelayMS
	}
	if s.FadeOutMS <= 0 {
		s.FadeOutMS = d.FadeOutMS
	}
	if s.CollapseBreakpoint <= 0 {
		s.CollapseBreakpoint = d.CollapseBreakpoint
	}
	if s.ContentSelector == "" {
		s.ContentSelector = d.ContentSelector
	}
	return s
}

func (s Settings) SearchDebounce() time.Duration { return ms(s.SearchDebounceMS) }
func (s Settings) ToastDuration() time.Duration  { return ms(s.ToastDurationMS) }
func (s Settings) ReloadDelay() time.Duration    { return ms(s.ReloadDelayMS) }
func (s Settings) FadeOut() time.Duration        { return ms(s.FadeOutMS) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
