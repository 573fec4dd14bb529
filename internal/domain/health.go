package domain

// PageMeta is structured metadata opportunistically extracted from an HTML
// response. All fields are best-effort; absence is not an error.
type PageMeta struct {
	// AppName comes from <meta name="application-name">.
	AppName string `json:"app_name,omitempty"`

	// Description comes from <meta name="description"> or og:description.
	Description string `json:"description,omitempty"`

	// Category comes from <meta name="category"> when present.
	Category string `json:"category,omitempty"`
}

// HealthResult is the outcome of one health check against a known App URL.
type HealthResult struct {
	// URL is the checked URL, echoed back so concurrent batch results
	// stay attributable.
	URL string `json:"url"`

	// Status is the reachability classification.
	Status Status `json:"status"`

	// StatusCode is set only when an HTTP response was received.
	StatusCode int `json:"status_code,omitempty"`

	// ResponseTimeMs is the observed round-trip time in milliseconds.
	// Measured for every check, including failed ones.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// Title is the page title when the response body was HTML.
	Title string `json:"title,omitempty"`

	// RedirectURL is the Location target when the response was a redirect.
	RedirectURL string `json:"redirect_url,omitempty"`

	// Meta holds opportunistically extracted page metadata, nil when the
	// response was not HTML or nothing was recognized.
	Meta *PageMeta `json:"meta,omitempty"`
}
