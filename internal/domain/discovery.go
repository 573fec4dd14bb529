package domain

// DiscoveredServer is the outcome of probing one open port that answered
// an HTTP(S) request. Ports that are open but yield no HTTP response on
// either protocol are dropped by the probe, not reported.
type DiscoveredServer struct {
	// Port is the TCP port that answered.
	Port int `json:"port"`

	// Protocol is "http" or "https", whichever answered first.
	Protocol string `json:"protocol"`

	// URL is the canonical URL built from protocol, host and port.
	URL string `json:"url"`

	// StatusCode is the HTTP status code of the classification response.
	// Any status code counts as a positive classification.
	StatusCode int `json:"status_code"`

	// Title is the page title from a best-effort title-tag scan.
	// Empty when the page has none or the body was not HTML.
	Title string `json:"title,omitempty"`
}

// Identification is the result of naming a discovered service, either
// from the external identification collaborator or from the deterministic
// fallback rule table.
type Identification struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}
