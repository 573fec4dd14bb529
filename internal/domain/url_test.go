package domain

import "testing"

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantURL  string
		wantPort int
		wantErr  bool
	}{
		{
			name:     "already canonical",
			raw:      "http://localhost:3000",
			wantURL:  "http://localhost:3000",
			wantPort: 3000,
		},
		{
			name:     "uppercase scheme and host",
			raw:      "HTTP://Localhost:8080",
			wantURL:  "http://localhost:8080",
			wantPort: 8080,
		},
		{
			name:     "path and query stripped",
			raw:      "http://localhost:3000/admin?tab=1",
			wantURL:  "http://localhost:3000",
			wantPort: 3000,
		},
		{
			name:     "default http port",
			raw:      "http://localhost",
			wantURL:  "http://localhost:80",
			wantPort: 80,
		},
		{
			name:     "default https port",
			raw:      "https://localhost",
			wantURL:  "https://localhost:443",
			wantPort: 443,
		},
		{
			name:    "unsupported scheme",
			raw:     "ftp://localhost:21",
			wantErr: true,
		},
		{
			name:    "missing host",
			raw:     "http://",
			wantErr: true,
		},
		{
			name:    "port out of range",
			raw:     "http://localhost:99999",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotURL, gotPort, err := CanonicalURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CanonicalURL(%q) = %q, want error", tt.raw, gotURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("CanonicalURL(%q) returned error: %v", tt.raw, err)
			}
			if gotURL != tt.wantURL {
				t.Errorf("CanonicalURL(%q) url = %q, want %q", tt.raw, gotURL, tt.wantURL)
			}
			if gotPort != tt.wantPort {
				t.Errorf("CanonicalURL(%q) port = %d, want %d", tt.raw, gotPort, tt.wantPort)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusUnknown, StatusOnline, StatusOffline} {
		if !s.Valid() {
			t.Errorf("Status(%q).Valid() = false, want true", s)
		}
	}
	for _, s := range []Status{"", "removed", "ONLINE"} {
		if s.Valid() {
			t.Errorf("Status(%q).Valid() = true, want false", s)
		}
	}
}
