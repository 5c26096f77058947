package security

import (
	"net/http/httptest"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	cases := []struct {
		name   string
		target string
		agent  string
		want   bool
	}{
		{"plain api read", "/api/terms", "Mozilla/5.0", false},
		{"path traversal", "/api/../etc/passwd", "Mozilla/5.0", true},
		{"wordpress probe", "/wp-admin/setup.php", "Mozilla/5.0", true},
		{"sqlmap agent", "/api/terms", "sqlmap/1.7", true},
		{"curl agent", "/api/terms", "curl/8.0", true},
		{"query injection", "/api/terms?q=union%20select", "Mozilla/5.0", true},
	}
	for i, tc := range cases {
		req := httptest.NewRequest("GET", tc.target, nil)
		req.Header.Set("User-Agent", tc.agent)
		if got := d.DetectSuspiciousRequest(req); got != tc.want {
			t.Fatalf("case %d (%s): got %v, want %v", i, tc.name, got, tc.want)
		}
	}

	if d.GetMetrics().SuspiciousRequests != 5 {
		t.Fatalf("SuspiciousRequests = %d, want 5", d.GetMetrics().SuspiciousRequests)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct public peer", "203.0.113.9:44321", "", "203.0.113.9"},
		{"public peer forwarded header ignored", "203.0.113.9:44321", "198.51.100.7", "203.0.113.9"},
		{"trusted proxy honors forwarded", "10.0.0.5:8080", "198.51.100.7", "198.51.100.7"},
		{"trusted proxy takes first hop", "127.0.0.1:9000", "198.51.100.7, 10.0.0.5", "198.51.100.7"},
		{"trusted proxy garbage header", "10.0.0.5:8080", "not-an-ip", "10.0.0.5"},
	}
	for i, tc := range cases {
		req := httptest.NewRequest("GET", "/api/terms", nil)
		req.RemoteAddr = tc.remoteAddr
		if tc.xff != "" {
			req.Header.Set("X-Forwarded-For", tc.xff)
		}
		if got := d.ExtractClientIP(req); got != tc.want {
			t.Fatalf("case %d (%s): got %q, want %q", i, tc.name, got, tc.want)
		}
	}
}
