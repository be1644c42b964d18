package security

import (
	"net/http/httptest"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		userAgent  string
		suspicious bool
	}{
		{"dashboard root", "/", "Mozilla/5.0", false},
		{"stats partial", "/ui/income-stats?timeline=last30Days&plan=all", "Mozilla/5.0", false},
		{"payment post path", "/transactions", "Mozilla/5.0", false},
		{"cms scan", "/wp-login.php", "Mozilla/5.0", true},
		{"database grab", "/data/gymdesk.sqlite", "Mozilla/5.0", true},
		{"env grab", "/.env", "Mozilla/5.0", true},
		{"traversal", "/static/../../etc/passwd", "Mozilla/5.0", true},
		{"injection in query", "/ui/transactions?cb=eval(fetch)", "Mozilla/5.0", true},
		{"scanner agent", "/", "sqlmap/1.7", true},
		{"scripted agent", "/transactions", "curl/8.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest("GET", tt.target, nil)
			r.Header.Set("User-Agent", tt.userAgent)

			if got := d.DetectSuspiciousRequest(r); got != tt.suspicious {
				t.Errorf("DetectSuspiciousRequest(%s) = %v, want %v", tt.target, got, tt.suspicious)
			}
			if tt.suspicious && d.GetMetrics().SuspiciousRequests != 1 {
				t.Errorf("suspicious counter = %d, want 1", d.GetMetrics().SuspiciousRequests)
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	t.Run("trusted proxy forwards client", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "127.0.0.1:4321"
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

		if got := d.ExtractClientIP(r); got != "203.0.113.9" {
			t.Errorf("client ip = %q, want 203.0.113.9", got)
		}
	})

	t.Run("untrusted peer cannot pick its key", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.50:4321"
		r.Header.Set("X-Forwarded-For", "1.2.3.4")

		if got := d.ExtractClientIP(r); got != "203.0.113.50" {
			t.Errorf("client ip = %q, want the direct peer", got)
		}
	})

	t.Run("garbage forwarded header is counted", func(t *testing.T) {
		d := NewDetector()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "127.0.0.1:4321"
		r.Header.Set("X-Forwarded-For", "not-an-ip")

		if got := d.ExtractClientIP(r); got != "127.0.0.1" {
			t.Errorf("client ip = %q, want fallback to direct peer", got)
		}
		if d.GetMetrics().InvalidIPAttempts != 1 {
			t.Errorf("invalid ip counter = %d, want 1", d.GetMetrics().InvalidIPAttempts)
		}
	})
}
