package honeypot

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// TestIsHoneypotKey verifies exact matching with case folding and
// whitespace trimming.
func TestIsHoneypotKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"admin:password", true},
		{"ADMIN:PASSWORD", true},
		{"  admin:password  ", true},
		{"Etc:Passwd", true},
		{"jwt:secret", true},
		{"aws:secret_access_key", true},
		{"admin:passwords", false},
		{"urls:slug:home", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsHoneypotKey(tt.key); got != tt.want {
				t.Errorf("IsHoneypotKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// TestHoneypotKeyCount verifies the decoy list stays at a meaningful size.
func TestHoneypotKeyCount(t *testing.T) {
	if n := Keys(); n < 25 {
		t.Errorf("honeypot key count = %d, want >= 25", n)
	}
}

// TestMatchSuspicious verifies pattern classes and first-match reporting.
func TestMatchSuspicious(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"sql select", "SELECT * FROM users", true},
		{"sql union", "1 UNION SELECT password", true},
		{"sql drop", "x; DROP TABLE urls", true},
		{"sql boolean", "' OR '1'='1", true},
		{"path traversal", "../../etc/passwd", true},
		{"encoded traversal", "%2e%2e%2fetc", true},
		{"command injection", "x; cat /etc/shadow", true},
		{"command substitution", "$(whoami)", true},
		{"script tag", "<script>alert(1)</script>", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"php extension", "upload.php", true},
		{"web shell", "c99 shell", true},
		{"encoded script", "%3Cscript%3E", true},
		{"null byte", "abc%00def", true},
		{"clean slug", "my-page-about-sql-databases", false},
		{"clean key", "urls:slug:hello-world", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, pattern := MatchSuspicious(tt.key)
			if got != tt.want {
				t.Fatalf("MatchSuspicious(%q) = %v, want %v", tt.key, got, tt.want)
			}
			if got && pattern == "" {
				t.Error("expected matched pattern source")
			}
			if !got && pattern != "" {
				t.Errorf("expected empty pattern, got %q", pattern)
			}
		})
	}
}

// TestDetect verifies honeypot priority over pattern matches.
func TestDetect(t *testing.T) {
	d := Detect("admin:password")
	if !d.IsHoneypot || !d.IsSuspicious {
		t.Errorf("Detect(admin:password) = %+v, want honeypot and suspicious", d)
	}
	if d.Reason != "Honeypot key accessed" {
		t.Errorf("reason = %q, want %q", d.Reason, "Honeypot key accessed")
	}

	d = Detect("SELECT * FROM users")
	if d.IsHoneypot {
		t.Error("pattern match must not be reported as honeypot")
	}
	if !d.IsSuspicious {
		t.Error("expected suspicious detection")
	}
	if d.MatchedPattern == "" {
		t.Error("expected matched pattern source")
	}

	d = Detect("urls:slug:hello")
	if d.IsHoneypot || d.IsSuspicious {
		t.Errorf("Detect(clean) = %+v, want clean", d)
	}
}

// TestSeverity verifies the detection-to-severity mapping.
func TestSeverity(t *testing.T) {
	tests := []struct {
		name string
		d    Detection
		want string
	}{
		{"honeypot", Detection{IsHoneypot: true, IsSuspicious: true}, SeverityCritical},
		{"suspicious", Detection{IsSuspicious: true}, SeverityHigh},
		{"clean", Detection{}, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Severity(tt.d); got != tt.want {
				t.Errorf("Severity = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestNewTrap verifies the trap payload shape and the decoy token.
func TestNewTrap(t *testing.T) {
	data, err := NewTrap()
	if err != nil {
		t.Fatalf("NewTrap() error: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("trap is not valid JSON: %v", err)
	}

	for _, field := range []string{"admin_password", "api_key", "jwt_secret", "session_token", "database_url", "generated_at", "warning"} {
		if _, ok := payload[field]; !ok {
			t.Errorf("trap missing field %q", field)
		}
	}
	if payload["warning"] != TrapWarning {
		t.Errorf("warning = %v, want %q", payload["warning"], TrapWarning)
	}

	// The decoy session token parses as a structurally valid JWT.
	token, ok := payload["session_token"].(string)
	if !ok || strings.Count(token, ".") != 2 {
		t.Fatalf("session_token = %v, want a three-part JWT", payload["session_token"])
	}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, jwt.MapClaims{}); err != nil {
		t.Errorf("decoy token does not parse: %v", err)
	}
}

// TestNewTrap_VariesPerCall verifies secrets differ across calls while the
// shape stays constant.
func TestNewTrap_VariesPerCall(t *testing.T) {
	a, err := NewTrap()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewTrap()
	if err != nil {
		t.Fatal(err)
	}
	if string(a) == string(b) {
		t.Error("expected trap payloads to vary per call")
	}
}
