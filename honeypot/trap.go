package honeypot

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TrapWarning is embedded in every trap payload. A human reading exfiltrated
// data sees it; an automated scanner typically does not.
const TrapWarning = "This access attempt has been logged and reported."

// trapPayload is the deterministic shape of a honeypot trap. Field values
// vary per call so repeated probes cannot fingerprint the trap by content.
type trapPayload struct {
	AdminPassword string `json:"admin_password"`
	APIKey        string `json:"api_key"`
	JWTSecret     string `json:"jwt_secret"`
	SessionToken  string `json:"session_token"`
	DatabaseURL   string `json:"database_url"`
	GeneratedAt   int64  `json:"generated_at"`
	Warning       string `json:"warning"`
}

// NewTrap produces a serialized fake-secret payload to return in place of
// real cache content. The session token is a real HS256-signed JWT minted
// with a throwaway key, so it survives superficial validation.
func NewTrap() ([]byte, error) {
	now := time.Now()

	token, err := mintDecoyToken(now)
	if err != nil {
		return nil, fmt.Errorf("honeypot: failed to mint decoy token: %w", err)
	}

	payload := trapPayload{
		AdminPassword: "hp_" + randomHex(12),
		APIKey:        "sk_live_" + randomHex(16),
		JWTSecret:     randomHex(32),
		SessionToken:  token,
		DatabaseURL:   fmt.Sprintf("postgres://admin:%s@db.internal:5432/production", randomHex(8)),
		GeneratedAt:   now.UnixMilli(),
		Warning:       TrapWarning,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("honeypot: failed to serialize trap: %w", err)
	}
	return data, nil
}

// mintDecoyToken signs a plausible-looking session claim set with a random
// throwaway key. The token verifies against nothing real.
func mintDecoyToken(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": "superuser",
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the process is in a bad state; a
		// constant filler keeps the trap shape intact regardless.
		return "deadbeef"
	}
	return hex.EncodeToString(b)
}
