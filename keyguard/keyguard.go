package keyguard

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jonwraymond/cacheguard/seclog"
)

const (
	// MaxKeyBytes is the backend limit on encoded key length.
	MaxKeyBytes = 512

	// MaxComponentLength is the maximum length of a sanitized key component.
	MaxComponentLength = 200

	// Delimiter joins a region prefix and a key component.
	Delimiter = ":"
)

// Sentinel errors for key validation.
var (
	// ErrInvalidComponent is returned when a key component is empty after
	// sanitization.
	ErrInvalidComponent = errors.New("keyguard: key component invalid or empty after sanitization")

	// ErrInvalidKey is returned when a full key fails validation.
	ErrInvalidKey = errors.New("keyguard: key failed validation")
)

// blockedChars are stripped from key components: markup, quoting, path
// separators, pipes, wildcards, and interpolation characters.
const blockedChars = "<>\"'`/\\|*?{}$"

// blockedExtensions are file-extension suffixes never allowed on a key.
// Scanners probe for these looking for deployable shells and scripts.
var blockedExtensions = []string{
	".php", ".asp", ".aspx", ".jsp", ".cgi", ".pl", ".py", ".sh",
	".exe", ".bat", ".cmd",
}

// SanitizeComponent strips traversal sequences, blocklisted characters,
// control bytes, and blocklisted extension suffixes from a raw key
// component, trims whitespace, and truncates to MaxComponentLength.
// It returns ErrInvalidComponent when nothing safe remains.
func SanitizeComponent(raw string) (string, error) {
	s := strings.ReplaceAll(raw, "..", "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		if strings.ContainsRune(blockedChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = strings.TrimSpace(b.String())
	s = stripBlockedExtension(s)
	s = strings.TrimSpace(s)

	if len(s) > MaxComponentLength {
		// Truncate on a rune boundary so the result stays valid UTF-8.
		cut := MaxComponentLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	if s == "" {
		return "", ErrInvalidComponent
	}
	return s, nil
}

// stripBlockedExtension removes trailing blocklisted extensions, repeating
// so stacked suffixes like "x.php.bak.php" cannot survive a single pass.
func stripBlockedExtension(s string) string {
	for {
		stripped := false
		lower := strings.ToLower(s)
		for _, ext := range blockedExtensions {
			if strings.HasSuffix(lower, ext) {
				s = s[:len(s)-len(ext)]
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// Guard builds and validates cache keys, emitting a blocked_write security
// event for every rejection before the error is returned.
type Guard struct {
	log seclog.Logger
}

// New creates a Guard. A nil logger falls back to seclog.Nop().
func New(log seclog.Logger) *Guard {
	if log == nil {
		log = seclog.Nop()
	}
	return &Guard{log: log}
}

// BuildKey sanitizes component (and prefix, when non-empty), joins them
// with Delimiter, and validates the result. The raw inputs appear in the
// blocked_write event on failure so operators can see what was attempted.
func (g *Guard) BuildKey(ctx context.Context, component, prefix string) (string, error) {
	comp, err := SanitizeComponent(component)
	if err != nil {
		g.blocked(ctx, component, "component empty after sanitization")
		return "", err
	}

	key := comp
	if prefix != "" {
		pfx, err := SanitizeComponent(prefix)
		if err != nil {
			g.blocked(ctx, prefix, "prefix empty after sanitization")
			return "", err
		}
		key = pfx + Delimiter + comp
	}

	if err := g.Validate(ctx, key); err != nil {
		return "", err
	}
	return key, nil
}

// Validate rejects keys exceeding the backend byte limit, containing
// control characters or traversal sequences, or ending in a blocklisted
// extension. Each rejection emits one blocked_write event.
func (g *Guard) Validate(ctx context.Context, key string) error {
	if len(key) > MaxKeyBytes {
		g.blocked(ctx, key, "key exceeds backend byte limit")
		return ErrInvalidKey
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			g.blocked(ctx, key, "key contains control characters")
			return ErrInvalidKey
		}
	}
	if strings.Contains(key, "..") {
		g.blocked(ctx, key, "key contains traversal sequence")
		return ErrInvalidKey
	}
	lower := strings.ToLower(key)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(lower, ext) {
			g.blocked(ctx, key, "key ends in blocked extension")
			return ErrInvalidKey
		}
	}
	return nil
}

func (g *Guard) blocked(ctx context.Context, raw, reason string) {
	g.log.Log(ctx, seclog.EventBlockedWrite, map[string]any{
		"key":    raw,
		"reason": reason,
	})
}
