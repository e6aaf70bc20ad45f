package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type deviceKey struct{}

// Device annotates the request context with a compact "browser/os/platform"
// summary parsed from the User-Agent header. Audit events attach it so admin
// mutations remain attributable without storing raw user agents.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		summary := summarizeUserAgent(r.UserAgent())
		ctx := context.WithValue(r.Context(), deviceKey{}, summary)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDevice retrieves the device summary from the context.
func GetDevice(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return ""
}

func summarizeUserAgent(raw string) string {
	if raw == "" {
		return "unknown"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}
	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	} else if ua.Bot() {
		platform = "bot"
	}

	return browser + "/" + os + "/" + platform
}
