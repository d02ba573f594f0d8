package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// BanUserAgents blocks requests whose User-Agent matches any of the given
// patterns. Patterns are matched case-insensitively anywhere in the header.
func BanUserAgents(patterns []string) func(http.Handler) http.Handler {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		compiled = append(compiled, regexp.MustCompile("(?i)"+regexp.QuoteMeta(p)))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua := r.UserAgent()
			for _, re := range compiled {
				if re.MatchString(ua) {
					writeJSONError(w, http.StatusForbidden, "user agent not allowed")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
