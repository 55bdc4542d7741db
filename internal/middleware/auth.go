package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthAPIKey AuthMode = "apikey"
	AuthBearer AuthMode = "bearer"
)

func ParseAuthMode(s string) (AuthMode, error) {
	switch m := AuthMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", AuthNone:
		return AuthNone, nil
	case AuthAPIKey, AuthBearer:
		return m, nil
	}
	return "", fmt.Errorf("unknown auth mode %q", s)
}

type AuthConfig struct {
	Mode        AuthMode
	APIKey      string
	BearerToken string
	// SkipPaths are matched exactly; entries ending in "/" match as prefixes.
	SkipPaths []string
}

type authErr struct {
	Error string `json:"error"`
}

func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	exact := make(map[string]struct{}, len(cfg.SkipPaths))
	var prefixes []string
	for _, p := range cfg.SkipPaths {
		if strings.HasSuffix(p, "/") {
			prefixes = append(prefixes, p)
			continue
		}
		exact[p] = struct{}{}
	}
	skipped := func(path string) bool {
		if _, ok := exact[path]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		if cfg.Mode == AuthNone || cfg.Mode == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			switch cfg.Mode {
			case AuthAPIKey:
				// Header: X-API-Key: <key>
				if constantTimeEq(r.Header.Get("X-API-Key"), cfg.APIKey) {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w, `ApiKey realm="taskboard", header="X-API-Key"`)

			case AuthBearer:
				// Header: Authorization: Bearer <token>
				authz := r.Header.Get("Authorization")
				if token := strings.TrimPrefix(authz, "Bearer "); token != authz && constantTimeEq(strings.TrimSpace(token), cfg.BearerToken) {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w, `Bearer realm="taskboard"`)

			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func constantTimeEq(a, b string) bool {
	if b == "" || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func unauthorized(w http.ResponseWriter, challenge string) {
	w.Header().Set("Content-Type", "application/json")
	if challenge != "" {
		w.Header().Set("WWW-Authenticate", challenge)
	}
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(authErr{Error: "unauthorized"})
}
