package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures CORS.
type CORSConfig struct {
	// AllowOrigins lists permitted origins. Empty or "*" permits any origin.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; zero omits it.
	MaxAge int
}

// CORS answers preflight requests and sets Access-Control headers on
// cross-origin requests from permitted origins. With credentials enabled the
// request origin is echoed instead of "*".
func CORS(cfg CORSConfig) Middleware {
	wildcard := len(cfg.AllowOrigins) == 0
	origins := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		origins[strings.ToLower(o)] = o
	}

	methods := "GET, POST, PUT, DELETE, OPTIONS"
	if len(cfg.AllowMethods) > 0 {
		methods = strings.Join(cfg.AllowMethods, ", ")
	}
	headers := strings.Join(cfg.AllowHeaders, ", ")
	expose := strings.Join(cfg.ExposeHeaders, ", ")

	resolve := func(origin string) string {
		if o, ok := origins[strings.ToLower(origin)]; ok {
			return o
		}
		if !wildcard {
			return ""
		}
		if cfg.AllowCredentials {
			return origin
		}
		return "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := resolve(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allowed != "" {
					h.Set("Access-Control-Allow-Origin", allowed)
					h.Set("Access-Control-Allow-Methods", methods)
					switch {
					case headers != "":
						h.Set("Access-Control-Allow-Headers", headers)
					case r.Header.Get("Access-Control-Request-Headers") != "":
						h.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
					}
					if cfg.AllowCredentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if cfg.MaxAge > 0 {
						h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if expose != "" {
					h.Set("Access-Control-Expose-Headers", expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
