package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to make cross-origin requests.
	// Empty, or a single "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists the methods clients may use in actual requests.
	// Empty means "GET, POST, PUT, DELETE, OPTIONS".
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. When empty the
	// preflight's Access-Control-Request-Headers value is echoed back.
	AllowHeaders []string

	// ExposeHeaders lists response headers the browser may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and auth headers on cross-origin
	// requests. The wildcard origin cannot be combined with credentials, so
	// enabling this switches to echoing the matched origin.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header; negative sends "0".
	MaxAge int
}

// cors holds the precomputed header values shared by all requests.
type cors struct {
	allowAll      bool
	origins       map[string]string // lowercased origin -> configured spelling
	methods       string
	headers       string
	exposeHeaders string
	credentials   bool
	maxAge        string
}

// CORS returns a middleware implementing Cross-Origin Resource Sharing.
// Origin matching is case-insensitive and the configured spelling is echoed
// back. Vary headers are set on every CORS-relevant response so shared caches
// never serve one origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{
		origins:       make(map[string]string, len(cfg.AllowOrigins)),
		methods:       strings.Join(cfg.AllowMethods, ", "),
		headers:       strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ", "),
		credentials:   cfg.AllowCredentials,
	}

	c.allowAll = len(cfg.AllowOrigins) == 0
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.allowAll = true
			break
		}
		c.origins[strings.ToLower(o)] = o
	}
	if c.credentials {
		// Spec forbids "*" with credentials; echo the matched origin instead.
		c.allowAll = false
	}

	if c.methods == "" {
		c.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}

	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.serve(next, w, r)
		})
	}
}

func (c *cors) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	// Same-origin request. Still vary on Origin when the allow list is
	// restrictive so caches keep responses separate.
	if origin == "" {
		if !c.allowAll {
			w.Header().Add("Vary", "Origin")
		}
		next.ServeHTTP(w, r)
		return
	}

	allowOrigin := c.match(origin)

	// Preflight: OPTIONS carrying Access-Control-Request-Method.
	if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")
		w.Header().Add("Vary", "Access-Control-Request-Headers")

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", c.methods)

			if c.headers != "" {
				w.Header().Set("Access-Control-Allow-Headers", c.headers)
			} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
				w.Header().Set("Access-Control-Allow-Headers", rh)
			}
			if c.credentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if c.maxAge != "" {
				w.Header().Set("Access-Control-Max-Age", c.maxAge)
			}
		}

		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Simple or actual request.
	if !c.allowAll {
		w.Header().Add("Vary", "Origin")
	}
	if allowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		if c.credentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if c.exposeHeaders != "" {
			w.Header().Set("Access-Control-Expose-Headers", c.exposeHeaders)
		}
	}

	next.ServeHTTP(w, r)
}

// match returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin is not allowed.
func (c *cors) match(origin string) string {
	if c.allowAll {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}
