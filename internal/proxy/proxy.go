// Package proxy is the CORS document proxy: it fetches external contract
// documents on behalf of the browser, enforcing scheme, host, and size
// policy so the frontend never talks to arbitrary origins directly.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"patchdesk/internal/platform/metrics"
	"patchdesk/internal/platform/middleware"
)

// MaxDocumentBytes caps proxied document size at 25 MiB.
const MaxDocumentBytes = 25 << 20

const cacheMaxAge = time.Hour

// privateHostPatterns match loopback, link-local, and RFC 1918 hosts. These
// are blocked regardless of the allowlist.
var privateHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^10\.`),
	regexp.MustCompile(`^172\.(1[6-9]|2[0-9]|3[0-1])\.`),
	regexp.MustCompile(`^192\.168\.`),
	regexp.MustCompile(`^127\.`),
	regexp.MustCompile(`^169\.254\.`),
	regexp.MustCompile(`^0\.`),
}

// Proxy serves GET/HEAD /?url=<document-url>.
type Proxy struct {
	allowedHosts []string
	client       *http.Client
	cache        *Cache
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// Option configures the Proxy.
type Option func(*Proxy)

// WithCache enables the shared document cache.
func WithCache(cache *Cache) Option {
	return func(p *Proxy) { p.cache = cache }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Proxy) { p.metrics = m }
}

// WithHTTPClient overrides the upstream client, used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Proxy) { p.client = client }
}

// New builds a Proxy. An empty allowedHosts list means any public host is
// permitted; private address space stays blocked either way.
func New(allowedHosts []string, logger *slog.Logger, opts ...Option) *Proxy {
	p := &Proxy{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
	for _, host := range allowedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			p.allowedHosts = append(p.allowedHosts, host)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handler assembles the proxy router with permissive CORS. Only GET, HEAD,
// and the preflight OPTIONS are accepted; everything else is 405.
func (p *Proxy) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(p.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         int(cacheMaxAge.Seconds()),
	}))
	r.Get("/", p.handleFetch)
	r.Head("/", p.handleFetch)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		p.count("method_not_allowed")
		writeProxyError(w, http.StatusMethodNotAllowed, "only GET and HEAD are supported")
	})
	return r
}

func (p *Proxy) handleFetch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		p.count("bad_request")
		writeProxyError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	target, err := url.Parse(raw)
	if err != nil || !target.IsAbs() {
		p.count("bad_request")
		writeProxyError(w, http.StatusBadRequest, "url must be absolute")
		return
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		p.count("bad_request")
		writeProxyError(w, http.StatusBadRequest, "unsupported scheme: "+target.Scheme)
		return
	}
	if !p.hostAllowed(target.Hostname()) {
		p.count("forbidden")
		p.logger.Warn("proxy blocked host", "host", target.Hostname())
		msg := "host not allowed"
		if len(p.allowedHosts) > 0 {
			msg += "; allowed hosts: " + strings.Join(p.allowedHosts, ", ")
		}
		writeProxyError(w, http.StatusForbidden, msg)
		return
	}

	if p.cache != nil {
		if doc, ok := p.cache.Get(r.Context(), raw); ok {
			p.count("cache_hit")
			writeDocument(w, doc)
			return
		}
	}

	doc, status, err := p.fetch(r.Context(), r.Method, target.String())
	if err != nil {
		p.count(outcomeFor(status))
		writeProxyError(w, status, err.Error())
		return
	}

	// HEAD responses carry no body, so caching one would poison later GETs.
	if p.cache != nil && r.Method == http.MethodGet {
		p.cache.Put(r.Context(), raw, doc)
	}
	p.count("ok")
	writeDocument(w, doc)
}

// fetch retrieves the upstream document, forwarding the inbound method so a
// HEAD never downloads the full body. Returns the HTTP status to relay on
// failure.
func (p *Proxy) fetch(ctx context.Context, method, target string) (*Document, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("malformed url: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("upstream fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, http.StatusBadGateway, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxDocumentBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("document exceeds %d bytes", MaxDocumentBytes)
	}

	// The advertised length can lie, so read one byte past the cap to
	// distinguish an exactly-max document from an oversized one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("upstream read failed")
	}
	if len(body) > MaxDocumentBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("document exceeds %d bytes", MaxDocumentBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Document{
		ContentType: contentType,
		FileName:    fileNameFrom(target, resp.Header.Get("Content-Disposition")),
		Body:        body,
	}, 0, nil
}

// hostAllowed applies the private address block and, when an allowlist is
// configured, an exact-or-subdomain host match.
func (p *Proxy) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	if host == "" || host == "localhost" {
		return false
	}
	for _, pattern := range privateHostPatterns {
		if pattern.MatchString(host) {
			return false
		}
	}
	if len(p.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range p.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (p *Proxy) count(outcome string) {
	if p.metrics != nil {
		p.metrics.ProxyRequests.WithLabelValues(outcome).Inc()
	}
}

func outcomeFor(status int) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusBadRequest:
		return "bad_request"
	default:
		return "upstream_error"
	}
}

// fileNameFrom derives a display filename, preferring the upstream
// Content-Disposition over the url path. The document is always served
// inline; the name only feeds the disposition header.
func fileNameFrom(target, disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	u, err := url.Parse(target)
	if err != nil {
		return "document"
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "document"
	}
	return name
}

func writeDocument(w http.ResponseWriter, doc *Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.FileName))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheMaxAge.Seconds())))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Body)
}

func writeProxyError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
