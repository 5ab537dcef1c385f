// Package domaincheck verifies exact-match domain availability over RDAP.
package domaincheck

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openrdap/rdap"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/metrics"
	"github.com/namelens/brandlens/internal/observability"
	"github.com/namelens/brandlens/internal/store"
)

// Status is the outcome of a domain lookup.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusTaken       Status = "taken"
	StatusRateLimited Status = "rate_limited"
	StatusUnknown     Status = "unknown"
	StatusError       Status = "error"
)

// Verified reports whether the status is a definitive registry answer.
func (s Status) Verified() bool {
	return s == StatusAvailable || s == StatusTaken
}

// Registry RDAP endpoints for common TLDs. Other TLDs go through the IANA
// bootstrap registry.
var defaultServers = map[string][]string{
	"com": {"https://rdap.verisign.com/com/v1"},
	"net": {"https://rdap.verisign.com/net/v1"},
	"app": {"https://pubapi.registry.google/rdap", "https://www.rdap.net/rdap"},
	"dev": {"https://pubapi.registry.google/rdap", "https://www.rdap.net/rdap"},
}

// Result is a single domain lookup.
type Result struct {
	Domain     string    `json:"domain"`
	Status     Status    `json:"status"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message,omitempty"`
	Server     string    `json:"server,omitempty"`
	Registrar  string    `json:"registrar,omitempty"`
	Expiration string    `json:"expiration,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	FromCache  bool      `json:"from_cache,omitempty"`
}

// Cache persists lookups between runs. *store.Store satisfies it.
type Cache interface {
	GetDomainCache(ctx context.Context, domain string) (*store.DomainCacheEntry, error)
	SetDomainCache(ctx context.Context, entry store.DomainCacheEntry, ttl time.Duration) error
}

// Checker performs RDAP availability checks.
type Checker struct {
	Client      *rdap.Client
	Cache       Cache
	CachePolicy CachePolicy
	Timeout     time.Duration
	Clock       func() time.Time

	// Servers routes TLDs (without leading dot) to RDAP base URLs. Nil
	// uses the built-in table.
	Servers map[string][]string
}

// Check looks up domain. Lookup failures are reported in the Result rather
// than as an error; the error return covers malformed input only.
func (c *Checker) Check(ctx context.Context, domain string) (*Result, error) {
	if c == nil {
		return nil, errors.New("domain checker is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	name, tld, err := splitDomain(domain)
	if err != nil {
		return nil, err
	}

	if cached := c.cached(ctx, name); cached != nil {
		metrics.RecordDomainCheck(string(cached.Status), true)
		return cached, nil
	}

	result := c.lookup(ctx, name, tld)
	c.store(ctx, result)
	metrics.RecordDomainCheck(string(result.Status), false)

	if logger := observability.Logger(); logger != nil {
		logger.Debug("Domain checked",
			zap.String("domain", result.Domain),
			zap.String("status", string(result.Status)),
			zap.Int("status_code", result.StatusCode),
			zap.String("server", result.Server))
	}

	return result, nil
}

func (c *Checker) lookup(ctx context.Context, name, tld string) *Result {
	client := c.Client
	if client == nil {
		client = &rdap.Client{}
	}

	servers := c.servers(tld)
	if len(servers) == 0 {
		// nil server: the client resolves it through IANA bootstrap
		return c.query(ctx, client, name, nil)
	}

	var last *Result
	for _, base := range servers {
		serverURL, err := url.Parse(base)
		if err != nil {
			last = c.result(name, StatusError, 0, fmt.Sprintf("invalid rdap server url: %v", err), base)
			continue
		}
		last = c.query(ctx, client, name, serverURL)
		if last.Status.Verified() || ctx.Err() != nil {
			return last
		}
	}
	return last
}

func (c *Checker) query(ctx context.Context, client *rdap.Client, name string, server *url.URL) *Result {
	requestURL := domainURL(server, name)

	req := rdap.NewDomainRequest(name)
	if server != nil {
		req = req.WithServer(server)
	}
	if c.Timeout > 0 {
		req.Timeout = c.Timeout
	}
	req = req.WithContext(ctx)

	resp, reqErr := client.Do(req)
	statusCode, serverURL := responseStatus(resp, requestURL)

	if reqErr != nil {
		switch {
		case isNotFound(reqErr) || statusCode == 404:
			return c.result(name, StatusAvailable, statusCode, "rdap not found", serverURL)
		case statusCode == 429:
			return c.result(name, StatusRateLimited, statusCode, "rdap rate limited", serverURL)
		case statusCode >= 500 && statusCode <= 599:
			return c.result(name, StatusError, statusCode, "rdap server error", serverURL)
		default:
			return c.result(name, StatusError, statusCode, reqErr.Error(), serverURL)
		}
	}

	if found, ok := resp.Object.(*rdap.Domain); ok {
		result := c.result(name, StatusTaken, statusCode, "domain found", serverURL)
		result.Registrar = findRegistrar(found)
		result.Expiration = findEventDate(found.Events, "expiration")
		return result
	}

	return c.result(name, StatusUnknown, statusCode, "unexpected rdap response", serverURL)
}

func (c *Checker) result(name string, status Status, code int, message, server string) *Result {
	return &Result{
		Domain:     name,
		Status:     status,
		StatusCode: code,
		Message:    message,
		Server:     strings.TrimSpace(server),
		CheckedAt:  c.now(),
	}
}

func (c *Checker) cached(ctx context.Context, name string) *Result {
	if c.Cache == nil {
		return nil
	}
	entry, err := c.Cache.GetDomainCache(ctx, name)
	if err != nil || entry == nil {
		return nil
	}
	return &Result{
		Domain:    name,
		Status:    Status(entry.Status),
		Message:   entry.Message,
		CheckedAt: entry.CheckedAt,
		FromCache: true,
	}
}

func (c *Checker) store(ctx context.Context, result *Result) {
	if c.Cache == nil || result == nil {
		return
	}
	ttl := cacheTTL(c.CachePolicy, result.Status)
	if ttl <= 0 {
		return
	}
	err := c.Cache.SetDomainCache(ctx, store.DomainCacheEntry{
		Domain:    result.Domain,
		Status:    string(result.Status),
		Message:   result.Message,
		CheckedAt: result.CheckedAt,
	}, ttl)
	if err != nil {
		if logger := observability.Logger(); logger != nil {
			logger.Warn("Failed to cache domain check", zap.String("domain", result.Domain), zap.Error(err))
		}
	}
}

func (c *Checker) servers(tld string) []string {
	table := defaultServers
	if c.Servers != nil {
		table = c.Servers
	}
	return table[tld]
}

func (c *Checker) now() time.Time {
	if c.Clock != nil {
		return c.Clock().UTC()
	}
	return time.Now().UTC()
}

func splitDomain(domain string) (string, string, error) {
	value := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if value == "" {
		return "", "", errors.New("domain is required")
	}

	idx := strings.LastIndex(value, ".")
	if idx <= 0 || idx == len(value)-1 {
		return "", "", fmt.Errorf("domain %q must include a name and a tld", domain)
	}
	return value, value[idx+1:], nil
}

func domainURL(server *url.URL, domain string) string {
	if server == nil {
		return ""
	}

	temp := *server
	temp.RawQuery = ""
	temp.Fragment = ""
	base := temp.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "domain/" + domain
}

func responseStatus(resp *rdap.Response, fallbackURL string) (int, string) {
	if resp == nil || len(resp.HTTP) == 0 || resp.HTTP[0] == nil || resp.HTTP[0].Response == nil {
		return 0, fallbackURL
	}

	server := resp.HTTP[0].URL
	if strings.TrimSpace(server) == "" {
		server = fallbackURL
	}
	return resp.HTTP[0].Response.StatusCode, server
}

func findRegistrar(domain *rdap.Domain) string {
	for _, entity := range domain.Entities {
		for _, role := range entity.Roles {
			if role == "registrar" && entity.VCard != nil {
				return entity.VCard.Name()
			}
		}
	}
	return ""
}

func findEventDate(events []rdap.Event, action string) string {
	for _, event := range events {
		if event.Action == action {
			return event.Date
		}
	}
	return ""
}

func isNotFound(err error) bool {
	var clientErr *rdap.ClientError
	if !errors.As(err, &clientErr) {
		return false
	}
	return clientErr.Type == rdap.ObjectDoesNotExist
}
