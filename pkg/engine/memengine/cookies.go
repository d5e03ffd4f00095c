package memengine

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/go-drift/embedview/pkg/engine"
)

type cookieKey struct {
	name, domain, path string
}

type storedCookie struct {
	rec      engine.Cookie
	hostOnly bool
	expires  time.Time // zero for session cookies
	created  time.Time
	seq      uint64
}

// CookieStore is an in-memory cookie store with RFC 6265 domain and path
// matching. It is safe for concurrent use.
type CookieStore struct {
	mu      sync.Mutex
	cookies map[cookieKey]*storedCookie
	seq     uint64

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewCookieStore returns an empty store.
func NewCookieStore() *CookieStore {
	return &CookieStore{cookies: make(map[cookieKey]*storedCookie)}
}

func (s *CookieStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "."))
}

func cookiePath(c engine.Cookie) string {
	if c.Path == nil || !strings.HasPrefix(*c.Path, "/") {
		return "/"
	}
	return *c.Path
}

// Set stores c. A cookie without a domain is host-only for defaultHost.
// Cookies scoped to a public suffix are rejected. A non-positive Max-Age
// deletes any matching cookie.
func (s *CookieStore) Set(c engine.Cookie, defaultHost string) error {
	if c.Name == "" {
		return fmt.Errorf("cookie name is empty")
	}
	hostOnly := c.Domain == nil || normalizeDomain(*c.Domain) == ""
	domain := normalizeDomain(defaultHost)
	if !hostOnly {
		domain = normalizeDomain(*c.Domain)
		if strings.Contains(domain, ".") {
			if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
				return fmt.Errorf("cookie domain %q rejected: %w", domain, err)
			}
		}
	}
	if domain == "" {
		return fmt.Errorf("cookie %q has no domain", c.Name)
	}

	now := s.now()
	var expires time.Time
	switch {
	case c.MaxAgeSec != nil:
		expires = now.Add(time.Duration(*c.MaxAgeSec) * time.Second)
	case c.ExpiresMs != nil:
		expires = time.UnixMilli(*c.ExpiresMs)
	}

	key := cookieKey{name: c.Name, domain: domain, path: cookiePath(c)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !expires.IsZero() && !expires.After(now) {
		delete(s.cookies, key)
		return nil
	}

	rec := c
	rec.Domain = engine.Ptr(domain)
	rec.Path = engine.Ptr(key.path)
	rec.SessionOnly = expires.IsZero()
	if !expires.IsZero() {
		rec.ExpiresMs = engine.Ptr(expires.UnixMilli())
	} else {
		rec.ExpiresMs = nil
	}

	created := now
	if old, ok := s.cookies[key]; ok {
		created = old.created
	}
	s.seq++
	s.cookies[key] = &storedCookie{
		rec:      rec,
		hostOnly: hostOnly,
		expires:  expires,
		created:  created,
		seq:      s.seq,
	}
	return nil
}

// Delete removes the cookie with c's name, domain and path.
func (s *CookieStore) Delete(c engine.Cookie) {
	domain := ""
	if c.Domain != nil {
		domain = normalizeDomain(*c.Domain)
	}
	s.mu.Lock()
	delete(s.cookies, cookieKey{name: c.Name, domain: domain, path: cookiePath(c)})
	s.mu.Unlock()
}

// All returns every unexpired cookie.
func (s *CookieStore) All() []engine.Cookie {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storedCookie
	for k, sc := range s.cookies {
		if sc.expired(now) {
			delete(s.cookies, k)
			continue
		}
		out = append(out, sc)
	}
	return sortedRecords(out)
}

// ForURL returns the cookies that would be sent with a request to rawURL.
func (s *CookieStore) ForURL(rawURL string) ([]engine.Cookie, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}
	reqPath := u.EscapedPath()
	if reqPath == "" {
		reqPath = "/"
	}
	secure := u.Scheme == "https" || u.Scheme == "wss"

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storedCookie
	for k, sc := range s.cookies {
		if sc.expired(now) {
			delete(s.cookies, k)
			continue
		}
		if !domainMatch(host, k.domain, sc.hostOnly) || !pathMatch(reqPath, k.path) {
			continue
		}
		if sc.rec.Secure != nil && *sc.rec.Secure && !secure {
			continue
		}
		out = append(out, sc)
	}
	return sortedRecords(out), nil
}

func (sc *storedCookie) expired(now time.Time) bool {
	return !sc.expires.IsZero() && !sc.expires.After(now)
}

func domainMatch(host, domain string, hostOnly bool) bool {
	if host == domain {
		return true
	}
	return !hostOnly && strings.HasSuffix(host, "."+domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

// sortedRecords orders cookies with longer paths first, then by creation.
func sortedRecords(in []*storedCookie) []engine.Cookie {
	sort.Slice(in, func(i, j int) bool {
		pi, pj := len(*in[i].rec.Path), len(*in[j].rec.Path)
		if pi != pj {
			return pi > pj
		}
		if !in[i].created.Equal(in[j].created) {
			return in[i].created.Before(in[j].created)
		}
		return in[i].seq < in[j].seq
	})
	out := make([]engine.Cookie, len(in))
	for i, sc := range in {
		out[i] = sc.rec
	}
	return out
}
