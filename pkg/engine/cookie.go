package engine

import (
	"net/http"
	"time"
)

// SameSite is a cookie's same-site policy.
type SameSite int

const (
	SameSiteNone SameSite = iota + 1
	SameSiteLax
	SameSiteStrict
)

func (s SameSite) String() string {
	switch s {
	case SameSiteNone:
		return "None"
	case SameSiteLax:
		return "Lax"
	case SameSiteStrict:
		return "Strict"
	default:
		return ""
	}
}

// Cookie is the cookie record exchanged across the binding boundary.
// Nil pointers mean the attribute is absent.
type Cookie struct {
	Name   string
	Value  string
	Domain *string
	Path   *string

	// ExpiresMs is the expiry as Unix milliseconds.
	ExpiresMs *int64

	// SessionOnly marks a cookie without an expiry that dies with the
	// session.
	SessionOnly bool

	// MaxAgeSec is the Max-Age attribute in seconds.
	MaxAgeSec *int64

	SameSite *SameSite
	Secure   *bool
	HTTPOnly *bool
}

// Ptr returns a pointer to v. It is a convenience for filling optional
// Cookie fields.
func Ptr[T any](v T) *T {
	return &v
}

// ExpiresTime returns the expiry as a time.Time, or the zero time.
func (c Cookie) ExpiresTime() time.Time {
	if c.ExpiresMs == nil {
		return time.Time{}
	}
	return time.UnixMilli(*c.ExpiresMs)
}

// HTTPCookie converts the record to a net/http cookie.
func (c Cookie) HTTPCookie() *http.Cookie {
	hc := &http.Cookie{
		Name:  c.Name,
		Value: c.Value,
	}
	if c.Domain != nil {
		hc.Domain = *c.Domain
	}
	if c.Path != nil {
		hc.Path = *c.Path
	}
	if c.ExpiresMs != nil {
		hc.Expires = c.ExpiresTime()
	}
	if c.MaxAgeSec != nil {
		// net/http uses MaxAge<0 for "Max-Age: 0".
		hc.MaxAge = int(*c.MaxAgeSec)
		if hc.MaxAge == 0 {
			hc.MaxAge = -1
		}
	}
	if c.Secure != nil {
		hc.Secure = *c.Secure
	}
	if c.HTTPOnly != nil {
		hc.HttpOnly = *c.HTTPOnly
	}
	if c.SameSite != nil {
		switch *c.SameSite {
		case SameSiteNone:
			hc.SameSite = http.SameSiteNoneMode
		case SameSiteLax:
			hc.SameSite = http.SameSiteLaxMode
		case SameSiteStrict:
			hc.SameSite = http.SameSiteStrictMode
		}
	}
	return hc
}

// FromHTTPCookie converts a net/http cookie, as parsed from a Set-Cookie
// header, to a record.
func FromHTTPCookie(hc *http.Cookie) Cookie {
	c := Cookie{
		Name:  hc.Name,
		Value: hc.Value,
	}
	if hc.Domain != "" {
		c.Domain = Ptr(hc.Domain)
	}
	if hc.Path != "" {
		c.Path = Ptr(hc.Path)
	}
	if !hc.Expires.IsZero() {
		c.ExpiresMs = Ptr(hc.Expires.UnixMilli())
	}
	switch {
	case hc.MaxAge > 0:
		c.MaxAgeSec = Ptr(int64(hc.MaxAge))
	case hc.MaxAge < 0:
		c.MaxAgeSec = Ptr(int64(0))
	}
	c.SessionOnly = c.ExpiresMs == nil && c.MaxAgeSec == nil
	if hc.Secure {
		c.Secure = Ptr(true)
	}
	if hc.HttpOnly {
		c.HTTPOnly = Ptr(true)
	}
	switch hc.SameSite {
	case http.SameSiteNoneMode:
		c.SameSite = Ptr(SameSiteNone)
	case http.SameSiteLaxMode:
		c.SameSite = Ptr(SameSiteLax)
	case http.SameSiteStrictMode:
		c.SameSite = Ptr(SameSiteStrict)
	}
	return c
}
