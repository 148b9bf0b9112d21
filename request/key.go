// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"net"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrMalformedURL is wrapped by the errors NewPlan returns for URLs that
// cannot be fetched.
var ErrMalformedURL = errors.New("fetchgate/request: malformed url")

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Key returns the cache key for fetching u using the named strategy.
//
// The URL is normalized first: the scheme and host are lower-cased, an
// internationalized host name is converted to its ASCII form, an empty
// or default port is dropped, an empty path becomes "/", and the
// fragment is removed. The query string is kept verbatim. If strategy is
// not empty, the key is the strategy followed by a space and the
// normalized URL.
func Key(u *urlpkg.URL, strategy string) string {
	n := Normalize(u)
	if strategy == "" {
		return n
	}
	return strategy + " " + n
}

// Normalize returns the normalized form of u used in cache keys. A nil
// URL normalizes to the empty string.
func Normalize(u *urlpkg.URL) string {
	if u == nil {
		return ""
	}

	v := *u
	v.Scheme = strings.ToLower(v.Scheme)
	v.Host = normalizeHost(v.Scheme, v.Host)
	v.Fragment = ""
	v.RawFragment = ""
	v.User = nil
	if v.Path == "" && v.Opaque == "" {
		v.Path = "/"
		v.RawPath = ""
	}
	return v.String()
}

func normalizeHost(scheme, hostport string) string {
	hostport = removeEmptyPort(hostport)
	host, port := hostport, ""
	if hasPort(hostport) {
		if h, p, err := net.SplitHostPort(hostport); err == nil {
			host, port = h, p
		}
	}
	if port == defaultPorts[scheme] {
		port = ""
	}

	host = strings.ToLower(host)
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}

	if port != "" {
		return net.JoinHostPort(host, port)
	}
	if strings.Contains(host, ":") {
		return "[" + strings.Trim(host, "[]") + "]"
	}
	return host
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
