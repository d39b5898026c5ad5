// Package frontier resolves discovered links and filters the working URL set
// between navigation hops.
package frontier

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	errEmptyLink         = errors.New("resolve link: empty link")
	errUnsupportedScheme = errors.New("resolve link: unsupported scheme")
)

// reservedChars are the RFC 3986 reserved characters left unescaped.
const reservedChars = ":/?#[]@!$&'()*+,;="

// Resolve percent-encodes characters outside the reserved and unreserved sets,
// keeps existing %XX escapes, and resolves link against the page that produced
// it. The result is an absolute http(s) URL without a fragment.
func Resolve(pageURL, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", errEmptyLink
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("resolve link: invalid page url: %w", err)
	}

	ref, err := url.Parse(Escape(link))
	if err != nil {
		return "", fmt.Errorf("resolve link: %w", err)
	}

	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", errUnsupportedScheme, link)
	}
	if abs.Host == "" {
		return "", fmt.Errorf("resolve link: missing host in %q", link)
	}
	abs.Fragment = ""
	abs.RawFragment = ""

	return abs.String(), nil
}

// Escape percent-encodes every byte that is neither unreserved nor reserved,
// leaving well-formed %XX escapes untouched.
func Escape(s string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(c)
		case isUnreserved(c) || strings.IndexByte(reservedChars, c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
