package frontier

import "strings"

// MustContain keeps the URLs that contain every substring. An empty list keeps everything.
func MustContain(urls, substrings []string) []string {
	if len(substrings) == 0 {
		return urls
	}

	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if containsAll(u, substrings) {
			out = append(out, u)
		}
	}
	return out
}

// Dedup removes repeated URLs, keeping first-seen order.
func Dedup(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func containsAll(s string, substrings []string) bool {
	for _, sub := range substrings {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
