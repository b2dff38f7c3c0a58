// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import "net/url"

// sensitiveParams are query parameters stripped from URLs before they are
// logged or embedded in errors.
var sensitiveParams = []string{"api_key", "email"}

// RedactURL replaces the values of sensitive query parameters with "REDACTED".
// Unparseable input is returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range sensitiveParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
