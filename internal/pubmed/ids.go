// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// pmidPattern matches bare and prefixed PMIDs: "36912345", "PMID:36912345",
// "PMID 36912345".
var pmidPattern = regexp.MustCompile(`^(?i:pmid)?[:\s]*(\d{1,9})$`)

// pubmedHosts serve article pages at /<pmid>/ or /pubmed/<pmid>.
var pubmedHosts = map[string]bool{
	"pubmed.ncbi.nlm.nih.gov": true,
	"www.ncbi.nlm.nih.gov":    true,
	"ncbi.nlm.nih.gov":        true,
}

// ParseID normalizes a user-supplied article identifier to a bare PMID.
// It accepts plain digits, "PMID:" prefixes and PubMed article URLs.
func ParseID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := pmidPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}

	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && pubmedHosts[strings.ToLower(u.Host)] {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && parts[0] == "pubmed" {
			parts = parts[1:]
		}
		if len(parts) == 1 && isDigits(parts[0]) && len(parts[0]) <= 9 {
			return parts[0], nil
		}
	}

	return "", fmt.Errorf("not a PubMed ID: %q", s)
}
