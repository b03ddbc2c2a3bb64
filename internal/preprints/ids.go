package preprints

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/user/prereview/internal/types"
)

// serversByPrefix maps DOI registrant prefixes to preprint servers. bioRxiv
// and medRxiv share 10.1101 and are told apart by the registered
// institution.
var serversByPrefix = map[string]string{
	"10.1101":  "biorxiv",
	"10.48550": "arxiv",
	"10.31234": "psyarxiv",
	"10.21203": "research-square",
	"10.20944": "preprints.org",
	"10.31219": "osf",
	"10.1590":  "scielo",
	"10.31222": "metaarxiv",
	"10.31235": "socarxiv",
	"10.22541": "authorea",
}

var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// ServerForDOI returns the preprint server a DOI is registered by.
func ServerForDOI(doi string) (string, bool) {
	prefix, _, ok := strings.Cut(doi, "/")
	if !ok {
		return "", false
	}
	server, ok := serversByPrefix[prefix]
	return server, ok
}

// ParseIndeterminate turns a DOI or URL as sent by a requester into an
// IndeterminatePreprintID. The server is filled in when the reference
// identifies one.
func ParseIndeterminate(reference string) types.IndeterminatePreprintID {
	doi := normalizeDOI(reference)
	server, _ := ServerForDOI(doi)
	return types.IndeterminatePreprintID{Server: server, Value: doi}
}

// normalizeDOI extracts a lower-case DOI from a bare DOI, a doi: URI or a
// URL of a known server. Unrecognised references are returned trimmed.
func normalizeDOI(reference string) string {
	ref := strings.TrimSpace(reference)
	lower := strings.ToLower(ref)
	lower = strings.TrimPrefix(lower, "doi:")

	if doiPattern.MatchString(lower) {
		return lower
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ref
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.Trim(u.Path, "/")

	switch host {
	case "doi.org", "dx.doi.org":
		return strings.ToLower(path)
	case "arxiv.org":
		for _, prefix := range []string{"abs/", "pdf/"} {
			if id, ok := strings.CutPrefix(path, prefix); ok {
				id = strings.TrimSuffix(id, ".pdf")
				id = versionSuffix.ReplaceAllString(id, "")
				return "10.48550/arxiv." + strings.ToLower(id)
			}
		}
	case "biorxiv.org", "medrxiv.org":
		if rest, ok := strings.CutPrefix(path, "content/"); ok {
			rest = strings.SplitN(rest, ".full", 2)[0]
			return versionSuffix.ReplaceAllString(strings.ToLower(rest), "")
		}
	}
	return ref
}

var versionSuffix = regexp.MustCompile(`v\d+$`)
