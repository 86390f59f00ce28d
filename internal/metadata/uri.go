package metadata

import "strings"

// DefaultIPFSGateway is the HTTP gateway used for content-addressed URIs.
const DefaultIPFSGateway = "https://ipfs.io/ipfs/"

// NormalizeURI converts a content-addressed URI into a fetchable HTTP(S)
// URL through the default gateway. Already-HTTP(S) URLs pass through
// unchanged; empty or unparseable input yields "". Idempotent:
// normalizing an already-normalized URL is a no-op.
func NormalizeURI(uri string) string {
	return NormalizeURIWith(uri, DefaultIPFSGateway)
}

// NormalizeURIWith is NormalizeURI resolving content-addressed URIs
// through a specific gateway. An empty gateway falls back to the default.
func NormalizeURIWith(uri, gateway string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}

	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}

	if rest, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		// Some publishers double the path: ipfs://ipfs/<cid>
		rest = strings.TrimPrefix(rest, "ipfs/")
		if rest == "" {
			return ""
		}
		if gateway == "" {
			gateway = DefaultIPFSGateway
		}
		return gateway + rest
	}

	return ""
}
