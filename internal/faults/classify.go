package faults

import "strings"

// The extraction backend reports failures as free-form text on stderr, so
// the only available classification signal is substring matching. The table
// below is the single place that knows the backend's wording; keep
// additions here and covered by tests.
var classifyTable = []struct {
	substr string
	kind   Kind
}{
	// Authentication demanded by the upstream.
	{"sign in to confirm", KindAuthRequired},
	{"login required", KindAuthRequired},
	{"use --cookies", KindAuthRequired},
	{"cookies are no longer valid", KindAuthRequired},
	{"members-only", KindAuthRequired},
	{"private video", KindAuthRequired},
	{"age-restricted", KindAuthRequired},

	// Throttling.
	{"http error 429", KindRateLimited},
	{"too many requests", KindRateLimited},
	{"rate-limit", KindRateLimited},
	{"rate limit", KindRateLimited},

	// Gone or never existed.
	{"video unavailable", KindNotFound},
	{"does not exist", KindNotFound},
	{"has been removed", KindNotFound},
	{"404", KindNotFound},

	// Caller-side input problems.
	{"unsupported url", KindInvalidInput},
	{"is not a valid url", KindInvalidInput},
	{"incomplete youtube id", KindInvalidInput},

	// Network hiccups worth retrying.
	{"timed out", KindTransient},
	{"timeout", KindTransient},
	{"connection reset", KindTransient},
	{"connection refused", KindTransient},
	{"temporary failure", KindTransient},
	{"unable to download webpage", KindTransient},
	{"http error 5", KindTransient},
}

// Classify maps a backend error message onto the taxonomy. Unknown messages
// classify as Transient so the retry controller gets a chance; only callers
// that know better should mark errors Fatal.
func Classify(err error) Kind {
	if err == nil {
		return KindTransient
	}

	msg := strings.ToLower(err.Error())
	for _, entry := range classifyTable {
		if strings.Contains(msg, entry.substr) {
			return entry.kind
		}
	}
	return KindTransient
}
