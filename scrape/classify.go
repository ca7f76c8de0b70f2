package scrape

import "strings"

// Failure is the category assigned to an error by the recovery logic.
type Failure int

const (
	// FailureTransient errors degrade to a default value or skip and never
	// interrupt the crawl.
	FailureTransient Failure = iota
	// FailureFatal errors indicate a corrupted browser session that has to
	// be torn down and recreated.
	FailureFatal
)

// A Classifier decides the failure category of an error, so the
// classification policy can be tested independently of the browser library's
// actual error text.
type Classifier func(error) Failure

// fatalSignatures are substrings of error messages known to indicate a
// corrupted browser process rather than a bad page.
var fatalSignatures = []string{
	"failed to start a thread",
	"SIGTRAP",
}

func Classify(err error) Failure {
	if err == nil {
		return FailureTransient
	}
	msg := err.Error()
	for _, sig := range fatalSignatures {
		if strings.Contains(msg, sig) {
			return FailureFatal
		}
	}
	return FailureTransient
}
