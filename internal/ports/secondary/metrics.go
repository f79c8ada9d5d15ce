package secondary

// Metrics receives domain counters. Implementations must be safe for
// concurrent use; a no-op implementation is acceptable.
type Metrics interface {
	StatusTransition(from, to, class string)
	Claim(result string)
	APIKeyAuth(result string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) StatusTransition(string, string, string) {}
func (NopMetrics) Claim(string)                            {}
func (NopMetrics) APIKeyAuth(string)                       {}
