package model

// SendResult is the outcome of one user's send in a multi-user batch
type SendResult struct {
	UserID string
	MailID string
	Err    error
}

// OK reports whether the send succeeded.
func (r SendResult) OK() bool {
	return r.Err == nil
}

// BatchReport aggregates a multi-user send. Results follow input order,
// duplicates included.
type BatchReport struct {
	Prefix  string
	Results []SendResult
}

// Succeeded returns the number of successful sends
func (b *BatchReport) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the failed sends in input order
func (b *BatchReport) Failed() []SendResult {
	var failed []SendResult
	for _, r := range b.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}
