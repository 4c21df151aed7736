package judge

import "context"

// Judger is the judge capability the queue worker depends on.
type Judger interface {
	Judge(ctx context.Context, req Request) Result
}

var _ Judger = (*Client)(nil)

// MockJudge returns a fixed verdict for every request and records what it
// was asked. Test-only collaborator.
type MockJudge struct {
	Verdict  Result
	Requests []Request
}

// Judge records the request and returns the configured verdict.
func (m *MockJudge) Judge(_ context.Context, req Request) Result {
	m.Requests = append(m.Requests, req)

	return m.Verdict
}
