// internal/lsp/progress.go
package lsp

import (
	"sync"
)

// ProgressReporter sends work done progress for one long-running command at
// a time.
type ProgressReporter struct {
	send func(msg jsonRPCMessage) error
	mu   sync.Mutex
}

func NewProgressReporter(send func(msg jsonRPCMessage) error) *ProgressReporter {
	return &ProgressReporter{send: send}
}

// Begin creates the token on the client and opens the report.
func (p *ProgressReporter) Begin(token, title string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	create := jsonRPCMessage{
		JSONRPC: "2.0",
		ID:      "progress-create-" + token,
		Method:  MethodWindowWorkDoneProgressCreate,
		Params:  mustMarshal(WorkDoneProgressCreateParams{Token: token}),
	}
	if err := p.send(create); err != nil {
		return err
	}
	return p.notify(token, WorkDoneProgressBegin{Kind: "begin", Title: title})
}

// Report sends an intermediate report; done of total sets the percentage.
func (p *ProgressReporter) Report(token, message string, done, total int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := 0
	if total > 0 {
		pct = done * 100 / total
	}
	return p.notify(token, WorkDoneProgressReport{Kind: "report", Message: message, Percentage: pct})
}

func (p *ProgressReporter) End(token, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notify(token, WorkDoneProgressEnd{Kind: "end", Message: message})
}

func (p *ProgressReporter) notify(token string, value any) error {
	return p.send(jsonRPCMessage{
		JSONRPC: "2.0",
		Method:  MethodProgress,
		Params:  mustMarshal(ProgressParams{Token: token, Value: value}),
	})
}
