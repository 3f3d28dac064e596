package model

import (
	"context"

	"github.com/a2aproject/a2a-go/a2a"
)

// StaticResponse is a Response whose fields are already settled. Used
// by tests and by runners that have nothing to defer.
type StaticResponse struct {
	TextValue         string
	StepsValue        []Step
	FinishReasonValue FinishReason
	OutputValue       map[string]any
	FormattedValue    []a2a.Part

	// Errs injects per-accessor failures, keyed by accessor name
	// (text, steps, finishReason, output, formattedContent).
	Errs map[string]error
}

var _ Response = (*StaticResponse)(nil)

func (r *StaticResponse) Text(context.Context) (string, error) {
	return r.TextValue, r.Errs["text"]
}

func (r *StaticResponse) Steps(context.Context) ([]Step, error) {
	return r.StepsValue, r.Errs["steps"]
}

func (r *StaticResponse) FinishReason(context.Context) (FinishReason, error) {
	return r.FinishReasonValue, r.Errs["finishReason"]
}

func (r *StaticResponse) Output(context.Context) (map[string]any, error) {
	return r.OutputValue, r.Errs["output"]
}

func (r *StaticResponse) FormattedContent(context.Context) ([]a2a.Part, error) {
	return r.FormattedValue, r.Errs["formattedContent"]
}

// StaticRunner returns canned responses in order, cycling on the last
// one. Test stub for the orchestrator.
type StaticRunner struct {
	Responses []Response
	Err       error

	// Requests records every request for assertions.
	Requests []*Request

	next int
}

var _ Runner = (*StaticRunner)(nil)

func (r *StaticRunner) Generate(_ context.Context, req *Request) (Response, error) {
	r.Requests = append(r.Requests, req)
	if r.Err != nil {
		return nil, r.Err
	}
	if len(r.Responses) == 0 {
		return &StaticResponse{FinishReasonValue: FinishReasonStop}, nil
	}
	resp := r.Responses[r.next]
	if r.next < len(r.Responses)-1 {
		r.next++
	}
	return resp, nil
}
