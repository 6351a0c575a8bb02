package client

import (
	"context"
	"fmt"
	"net/http"

	"argos/pkg/api"
)

// DecisionRequest is the request structure for the Approve and Reject endpoints
type DecisionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// EditRequest is the request structure for the Edit endpoint
type EditRequest struct {
	Content string `json:"content"`
}

// CommentRequest is the request structure for the Comment endpoint
type CommentRequest struct {
	LineIndex int    `json:"lineIndex"`
	Text      string `json:"text"`
	Author    string `json:"author,omitempty"`
}

// CommentResponse is the response structure for the Comment endpoint
type CommentResponse struct {
	Comment  api.Comment      `json:"comment"`
	Pipeline api.PipelineView `json:"pipeline"`
}

const (
	// ApproveMethod is http method used for endpoint Approve
	ApproveMethod     = http.MethodPost
	approvePathFormat = "/pipelines/%s/steps/%s/approve"

	// RejectMethod is http method used for endpoint Reject
	RejectMethod     = http.MethodPost
	rejectPathFormat = "/pipelines/%s/steps/%s/reject"

	// EditMethod is http method used for endpoint Edit
	EditMethod     = http.MethodPut
	editPathFormat = "/pipelines/%s/steps/%s/artifact/lines/%s"

	// CommentMethod is http method used for endpoint Comment
	CommentMethod     = http.MethodPost
	commentPathFormat = "/pipelines/%s/steps/%s/comments"

	// ResolveMethod is http method used for endpoint Resolve
	ResolveMethod     = http.MethodPost
	resolvePathFormat = "/pipelines/%s/steps/%s/comments/%s/resolve"
)

var (
	sidParam = fmt.Sprintf(":%s", StepIDParam)

	// ApprovePath is the path definition of the endpoint Approve
	ApprovePath = fmt.Sprintf(approvePathFormat, pidParam, sidParam)
	// RejectPath is the path definition of the endpoint Reject
	RejectPath = fmt.Sprintf(rejectPathFormat, pidParam, sidParam)
	// EditPath is the path definition of the endpoint Edit
	EditPath = fmt.Sprintf(editPathFormat, pidParam, sidParam, fmt.Sprintf(":%s", LineParam))
	// CommentPath is the path definition of the endpoint Comment
	CommentPath = fmt.Sprintf(commentPathFormat, pidParam, sidParam)
	// ResolvePath is the path definition of the endpoint Resolve
	ResolvePath = fmt.Sprintf(resolvePathFormat, pidParam, sidParam, fmt.Sprintf(":%s", CommentParam))
)

func (cli client) Approve(ctx context.Context, pid, stepID, notes string) (api.PipelineView, error) {
	var res api.PipelineView
	err := cli.do(ctx, ApproveMethod, fmt.Sprintf(approvePathFormat, pid, stepID), DecisionRequest{Notes: notes}, &res)
	return res, err
}

func (cli client) Reject(ctx context.Context, pid, stepID, feedback string) (api.PipelineView, error) {
	var res api.PipelineView
	err := cli.do(ctx, RejectMethod, fmt.Sprintf(rejectPathFormat, pid, stepID), DecisionRequest{Notes: feedback}, &res)
	return res, err
}

func (cli client) Edit(ctx context.Context, pid, stepID string, line int, content string) (api.PipelineView, error) {
	var res api.PipelineView
	path := fmt.Sprintf(editPathFormat, pid, stepID, fmt.Sprint(line))
	err := cli.do(ctx, EditMethod, path, EditRequest{Content: content}, &res)
	return res, err
}

func (cli client) Comment(ctx context.Context, pid, stepID string, line int, text, author string) (CommentResponse, error) {
	var res CommentResponse
	req := CommentRequest{LineIndex: line, Text: text, Author: author}
	err := cli.do(ctx, CommentMethod, fmt.Sprintf(commentPathFormat, pid, stepID), req, &res)
	return res, err
}

func (cli client) Resolve(ctx context.Context, pid, stepID string, comment int) (api.PipelineView, error) {
	var res api.PipelineView
	path := fmt.Sprintf(resolvePathFormat, pid, stepID, fmt.Sprint(comment))
	err := cli.do(ctx, ResolveMethod, path, nil, &res)
	return res, err
}
