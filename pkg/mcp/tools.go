package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/typetrail/pkg/render"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

// Tool name constants.
const (
	ToolNameListProjects = "typetrail_list_projects"
	ToolNameGetProject   = "typetrail_get_project"
	ToolNameTypeActivity = "typetrail_type_activity"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyProject indicates the project parameter is empty.
	ErrEmptyProject = errors.New("project parameter is required and must not be empty")
	// ErrNoCatalog indicates the server was built without a catalog.
	ErrNoCatalog = errors.New("no project catalog configured")
)

// ListProjectsInput is the input schema for the typetrail_list_projects tool.
type ListProjectsInput struct{}

// ProjectInput is the input schema for the per-project tools.
type ProjectInput struct {
	Project            string `json:"project"                        jsonschema:"project name as listed by typetrail_list_projects"`
	Type               string `json:"type,omitempty"                 jsonschema:"view type: Declarations, Types or Invocations (default: server setting)"`
	IgnoreLargeCommits *bool  `json:"ignore_large_commits,omitempty" jsonschema:"drop commits with more stat blocks than the large-commit threshold"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

type toolSet struct {
	cat  Catalog
	view view.Config
}

func (ts *toolSet) listProjects(
	_ context.Context, _ *mcpsdk.CallToolRequest, _ ListProjectsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if ts.cat == nil {
		return errorResult(ErrNoCatalog)
	}

	summaries, err := ts.cat.Summaries()
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(summaries)
}

func (ts *toolSet) getProject(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ProjectInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	doc, err := ts.document(ctx, input)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(doc)
}

func (ts *toolSet) typeActivity(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ProjectInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	doc, err := ts.document(ctx, input)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(render.Activity(doc))
}

func (ts *toolSet) document(ctx context.Context, input ProjectInput) (*view.Document, error) {
	if ts.cat == nil {
		return nil, ErrNoCatalog
	}

	name := strings.TrimSpace(input.Project)
	if name == "" {
		return nil, ErrEmptyProject
	}

	cfg := ts.view
	if input.Type != "" {
		cfg.Mode = view.ParseMode(input.Type)
	}

	if input.IgnoreLargeCommits != nil {
		cfg.IgnoreLargeCommits = *input.IgnoreLargeCommits
	}

	return ts.cat.View(ctx, name, cfg)
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
