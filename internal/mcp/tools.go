package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"archdocs/internal/docs"
	"archdocs/internal/query"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names.
const (
	ToolGetAllDocuments        = "GetAllDocuments"
	ToolGetDocumentByIDOrPath  = "GetDocumentByIdOrPath"
	ToolGetDocumentsByCategory = "GetDocumentsByCategory"
	ToolGetDocumentsByTags     = "GetDocumentsByTags"
	ToolSearchDocuments        = "SearchDocuments"
	ToolGetRelatedDocuments    = "GetRelatedDocuments"
	ToolGetAllTags             = "GetAllTags"
	ToolGetCategories          = "GetCategories"
	ToolGetIndexStatus         = "GetIndexStatus"
	ToolRefreshDocuments       = "RefreshDocuments"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(ToolGetAllDocuments,
		mcp.WithDescription("List metadata of every architecture document (ADRs, recommendations, style guides, structures)."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetAllDocuments)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetDocumentByIDOrPath,
		mcp.WithDescription("Get a document with its full markdown content by id (e.g. \"adrs/adr-001\") or source path (e.g. \"ADRs/adr-001.md\")."),
		mcp.WithString("idOrPath",
			mcp.Required(),
			mcp.Description("Document id or path relative to the documentation root"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetDocumentByIDOrPath)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetDocumentsByCategory,
		mcp.WithDescription("List documents of one category."),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category name: "+docs.CategoryNames()),
			mcp.Enum(categoryEnum()...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetDocumentsByCategory)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetDocumentsByTags,
		mcp.WithDescription("List documents carrying any of the given tags. Matching ignores case."),
		mcp.WithString("tags",
			mcp.Required(),
			mcp.Description("Comma separated tags, e.g. \"architecture, cloud\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetDocumentsByTags)

	s.mcpServer.AddTool(mcp.NewTool(ToolSearchDocuments,
		mcp.WithDescription("Full-text search over titles, descriptions, tags and content. Results are ranked by relevance (0-100) with up to three excerpts each."),
		mcp.WithString("term",
			mcp.Required(),
			mcp.Description("Search term, matched case-insensitively"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleSearchDocuments)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetRelatedDocuments,
		mcp.WithDescription("Find documents related to a document by category, shared tags and shared keywords."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the document to find relatives for"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of results (%d-%d)", query.MinRelated, query.MaxRelated)),
			mcp.DefaultNumber(query.DefaultRelated),
			mcp.Min(query.MinRelated),
			mcp.Max(query.MaxRelated),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetRelatedDocuments)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetAllTags,
		mcp.WithDescription("List every tag with the number of documents carrying it, most used first."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetAllTags)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetCategories,
		mcp.WithDescription("List the document categories with their document counts."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetCategories)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetIndexStatus,
		mcp.WithDescription("Report whether the document index is loaded, its size, source and load time. Does not trigger a load."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetIndexStatus)

	s.mcpServer.AddTool(mcp.NewTool(ToolRefreshDocuments,
		mcp.WithDescription("Rescan the documentation source and replace the index. The previous index stays in use if the rescan fails."),
		mcp.WithIdempotentHintAnnotation(true),
	), s.handleRefreshDocuments)
}

func (s *Server) handleGetAllDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.engine.ListAll(ctx)
	if err != nil {
		return s.errorResult(request, err), nil
	}
	return s.jsonResult(request, all), nil
}

func (s *Server) handleGetDocumentByIDOrPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("idOrPath")
	if err != nil {
		return s.errorResult(request, docs.InvalidArgument("idOrPath is required")), nil
	}

	doc, err := s.engine.ByIDOrPath(ctx, key)
	if err != nil {
		return s.errorResult(request, err), nil
	}
	if doc == nil {
		return s.errorResult(request, docs.NotFound(key)), nil
	}
	return s.jsonResult(request, doc), nil
}

func (s *Server) handleGetDocumentsByCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docsInCategory, err := s.engine.ByCategory(ctx, request.GetString("category", ""))
	if err != nil {
		return s.errorResult(request, err), nil
	}
	return s.jsonResult(request, docsInCategory), nil
}

func (s *Server) handleGetDocumentsByTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tagged, err := s.engine.ByTags(ctx, tagsArgument(request))
	if err != nil {
		return s.errorResult(request, err), nil
	}
	return s.jsonResult(request, tagged), nil
}

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, err := s.engine.Search(ctx, request.GetString("term", ""))
	if err != nil {
		return s.errorResult(request, err), nil
	}
	return s.jsonResult(request, results), nil
}

func (s *Server) handleGetRelatedDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return s.errorResult(request, docs.InvalidArgument("id is required")), nil
	}

	related, err := s.engine.Related(ctx, id, request.GetInt("maxResults", query.DefaultRelated))
	if err != nil {
		return s.errorResult(request, err), nil
	}
	return s.jsonResult(request, related), nil
}

func (s *Server) handleGetAllTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.engine.Tags(ctx)
	if err != nil {
		return s.errorResult(request, err), nil
	}
	return s.jsonResult(request, tags), nil
}

func (s *Server) handleGetCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.engine.Categories(ctx)
	if err != nil {
		return s.errorResult(request, err), nil
	}
	return s.jsonResult(request, cats), nil
}

func (s *Server) handleGetIndexStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.jsonResult(request, s.engine.Index().Stats()), nil
}

func (s *Server) handleRefreshDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.Index().Refresh(ctx)
	if err != nil {
		return s.errorResult(request, fmt.Errorf("refresh failed, previous index kept: %w", err)), nil
	}
	return s.jsonResult(request, stats), nil
}

// tagsArgument accepts either a comma separated string or a JSON array.
func tagsArgument(request mcp.CallToolRequest) []string {
	switch v := request.GetArguments()["tags"].(type) {
	case string:
		return query.ParseTagList(v)
	case []any:
		var tags []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				tags = append(tags, query.ParseTagList(str)...)
			}
		}
		return tags
	case []string:
		return query.ParseTagList(strings.Join(v, ","))
	default:
		return nil
	}
}

func categoryEnum() []string {
	names := make([]string, len(docs.AllCategories))
	for i, c := range docs.AllCategories {
		names[i] = c.String()
	}
	return names
}

// ErrorPayload is the JSON body of a failed tool call.
type ErrorPayload struct {
	Error string `json:"error"`
}

func (s *Server) jsonResult(request mcp.CallToolRequest, v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.errorResult(request, fmt.Errorf("failed to encode result: %w", err))
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult converts err into an {"error": ...} tool result. Not-found
// and argument errors are expected and logged at debug level only.
func (s *Server) errorResult(request mcp.CallToolRequest, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, docs.ErrNotFound), errors.Is(err, docs.ErrInvalidArgument):
		s.logger.Debug("Tool call rejected", "tool", request.Params.Name, "reason", err)
	default:
		s.logger.Error("Tool call failed", "tool", request.Params.Name, "error", err)
	}

	data, _ := json.Marshal(ErrorPayload{Error: err.Error()})
	return mcp.NewToolResultError(string(data))
}
