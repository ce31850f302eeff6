package mcp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"archdocs/internal/docs"
	"archdocs/internal/index"
	"archdocs/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func (r toolResult) text(t *testing.T) string {
	t.Helper()
	require.Len(t, r.Content, 1)
	assert.Equal(t, "text", r.Content[0].Type)
	return r.Content[0].Text
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) toolResult {
	t.Helper()

	resp := rpc(t, s, "tools/call", map[string]any{"name": name, "arguments": args})
	require.Nil(t, resp.Error, "tool call must not fail at the protocol level")

	var res toolResult
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	return res
}

// decode unmarshals a successful tool result into v.
func decode(t *testing.T, res toolResult, v any) {
	t.Helper()
	require.False(t, res.IsError, res.text(t))
	require.NoError(t, json.Unmarshal([]byte(res.text(t)), v))
}

// errorMessage returns the error field of a failed tool result.
func errorMessage(t *testing.T, res toolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(res.text(t)), &payload))
	require.NotEmpty(t, payload.Error)
	return payload.Error
}

func TestTool_GetAllDocuments(t *testing.T) {
	s, _ := newTestServer(t)

	var all []docs.Metadata
	decode(t, callTool(t, s, ToolGetAllDocuments, nil), &all)

	require.Len(t, all, 4)
	ids := map[string]docs.Metadata{}
	for _, md := range all {
		ids[md.ID] = md
	}
	require.Contains(t, ids, "adrs/adr-001")
	assert.Equal(t, "Use Aspire for Development", ids["adrs/adr-001"].Title)
	assert.Equal(t, []string{"Architecture", "cloud"}, ids["adrs/adr-001"].Tags)
	assert.Equal(t, "ADRs/adr-001.md", ids["adrs/adr-001"].SourcePath)
}

func TestTool_GetDocumentByIdOrPath(t *testing.T) {
	s, _ := newTestServer(t)

	for _, key := range []string{"adrs/adr-002", "ADRs/adr-002.md", "ADRs/adr-002"} {
		t.Run(key, func(t *testing.T) {
			var doc docs.Content
			decode(t, callTool(t, s, ToolGetDocumentByIDOrPath, map[string]any{"idOrPath": key}), &doc)
			assert.Equal(t, "adrs/adr-002", doc.ID)
			assert.Equal(t, testDocs["ADRs/adr-002.md"], doc.Content)
		})
	}

	t.Run("not found", func(t *testing.T) {
		res := callTool(t, s, ToolGetDocumentByIDOrPath, map[string]any{"idOrPath": "adrs/does-not-exist"})
		assert.Contains(t, errorMessage(t, res), "not found")
	})

	t.Run("missing argument", func(t *testing.T) {
		res := callTool(t, s, ToolGetDocumentByIDOrPath, map[string]any{})
		assert.Contains(t, errorMessage(t, res), "idOrPath")
	})
}

func TestTool_GetDocumentsByCategory(t *testing.T) {
	s, _ := newTestServer(t)

	var adrs []docs.Metadata
	decode(t, callTool(t, s, ToolGetDocumentsByCategory, map[string]any{"category": "adrs"}), &adrs)
	assert.Len(t, adrs, 2)

	var structures []docs.Metadata
	decode(t, callTool(t, s, ToolGetDocumentsByCategory, map[string]any{"category": "Structures"}), &structures)
	assert.NotNil(t, structures)
	assert.Empty(t, structures)

	res := callTool(t, s, ToolGetDocumentsByCategory, map[string]any{"category": "Blueprints"})
	assert.Contains(t, errorMessage(t, res), "invalid category")
}

func TestTool_GetDocumentsByTags(t *testing.T) {
	s, _ := newTestServer(t)

	var tagged []docs.Metadata
	decode(t, callTool(t, s, ToolGetDocumentsByTags, map[string]any{"tags": "ARCHITECTURE"}), &tagged)
	assert.Len(t, tagged, 2)

	decode(t, callTool(t, s, ToolGetDocumentsByTags, map[string]any{"tags": []any{"go", "cloud"}}), &tagged)
	assert.Len(t, tagged, 2)

	res := callTool(t, s, ToolGetDocumentsByTags, map[string]any{"tags": " , "})
	assert.Contains(t, errorMessage(t, res), "tag")
}

func TestTool_SearchDocuments(t *testing.T) {
	s, _ := newTestServer(t)

	var results []docs.SearchResult
	decode(t, callTool(t, s, ToolSearchDocuments, map[string]any{"term": "aspire"}), &results)

	require.Len(t, results, 2)
	assert.Equal(t, "adrs/adr-001", results[0].Metadata.ID)
	assert.Equal(t, "adrs/adr-002", results[1].Metadata.ID)
	assert.NotEmpty(t, results[0].Excerpts)

	res := callTool(t, s, ToolSearchDocuments, map[string]any{"term": ""})
	assert.Contains(t, errorMessage(t, res), "search term")
}

func TestTool_GetRelatedDocuments(t *testing.T) {
	s, _ := newTestServer(t)

	var related []docs.Metadata
	decode(t, callTool(t, s, ToolGetRelatedDocuments, map[string]any{"id": "adrs/adr-001"}), &related)
	require.NotEmpty(t, related)
	assert.Equal(t, "adrs/adr-002", related[0].ID)
	for _, md := range related {
		assert.NotEqual(t, "adrs/adr-001", md.ID)
	}

	decode(t, callTool(t, s, ToolGetRelatedDocuments, map[string]any{"id": "adrs/adr-001", "maxResults": 1}), &related)
	assert.Len(t, related, 1)

	decode(t, callTool(t, s, ToolGetRelatedDocuments, map[string]any{"id": "adrs/unknown"}), &related)
	assert.Empty(t, related)

	res := callTool(t, s, ToolGetRelatedDocuments, map[string]any{"id": "adrs/adr-001", "maxResults": 21})
	assert.Contains(t, errorMessage(t, res), "maxResults")

	res = callTool(t, s, ToolGetRelatedDocuments, map[string]any{"id": "adrs/adr-001", "maxResults": 0})
	assert.Contains(t, errorMessage(t, res), "maxResults")
}

func TestTool_GetAllTags(t *testing.T) {
	s, _ := newTestServer(t)

	var tags []docs.TagCount
	decode(t, callTool(t, s, ToolGetAllTags, nil), &tags)

	require.NotEmpty(t, tags)
	assert.Equal(t, docs.TagCount{Tag: "Architecture", Count: 2}, tags[0])
}

func TestTool_GetCategories(t *testing.T) {
	s, _ := newTestServer(t)

	var cats []docs.CategoryCount
	decode(t, callTool(t, s, ToolGetCategories, nil), &cats)

	assert.Equal(t, []docs.CategoryCount{
		{Category: docs.CategoryADRs, Count: 2},
		{Category: docs.CategoryRecommendations, Count: 1},
		{Category: docs.CategoryStyleGuides, Count: 1},
		{Category: docs.CategoryStructures, Count: 0},
	}, cats)
}

func TestTool_IndexStatusAndRefresh(t *testing.T) {
	s, root := newTestServer(t)

	var stats index.Stats
	decode(t, callTool(t, s, ToolGetIndexStatus, nil), &stats)
	assert.False(t, stats.Ready, "status must not trigger a scan")

	decode(t, callTool(t, s, ToolGetAllDocuments, nil), &[]docs.Metadata{})
	decode(t, callTool(t, s, ToolGetIndexStatus, nil), &stats)
	assert.True(t, stats.Ready)
	assert.Equal(t, 4, stats.Documents)
	assert.Equal(t, 1, stats.Generation)

	require.NoError(t, os.WriteFile(filepath.Join(root, "ADRs", "adr-003.md"), []byte("# Third\n"), 0o644))

	decode(t, callTool(t, s, ToolRefreshDocuments, nil), &stats)
	assert.Equal(t, 5, stats.Documents)
	assert.Equal(t, 2, stats.Generation)

	var doc docs.Content
	decode(t, callTool(t, s, ToolGetDocumentByIDOrPath, map[string]any{"idOrPath": "adrs/adr-003"}), &doc)
	assert.Equal(t, "Third", doc.Title)
}

func TestTagsArgument(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"comma string", map[string]any{"tags": "a, b;c"}, []string{"a", "b", "c"}},
		{"json array", map[string]any{"tags": []any{"a", "b,c", 3}}, []string{"a", "b", "c"}},
		{"string slice", map[string]any{"tags": []string{"a", "b"}}, []string{"a", "b"}},
		{"missing", map[string]any{}, nil},
		{"wrong type", map[string]any{"tags": 7}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{}
			req.Params.Arguments = tt.args
			assert.Equal(t, tt.want, tagsArgument(req))
		})
	}
}

func TestErrorResult_LogsUnexpectedFailures(t *testing.T) {
	s, _ := newTestServer(t)
	logger, buf := logging.NewTestLogger()
	s.logger = logger

	req := mcp.CallToolRequest{}
	req.Params.Name = ToolSearchDocuments

	res := s.errorResult(req, docs.InvalidArgument("bad"))
	assert.True(t, res.IsError)
	assert.NotContains(t, buf.String(), "Tool call failed")

	s.errorResult(req, assert.AnError)
	assert.Contains(t, buf.String(), "Tool call failed")
}
