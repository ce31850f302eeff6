package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"archdocs/internal/docs"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// DocumentURIPrefix precedes "{category}/{name}" in document resource URIs.
	DocumentURIPrefix = "archdocs://documents/"
	// DocumentURITemplate addresses one document by category and file name.
	DocumentURITemplate = DocumentURIPrefix + "{category}/{name}"
	// StatusURI is the index status resource.
	StatusURI = "archdocs://status"

	markdownMIMEType = "text/markdown"
	jsonMIMEType     = "application/json"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(DocumentURITemplate, "Architecture document",
			mcp.WithTemplateDescription("Raw markdown of a document, addressed by category and file name without extension"),
			mcp.WithTemplateMIMEType(markdownMIMEType),
		),
		s.handleReadDocument,
	)

	s.mcpServer.AddResource(
		mcp.NewResource(StatusURI, "Index status",
			mcp.WithResourceDescription("Document index status: size, source, failures and load time"),
			mcp.WithMIMEType(jsonMIMEType),
		),
		s.handleReadStatus,
	)
}

// DocumentURI returns the resource URI of a document id such as "adrs/adr-001".
func DocumentURI(md docs.Metadata) string {
	return DocumentURIPrefix + md.ID
}

func (s *Server) handleReadDocument(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	id, err := documentIDFromURI(uri)
	if err != nil {
		return nil, err
	}

	doc, err := s.engine.FetchContent(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, docs.NotFound(id)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: markdownMIMEType,
			Text:     doc.Content,
		},
	}, nil
}

func (s *Server) handleReadStatus(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.engine.Index().Stats(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		},
	}, nil
}

// documentIDFromURI extracts "category/name" from a document URI. The
// category must be a recognized one; a trailing ".md" is dropped.
func documentIDFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, DocumentURIPrefix)
	if !ok {
		return "", docs.InvalidArgument("unsupported resource URI %q", uri)
	}

	category, name, ok := strings.Cut(rest, "/")
	name = strings.TrimSuffix(name, ".md")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", docs.InvalidArgument("resource URI %q must look like %s", uri, DocumentURITemplate)
	}

	cat, err := docs.ParseCategory(category)
	if err != nil {
		return "", err
	}
	return docs.NormalizeID(cat.String() + "/" + name), nil
}
