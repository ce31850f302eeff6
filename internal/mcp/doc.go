// Package mcp exposes the archdocs query engine as a Model Context Protocol
// (MCP) server using mcp-go.
//
// # Tools
//
// Every query engine operation is registered as a named tool:
//
//   - GetAllDocuments
//   - GetDocumentByIdOrPath (idOrPath)
//   - GetDocumentsByCategory (category)
//   - GetDocumentsByTags (tags, comma separated)
//   - SearchDocuments (term)
//   - GetRelatedDocuments (id, maxResults = 5)
//   - GetAllTags, GetCategories
//   - GetIndexStatus, RefreshDocuments
//
// Results are JSON text. Failures are returned as a tool result whose text
// is {"error": "..."} with IsError set, never as a protocol fault, so the
// calling assistant always sees a readable message.
//
// # Resources
//
// Documents are also readable as resources through the template
//
//	archdocs://documents/{category}/{name}
//
// which returns the raw markdown, plus archdocs://status for the index
// status.
//
// # Transport
//
// The server speaks JSON-RPC over stdio by default:
//
//	archdocs serve
//
// or streamable HTTP when an address is configured:
//
//	archdocs serve --http :8080
//
// Logs never go to stdout because stdout carries the stdio transport.
//
// # References
//
// - MCP Specification: https://modelcontextprotocol.io/specification
// - mcp-go Library: https://github.com/mark3labs/mcp-go
package mcp
