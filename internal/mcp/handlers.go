package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
	"github.com/moestate/newsdesk/internal/ingest"
	"github.com/moestate/newsdesk/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	manager    *ops.Manager
	generator  *brief.Generator
	catalog    *catalog.Provider
	ingest     *ingest.Service
	exportsDir string
}

// NewHandlers creates a new Handlers instance. Export and import paths are
// confined to exportsDir.
func NewHandlers(manager *ops.Manager, generator *brief.Generator, provider *catalog.Provider, news *ingest.Service, exportsDir string) *Handlers {
	return &Handlers{
		manager:    manager,
		generator:  generator,
		catalog:    provider,
		ingest:     news,
		exportsDir: exportsDir,
	}
}

// IDRequest represents the arguments for get and delete.
type IDRequest struct {
	ID string `json:"id"`
}

// UpdateRequest represents the arguments for update.
type UpdateRequest struct {
	ID string `json:"id"`
	digest.Patch
}

// ListRequest represents the arguments for list.
type ListRequest struct {
	Search   string `json:"search,omitempty"`
	TimeSpan string `json:"time_span,omitempty"`
	Sort     string `json:"sort,omitempty"`
}

// AppendRequest represents the arguments for append.
type AppendRequest struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Content string `json:"content"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// CatalogRequest represents the arguments for catalog_fetch.
type CatalogRequest struct {
	Category string `json:"category,omitempty"`
}

// mirrored is a successful local write whose remote copy failed.
type mirrored struct {
	Result      any    `json:"result"`
	MirrorError string `json:"mirror_error"`
}

// HandleGenerate handles the brief_generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[brief.Request](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := ops.Generate(ctx, h.generator, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleCreate handles the digest_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	form, err := decodeForm(req)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return errorResult(err), nil
		}
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	d, err := h.manager.Create(ctx, form)
	return writeResult(d, d != nil, err)
}

// HandleGet handles the digest_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	d, err := h.manager.Get(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	if d == nil {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(d)
}

// HandleUpdate handles the digest_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	d, err := h.manager.Update(ctx, input.ID, input.Patch)
	if d == nil && err == nil {
		return successResult(map[string]any{"updated": false, "id": input.ID})
	}
	return writeResult(d, d != nil, err)
}

// HandleDelete handles the digest_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := h.manager.Remove(ctx, input.ID)
	return writeResult(out, out != nil, err)
}

// HandleList handles the digest_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := h.manager.List(ctx, ops.ListInput{
		Search:   input.Search,
		TimeSpan: input.TimeSpan,
		Sort:     input.Sort,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleAppend handles the digest_append tool call.
func (h *Handlers) HandleAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AppendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := h.manager.Append(ctx, ops.AppendInput{
		ID:      input.ID,
		Section: input.Section,
		Content: input.Content,
	})
	return writeResult(out, out != nil, err)
}

// HandleExport handles the digest_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := h.manager.ExportFile(ctx, ops.ExportFileInput{
		ID:   input.ID,
		Dir:  h.exportsDir,
		Path: input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleImport handles the digest_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := h.manager.Import(ctx, ops.ImportInput{
		Path: input.Path,
		Dir:  h.exportsDir,
		Mode: ops.ImportMode(input.Mode),
	})
	return writeResult(out, out != nil, err)
}

// HandleIngest handles the news_ingest tool call.
func (h *Handlers) HandleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.ingest.Fetch(ctx))
}

// HandleCatalog handles the catalog_fetch tool call.
func (h *Handlers) HandleCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CatalogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	var filter *catalog.Category
	if input.Category != "" {
		c, err := catalog.ParseCategory(input.Category)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		filter = &c
	}
	entries, err := h.catalog.Fetch(ctx, filter)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return successResult(map[string]any{"source": h.catalog.SourceName(), "entries": entries})
}

// writeResult reports a write op. A local success with a failed mirror is
// still a success, carrying the mirror error next to the result.
func writeResult(result any, ok bool, err error) (*mcp.CallToolResult, error) {
	if !ok {
		return errorResult(err), nil
	}
	if err != nil {
		return successResult(mirrored{Result: result, MirrorError: errors.As(err).Message})
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// INTERNAL errors omit details so paths and SQL text do not leak to clients.
// Storage failures are reported as the tagged ops.Result.
func errorResult(err error) *mcp.CallToolResult {
	appErr := errors.As(err)
	if appErr.Code == errors.ErrStorageFailed {
		content, _ := json.Marshal(ops.ResultOf(appErr))
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
			IsError: true,
		}
	}
	errorObj := map[string]any{
		"code":    appErr.Code,
		"message": appErr.Message,
		"status":  appErr.Status,
	}
	if appErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if appErr.Details != nil {
		errorObj["details"] = appErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
