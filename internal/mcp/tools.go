package mcp

import "github.com/mark3labs/mcp-go/mcp"

var propertyTypes = []string{"office", "retail", "industrial", "multifamily", "all"}

var articleItems = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":          map[string]any{"type": "string"},
		"title":       map[string]any{"type": "string"},
		"source":      map[string]any{"type": "string"},
		"url":         map[string]any{"type": "string"},
		"publishedAt": map[string]any{"type": "string"},
		"excerpt":     map[string]any{"type": "string"},
		"type":        map[string]any{"type": "string", "enum": []string{"article", "permit", "mls", "sale"}},
	},
	"required": []string{"id", "title", "source", "url", "publishedAt"},
}

var dateRangeProps = map[string]any{
	"start": map[string]any{"type": "string", "description": "YYYY-MM-DD"},
	"end":   map[string]any{"type": "string", "description": "YYYY-MM-DD"},
}

var generateToolDef = mcp.NewTool("brief_generate",
	mcp.WithDescription("Compose a market brief from the property records catalog. Nothing is saved; pass the result to digest_create to keep it."),
	mcp.WithString("propertyType", mcp.Required(), mcp.Enum(propertyTypes...)),
	mcp.WithString("timeSpan", mcp.Required(), mcp.Enum("daily", "weekly", "custom")),
	mcp.WithObject("customDateRange", mcp.Description("Required when timeSpan is custom"), mcp.Properties(dateRangeProps)),
)

var createToolDef = mcp.NewTool("digest_create",
	mcp.WithDescription("Save a new digest. Returns it with its id and timestamps."),
	mcp.WithString("title", mcp.Required(), mcp.MaxLength(200)),
	mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
	mcp.WithString("propertyType", mcp.Required(), mcp.Enum(propertyTypes...)),
	mcp.WithString("timeSpan", mcp.Required(), mcp.Enum("daily", "weekly", "custom")),
	mcp.WithObject("customDateRange", mcp.Properties(dateRangeProps)),
	mcp.WithArray("articles", mcp.Items(articleItems)),
)

var getToolDef = mcp.NewTool("digest_get",
	mcp.WithDescription("Fetch one digest by id."),
	mcp.WithString("id", mcp.Required()),
)

var updateToolDef = mcp.NewTool("digest_update",
	mcp.WithDescription("Replace the given fields of a digest. Unknown ids are a no-op."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithString("title", mcp.MaxLength(200)),
	mcp.WithString("content"),
	mcp.WithString("propertyType", mcp.Enum(propertyTypes...)),
	mcp.WithString("timeSpan", mcp.Enum("daily", "weekly", "custom")),
	mcp.WithObject("customDateRange", mcp.Properties(dateRangeProps)),
	mcp.WithArray("articles", mcp.Items(articleItems)),
)

var deleteToolDef = mcp.NewTool("digest_delete",
	mcp.WithDescription("Delete a digest by id."),
	mcp.WithString("id", mcp.Required()),
)

var listToolDef = mcp.NewTool("digest_list",
	mcp.WithDescription("List digest summaries, optionally filtered and sorted."),
	mcp.WithString("search", mcp.Description("Case-insensitive match on title or content")),
	mcp.WithString("time_span", mcp.Enum("daily", "weekly", "custom", "all")),
	mcp.WithString("sort", mcp.Enum("newest", "oldest", "title")),
)

var appendToolDef = mcp.NewTool("digest_append",
	mcp.WithDescription("Append markdown to the end of one section of a digest."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithString("section", mcp.Required(), mcp.Description("Heading name, e.g. \"Market Summary\"")),
	mcp.WithString("content", mcp.Required()),
)

var exportToolDef = mcp.NewTool("digest_export",
	mcp.WithDescription("Write a digest as indented JSON to the exports directory."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithString("path", mcp.Description("Target file inside the exports directory (default digest-{id}.txt)")),
)

var importToolDef = mcp.NewTool("digest_import",
	mcp.WithDescription("Load a digest previously written by digest_export."),
	mcp.WithString("path", mcp.Required()),
	mcp.WithString("mode", mcp.Enum("error", "replace")),
)

var ingestToolDef = mcp.NewTool("news_ingest",
	mcp.WithDescription("Fetch recent real estate news articles to attach to a digest."),
)

var catalogToolDef = mcp.NewTool("catalog_fetch",
	mcp.WithDescription("List property records (permits, listings, sales) with their derived category."),
	mcp.WithString("category", mcp.Enum("office", "retail", "industrial", "multifamily")),
)
