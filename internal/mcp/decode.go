package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/moestate/newsdesk/internal/digest"
)

// decode unmarshals tool arguments into a typed request.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// decodeForm parses tool arguments as a digest form, with the same key rules
// as every other form entry point.
func decodeForm(req mcp.CallToolRequest) (digest.Form, error) {
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return digest.Form{}, fmt.Errorf("marshal args: %w", err)
	}
	return digest.DecodeForm(b)
}
