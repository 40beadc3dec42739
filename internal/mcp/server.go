// Package mcp exposes the normalization pipeline as Model Context Protocol
// tools, served over stdio for desktop assistants and editors.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/chartmerge/internal/ingest"
	"github.com/hurttlocker/chartmerge/internal/normalize"
)

// RegistryURI is the resource holding the active pattern table.
const RegistryURI = "chartmerge://registry"

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Pipeline *normalize.Pipeline
	Version  string // reported in server info
}

// NewServer creates an MCP server with the chart tools and the registry
// resource registered.
func NewServer(cfg ServerConfig) (*server.MCPServer, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"chartmerge",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	registerNormalizeTool(s, cfg.Pipeline)
	registerSectionsTool(s, cfg.Pipeline)
	registerClassifyTool(s, cfg.Pipeline)
	registerRegistryTool(s, cfg.Pipeline)
	registerRegistryResource(s, cfg.Pipeline)

	return s, nil
}

// ServeStdio runs s on stdin/stdout until ctx is done or stdin closes.
func ServeStdio(ctx context.Context, s *server.MCPServer) error {
	return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
}

func registerNormalizeTool(s *server.MCPServer, p *normalize.Pipeline) {
	tool := mcp.NewTool("chart_normalize",
		mcp.WithDescription("Normalize a multi-encounter clinical chart into one summary document with a fixed section order. Returns the document text, or the document plus a run report when format is json."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw chart text"),
		),
		mcp.WithString("mode",
			mcp.Description("Pipeline mode (default: auto)"),
			mcp.Enum(string(normalize.ModeAuto), string(normalize.ModeNotes), string(normalize.ModeSections)),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text or json (default: text)"),
			mcp.Enum("text", "json"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, errResult := requireText(req)
		if errResult != nil {
			return errResult, nil
		}

		mode := normalize.ModeAuto
		if m, err := req.RequireString("mode"); err == nil {
			mode, err = normalize.ParseMode(m)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid mode: %v", err)), nil
			}
		}

		res, err := p.RunMode(ctx, text, mode)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("normalize error: %v", err)), nil
		}

		if format, err := req.RequireString("format"); err == nil && format == "json" {
			return jsonResult(res), nil
		}
		return mcp.NewToolResultText(res.Document.Text), nil
	})
}

func registerSectionsTool(s *server.MCPServer, p *normalize.Pipeline) {
	tool := mcp.NewTool("chart_sections",
		mcp.WithDescription("Split chart text into labeled clinical sections using the pattern registry. Reports coverage and whether the unmatched-text fallback section was emitted."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw chart text"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, errResult := requireText(req)
		if errResult != nil {
			return errResult, nil
		}
		return jsonResult(p.Agent().Extract(ingest.Clean(text))), nil
	})
}

func registerClassifyTool(s *server.MCPServer, p *normalize.Pipeline) {
	tool := mcp.NewTool("chart_classify",
		mcp.WithDescription("Split chart text into encounter notes and classify each as primary, other, request or embedded."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw chart text"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, errResult := requireText(req)
		if errResult != nil {
			return errResult, nil
		}
		res := p.Classifier().Classify(ingest.Clean(text))
		return jsonResult(map[string]any{
			"counts": res.Counts(),
			"notes":  res.All(),
		}), nil
	})
}

func registerRegistryTool(s *server.MCPServer, p *normalize.Pipeline) {
	tool := mcp.NewTool("chart_registry",
		mcp.WithDescription("List the section types, labels, display order and header patterns of the active pattern registry."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(registryPayload(p)), nil
	})
}

func registerRegistryResource(s *server.MCPServer, p *normalize.Pipeline) {
	resource := mcp.NewResource(
		RegistryURI,
		"Pattern Registry",
		mcp.WithResourceDescription("Active section pattern registry."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.MarshalIndent(registryPayload(p), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding registry: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func registryPayload(p *normalize.Pipeline) map[string]any {
	reg := p.Registry()
	return map[string]any{
		"version": reg.Version(),
		"entries": reg.Entries(),
	}
}

func requireText(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	text, err := req.RequireString("text")
	if err != nil {
		return "", mcp.NewToolResultError("text is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", mcp.NewToolResultError("chart text cannot be empty")
	}
	if len(text) > ingest.DefaultMaxBytes {
		return "", mcp.NewToolResultError(ingest.ErrInputTooLarge.Error())
	}
	return text, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
