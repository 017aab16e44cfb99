package main

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	var (
		configPath string
		locale     string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve checks to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg, ".", locale, logger)
			if err != nil {
				return err
			}
			reportConfigErrors(cmd.ErrOrStderr(), eng.configErr)
			return server.ServeStdio(newMCPServer(eng))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Project config file (default .treecheck/config.yaml)")
	cmd.Flags().StringVar(&locale, "locale", "", "Message locale (BCP 47 tag)")
	return cmd
}

// mcpTools binds the MCP tool handlers to one engine.
type mcpTools struct {
	eng *engine
}

func newMCPServer(eng *engine) *server.MCPServer {
	s := server.NewMCPServer("treecheck", version, server.WithToolCapabilities(false))
	t := &mcpTools{eng: eng}

	s.AddTool(mcp.NewTool("lint_source",
		mcp.WithDescription("Check one source file and return the findings as a SARIF 2.1.0 log."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("File path; its extension selects the language")),
		mcp.WithString("source", mcp.Required(),
			mcp.Description("Full file content")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.lintSource)

	s.AddTool(mcp.NewTool("list_checks",
		mcp.WithDescription("List the checks that are enabled for this project."),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.listChecks)

	s.AddTool(mcp.NewTool("explain_check",
		mcp.WithDescription("Return the markdown documentation of a check."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Check name, as listed by list_checks")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.explainCheck)

	return s
}

func (t *mcpTools) lintSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	log, err := t.eng.checkSource(ctx, path, []byte(source), logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(log)
}

func (t *mcpTools) listChecks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.eng.checkInfos())
}

func (t *mcpTools) explainCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, ok := t.eng.registry.Get(name)
	if !ok {
		return mcp.NewToolResultError("no check named " + name), nil
	}
	return mcp.NewToolResultText(explainMarkdown(entry)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
