// internal/lsp/commands.go
package lsp

import (
	"context"
	"fmt"
)

// CommandResult represents the result of executing a command
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// CommandHandler handles workspace/executeCommand requests
type CommandHandler struct {
	server *Server
}

func NewCommandHandler(server *Server) *CommandHandler {
	return &CommandHandler{server: server}
}

// Execute handles a command execution request
func (h *CommandHandler) Execute(ctx context.Context, params ExecuteCommandParams) (*CommandResult, error) {
	switch params.Command {
	case CommandCheckFile:
		return h.checkFile(ctx, params.Arguments)
	case CommandCheckOpenFiles:
		return h.checkOpenFiles(ctx)
	case CommandClearCache:
		return h.clearCache()
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

// checkFile re-checks one open document immediately.
func (h *CommandHandler) checkFile(ctx context.Context, args []any) (*CommandResult, error) {
	if len(args) < 1 {
		return &CommandResult{Message: "file URI argument required"}, nil
	}
	uri, ok := args[0].(string)
	if !ok {
		return &CommandResult{Message: "file URI must be a string"}, nil
	}
	content, ok := h.server.document(uri)
	if !ok {
		return &CommandResult{Message: fmt.Sprintf("document not open: %s", uri)}, nil
	}

	n := h.server.checkAndPublish(ctx, uri, content)
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Checked %s", uri),
		Data:    map[string]int{"diagnostics": n},
	}, nil
}

// checkOpenFiles re-checks every open document with progress reporting.
func (h *CommandHandler) checkOpenFiles(ctx context.Context) (*CommandResult, error) {
	docs := h.server.openDocuments()
	if len(docs) == 0 {
		return &CommandResult{Success: true, Message: "No documents open"}, nil
	}

	const token = "treecheck-check-open-files"
	progress := h.server.progress
	if err := progress.Begin(token, "Checking open files"); err != nil {
		h.server.logger.Debug("progress unavailable", "err", err)
	}

	checked, diagnostics := 0, 0
	for _, uri := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !h.server.shouldCheck(uri) {
			continue
		}
		content, ok := h.server.document(uri)
		if !ok {
			continue
		}
		diagnostics += h.server.checkAndPublish(ctx, uri, content)
		checked++
		_ = progress.Report(token, fmt.Sprintf("Checked %d/%d files", checked, len(docs)), checked, len(docs))
	}
	_ = progress.End(token, fmt.Sprintf("Checked %d files", checked))

	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Checked %d files", checked),
		Data:    map[string]int{"filesChecked": checked, "diagnostics": diagnostics},
	}, nil
}

// clearCache drops the server's result cache and the per-document results.
func (h *CommandHandler) clearCache() (*CommandResult, error) {
	h.server.resultsMu.Lock()
	h.server.results = make(map[string]documentResults)
	h.server.resultsMu.Unlock()

	if h.server.cache == nil {
		return &CommandResult{Success: true, Message: "Cleared document results; no cache configured"}, nil
	}
	n := h.server.cache.Clear()
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Cleared %d cached results", n),
		Data:    map[string]int{"cleared": n},
	}, nil
}
