// internal/lsp/server.go
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chris-regnier/treecheck/internal/parse"
	"github.com/chris-regnier/treecheck/internal/sarif"
)

// LintFunc checks one document and returns its SARIF results.
type LintFunc func(ctx context.Context, path string, content []byte) ([]sarif.Result, error)

// Clearer is a result cache the clear-cache command can empty.
type Clearer interface {
	Clear() int
}

// documentResults holds the last check of a document for code actions.
type documentResults struct {
	results     []sarif.Result
	diagnostics []Diagnostic
	content     string
}

// ServerConfig holds configuration for the LSP server
type ServerConfig struct {
	DebounceDuration time.Duration
	ParallelFiles    int
	WatchPatterns    []string
	IgnorePatterns   []string
	Version          string
}

func DefaultServerConfig() ServerConfig {
	w := DefaultWatcherConfig()
	return ServerConfig{
		DebounceDuration: w.DebounceDuration,
		ParallelFiles:    w.ParallelFiles,
		WatchPatterns:    w.WatchPatterns,
		IgnorePatterns:   w.IgnorePatterns,
		Version:          "dev",
	}
}

// Server implements an LSP server
type Server struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	writeMu sync.Mutex
	lint    LintFunc
	logger  *slog.Logger

	documents map[string]string // URI -> content
	docMu     sync.RWMutex

	results   map[string]documentResults
	resultsMu sync.RWMutex

	watcher  *DebouncedWatcher
	cache    Clearer
	progress *ProgressReporter
	commands *CommandHandler
	config   ServerConfig

	rootPath    string
	initialized bool
	shutdown    bool
}

// NewServer creates a new LSP server with default configuration
func NewServer(reader *bufio.Reader, writer *bufio.Writer, lint LintFunc) *Server {
	return NewServerWithConfig(reader, writer, lint, DefaultServerConfig())
}

func NewServerWithConfig(reader *bufio.Reader, writer *bufio.Writer, lint LintFunc, cfg ServerConfig) *Server {
	s := &Server{
		reader:    reader,
		writer:    writer,
		lint:      lint,
		logger:    slog.Default(),
		documents: make(map[string]string),
		results:   make(map[string]documentResults),
		config:    cfg,
	}
	s.progress = NewProgressReporter(s.sendMessage)
	s.commands = NewCommandHandler(s)
	s.watcher = NewDebouncedWatcherWithConfig(WatcherConfig{
		DebounceDuration: cfg.DebounceDuration,
		ParallelFiles:    cfg.ParallelFiles,
		WatchPatterns:    cfg.WatchPatterns,
		IgnorePatterns:   cfg.IgnorePatterns,
	}, func(uris []string) {
		for _, uri := range uris {
			if content, ok := s.document(uri); ok {
				s.checkAndPublish(context.Background(), uri, content)
			}
		}
	})
	return s
}

// SetCache sets the cache emptied by the clear-cache command.
func (s *Server) SetCache(c Clearer) {
	s.cache = c
}

func (s *Server) SetLogger(l *slog.Logger) {
	s.logger = l
}

// jsonRPCMessage represents a JSON-RPC 2.0 message
type jsonRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Run reads messages until the client exits, the input ends or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	defer s.watcher.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := s.dispatch(ctx, msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Error("error handling message", "method", msg.Method, "err", err)
		}
	}
}

// readMessage reads one Content-Length framed message. Other headers are
// ignored.
func (s *Server) readMessage() (*jsonRPCMessage, error) {
	length := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header: %s", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid content length: %s", value)
			}
			length = n
		}
	}
	if length < 0 {
		return nil, errors.New("missing Content-Length header")
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return nil, err
	}
	var msg jsonRPCMessage
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON-RPC message: %w", err)
	}
	return &msg, nil
}

func (s *Server) dispatch(ctx context.Context, msg *jsonRPCMessage) error {
	switch msg.Method {
	case MethodInitialize:
		return s.handleInitialize(msg.ID, msg.Params)
	case MethodInitialized:
		s.initialized = true
		return nil
	case MethodTextDocumentDidOpen:
		return s.handleDidOpen(msg.Params)
	case MethodTextDocumentDidChange:
		return s.handleDidChange(msg.Params)
	case MethodTextDocumentDidSave:
		return s.handleDidSave(msg.Params)
	case MethodTextDocumentDidClose:
		return s.handleDidClose(msg.Params)
	case MethodTextDocumentCodeAction:
		return s.handleCodeAction(msg.ID, msg.Params)
	case MethodWorkspaceExecuteCommand:
		return s.handleExecuteCommand(ctx, msg.ID, msg.Params)
	case MethodWorkspaceDidChangeConfig:
		return s.handleDidChangeConfiguration(msg.Params)
	case MethodShutdown:
		s.shutdown = true
		s.watcher.Stop()
		return s.sendResponse(msg.ID, nil, nil)
	case MethodExit:
		return io.EOF
	case "":
		// A response to one of our requests, such as progress creation.
		return nil
	default:
		if msg.ID != nil {
			return s.sendResponse(msg.ID, nil, &rpcError{Code: codeMethodNotFound, Message: "method not found: " + msg.Method})
		}
		s.logger.Debug("unhandled LSP notification", "method", msg.Method)
		return nil
	}
}

func (s *Server) handleInitialize(id any, params json.RawMessage) error {
	var p InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendResponse(id, nil, &rpcError{Code: codeInvalidParams, Message: err.Error()})
	}
	if p.RootURI != "" {
		s.rootPath = uriToPath(p.RootURI)
	}

	return s.sendResponse(id, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    SyncFull,
				Save:      true,
			},
			CodeActionProvider: true,
			ExecuteCommandProvider: &ExecuteCommandOptions{
				Commands: []string{CommandCheckFile, CommandCheckOpenFiles, CommandClearCache},
			},
		},
		ServerInfo: &ServerInfo{Name: "treecheck", Version: s.config.Version},
	}, nil)
}

func (s *Server) handleDidOpen(params json.RawMessage) error {
	var p DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	if !s.shouldCheck(uri) {
		return nil
	}
	s.setDocument(uri, p.TextDocument.Text)
	s.watcher.FileChanged(uri)
	return nil
}

func (s *Server) handleDidChange(params json.RawMessage) error {
	var p DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	if !s.shouldCheck(uri) || len(p.ContentChanges) == 0 {
		return nil
	}
	s.setDocument(uri, p.ContentChanges[len(p.ContentChanges)-1].Text)
	s.watcher.FileChanged(uri)
	return nil
}

func (s *Server) handleDidSave(params json.RawMessage) error {
	var p DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	if !s.shouldCheck(uri) {
		return nil
	}
	if p.Text != nil {
		s.setDocument(uri, *p.Text)
	}
	s.watcher.FileChanged(uri)
	return nil
}

// handleDidClose forgets the document and clears its diagnostics.
func (s *Server) handleDidClose(params json.RawMessage) error {
	var p DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI

	s.docMu.Lock()
	_, open := s.documents[uri]
	delete(s.documents, uri)
	s.docMu.Unlock()

	s.resultsMu.Lock()
	delete(s.results, uri)
	s.resultsMu.Unlock()

	if !open {
		return nil
	}
	return s.publishDiagnostics(uri, []Diagnostic{})
}

func (s *Server) handleCodeAction(id any, params json.RawMessage) error {
	var p CodeActionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendResponse(id, nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)})
	}
	uri := p.TextDocument.URI

	s.resultsMu.RLock()
	entry, ok := s.results[uri]
	s.resultsMu.RUnlock()
	if !ok {
		return s.sendResponse(id, []CodeAction{}, nil)
	}

	relevant := FilterDiagnosticsForRange(entry.diagnostics, p.Range)
	actions := GetCodeActions(uri, entry.content, relevant)
	if actions == nil {
		actions = []CodeAction{}
	}
	return s.sendResponse(id, actions, nil)
}

func (s *Server) handleExecuteCommand(ctx context.Context, id any, params json.RawMessage) error {
	var p ExecuteCommandParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendResponse(id, nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)})
	}
	result, err := s.commands.Execute(ctx, p)
	if err != nil {
		return s.sendResponse(id, nil, &rpcError{Code: codeInternalError, Message: err.Error()})
	}
	return s.sendResponse(id, result, nil)
}

// handleDidChangeConfiguration applies settings found either at the top
// level or under a "treecheck" key. Invalid settings are ignored.
func (s *Server) handleDidChangeConfiguration(params json.RawMessage) error {
	var p DidChangeConfigurationParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	raw, err := json.Marshal(p.Settings)
	if err != nil {
		return nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		if inner, ok := nested["treecheck"]; ok {
			raw = inner
		}
	}
	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil
	}

	update := WatcherConfig{
		ParallelFiles:  settings.ParallelFiles,
		WatchPatterns:  settings.WatchPatterns,
		IgnorePatterns: settings.IgnorePatterns,
	}
	if settings.Debounce != "" {
		if d, err := time.ParseDuration(settings.Debounce); err == nil {
			update.DebounceDuration = d
		}
	}
	s.watcher.UpdateConfig(update)
	return nil
}

// checkAndPublish checks a document, remembers the results for code
// actions and publishes the diagnostics. It returns how many were sent.
func (s *Server) checkAndPublish(ctx context.Context, uri, content string) int {
	results, err := s.lint(ctx, s.lintPath(uri), []byte(content))
	switch {
	case errors.Is(err, parse.ErrUnsupportedLanguage):
		s.logger.Debug("no grammar for document", "uri", uri)
		return 0
	case err != nil:
		s.logger.Error("check failed", "uri", uri, "err", err)
		return 0
	}

	diagnostics := ToDiagnostics(results, content)
	s.resultsMu.Lock()
	s.results[uri] = documentResults{results: results, diagnostics: diagnostics, content: content}
	s.resultsMu.Unlock()

	if err := s.publishDiagnostics(uri, diagnostics); err != nil {
		s.logger.Error("failed to publish diagnostics", "uri", uri, "err", err)
	}
	return len(diagnostics)
}

// lintPath is the path handed to the checks: relative to the workspace
// root when the document lies inside it, so suppression globs apply.
func (s *Server) lintPath(uri string) string {
	path := uriToPath(uri)
	if s.rootPath == "" {
		return path
	}
	rel, err := filepath.Rel(s.rootPath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

func (s *Server) shouldCheck(uri string) bool {
	return s.watcher.ShouldWatch(uriToPath(uri))
}

func (s *Server) document(uri string) (string, bool) {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	content, ok := s.documents[uri]
	return content, ok
}

func (s *Server) setDocument(uri, content string) {
	s.docMu.Lock()
	s.documents[uri] = content
	s.docMu.Unlock()
}

// openDocuments returns the URIs of open documents in sorted order.
func (s *Server) openDocuments() []string {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	uris := make([]string, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func (s *Server) publishDiagnostics(uri string, diagnostics []Diagnostic) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		Method:  MethodTextDocumentPublishDiagnostics,
		Params:  mustMarshal(PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics}),
	})
}

func (s *Server) sendResponse(id any, result any, rpcErr *rpcError) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
		Error:   rpcErr,
	})
}

// sendMessage writes a Content-Length framed message. Diagnostics are
// published from watcher goroutines, so writes are serialized.
func (s *Server) sendMessage(msg jsonRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}

// uriToPath converts a file:// URI to a filesystem path. Anything else is
// returned unchanged.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return filepath.FromSlash(u.Path)
}

// mustMarshal marshals v to JSON, panicking on error
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal: %v", err))
	}
	return data
}
