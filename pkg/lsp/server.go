// Package lsp provides a Language Server Protocol (LSP) server that reports
// conversion diagnostics for Vue class components and offers the conversion
// as a code action.
package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"unicode/utf16"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
	"github.com/Sumatoshi-tech/vueconv/pkg/version"
)

const (
	serverName       = "vueconv"
	diagnosticSource = "vueconv"

	// CommandConvert rewrites the document given as the first argument.
	CommandConvert = "vueconv.convert"
	// CommandConvertSetup rewrites it in the `<script setup>` form.
	CommandConvertSetup = "vueconv.convertScriptSetup"

	titleConvert      = "Convert to Composition API"
	titleConvertSetup = "Convert to <script setup>"
)

// ErrUnknownDocument reports a command on a document that is not open.
var ErrUnknownDocument = errors.New("document is not open")

// Server implements the vueconv LSP server.
type Server struct {
	store   *DocumentStore
	classic *convert.Converter
	setup   *convert.Converter
	logger  *slog.Logger
	handler protocol.Handler
}

// NewServer creates a server converting with opts. The `<script setup>`
// actions use the same options with ScriptSetup forced on.
func NewServer(opts convert.Options, logger *slog.Logger, extra ...convert.Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	classicOpts := opts
	classicOpts.ScriptSetup = false

	setupOpts := opts
	setupOpts.ScriptSetup = true

	srv := &Server{
		store:   NewDocumentStore(),
		classic: convert.New(classicOpts, extra...),
		setup:   convert.New(setupOpts, extra...),
		logger:  logger,
	}

	srv.handler = protocol.Handler{
		Initialize:              srv.initialize,
		Initialized:             srv.initialized,
		Shutdown:                srv.shutdown,
		SetTrace:                srv.setTrace,
		TextDocumentDidOpen:     srv.didOpen,
		TextDocumentDidChange:   srv.didChange,
		TextDocumentDidSave:     srv.didSave,
		TextDocumentDidClose:    srv.didClose,
		TextDocumentHover:       srv.hover,
		TextDocumentCodeAction:  srv.codeAction,
		WorkspaceExecuteCommand: srv.executeCommand,
	}

	return srv
}

// Run starts the LSP server on stdio.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandConvert, CommandConvertSetup},
	}

	ver := version.Get().Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			srv.store.Set(uri, c.Text)
		case map[string]any:
			if text, ok := c["text"].(string); ok {
				srv.store.Set(uri, text)
			}
		}
	}

	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: srv.Diagnostics(context.Background(), uri, text),
	})
}

// Diagnostics converts text and reports its conversion diagnostics, a hint
// on the convertible class, or the syntax error that stopped it.
func (srv *Server) Diagnostics(ctx context.Context, uri, text string) []protocol.Diagnostic {
	filename := documentName(uri)
	if !supported(filename) {
		return []protocol.Diagnostic{}
	}

	out := []protocol.Diagnostic{}

	result, err := srv.classic.Convert(ctx, filename, []byte(text))
	if err != nil {
		var syntaxErr *tsparse.SyntaxError
		if errors.As(err, &syntaxErr) {
			out = append(out, lspDiagnostic(text, diagnostic.Diagnostic{
				Severity: diagnostic.SeverityError,
				Code:     "syntax",
				Message:  err.Error(),
				Line:     syntaxErr.Line,
			}))
		} else {
			srv.logger.Debug("lsp diagnostics failed", "uri", uri, "error", err)
		}

		return out
	}

	for _, item := range result.Diagnostics.Items {
		if item.Code == diagnostic.CodeNoClass {
			continue
		}

		out = append(out, lspDiagnostic(text, item))
	}

	if result.Converted {
		line := 0

		inspection, inspectErr := srv.classic.Inspect(ctx, filename, []byte(text))
		if inspectErr == nil {
			line = inspection.Line
		}

		hint := lspDiagnostic(text, diagnostic.Diagnostic{
			Severity: diagnostic.SeverityInfo,
			Code:     "convertible",
			Message:  fmt.Sprintf("class component %s can be converted to the Composition API", result.Class),
			Line:     line,
		})
		severity := protocol.DiagnosticSeverityHint
		hint.Severity = &severity

		out = append(out, hint)
	}

	return out
}

// CodeActions offers the conversions of text that succeed.
func (srv *Server) CodeActions(ctx context.Context, uri, text string) []protocol.CodeAction {
	filename := documentName(uri)
	if !supported(filename) {
		return nil
	}

	kind := protocol.CodeActionKindRefactorRewrite

	var actions []protocol.CodeAction

	for _, variant := range []struct {
		title string
		conv  *convert.Converter
	}{
		{title: titleConvert, conv: srv.classic},
		{title: titleConvertSetup, conv: srv.setup},
	} {
		edit, err := convertEdit(ctx, variant.conv, uri, text)
		if err != nil || edit == nil {
			continue
		}

		actions = append(actions, protocol.CodeAction{
			Title: variant.title,
			Kind:  &kind,
			Edit:  edit,
		})
	}

	return actions
}

func (srv *Server) codeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	uri := params.TextDocument.URI

	text, ok := srv.store.Get(uri)
	if !ok {
		return nil, nil //nolint:nilnil // LSP expects null when the document is unknown.
	}

	return srv.CodeActions(context.Background(), uri, text), nil
}

func (srv *Server) executeCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	conv := srv.classic

	switch params.Command {
	case CommandConvert:
	case CommandConvertSetup:
		conv = srv.setup
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}

	if len(params.Arguments) == 0 {
		return nil, fmt.Errorf("%s: missing document URI", params.Command)
	}

	uri, _ := params.Arguments[0].(string)

	text, ok := srv.store.Get(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}

	edit, err := convertEdit(context.Background(), conv, uri, text)
	if err != nil {
		return nil, err
	}

	if edit == nil {
		return nil, nil //nolint:nilnil // Nothing to convert.
	}

	label := titleConvert
	if conv == srv.setup {
		label = titleConvertSetup
	}

	var applied protocol.ApplyWorkspaceEditResponse

	ctx.Call(protocol.ServerWorkspaceApplyEdit, protocol.ApplyWorkspaceEditParams{
		Label: &label,
		Edit:  *edit,
	}, &applied)

	return applied, nil
}

// convertEdit returns a whole-document edit, or nil when there is no class
// to convert.
func convertEdit(ctx context.Context, conv *convert.Converter, uri, text string) (*protocol.WorkspaceEdit, error) {
	result, err := conv.Convert(ctx, documentName(uri), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", uri, err)
	}

	if !result.Converted {
		return nil, nil //nolint:nilnil // No edit without a class.
	}

	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			uri: {{Range: wholeDocument(text), NewText: result.Code}},
		},
	}, nil
}

var hoverDocs = map[string]string{
	"Prop":      "`@Prop` becomes an entry of the `props` option; reads go through `props` or `toRefs(props)`.",
	"Watch":     "`@Watch(\"path\", options)` becomes `watch(source, handler, options)` in setup.",
	"Emit":      "`@Emit(\"event\")` becomes a function that calls `emit(\"event\", ...)` after its body.",
	"Component": "`@Component({...})` options are carried over to `defineComponent` or `defineOptions`.",
	"Options":   "`@Options({...})` options are carried over to `defineComponent` or `defineOptions`.",
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil // LSP protocol expects nil hover when no document found.
	}

	word := extractWordAtPosition(text, int(params.Position.Line), int(params.Position.Character))

	if doc, found := hoverDocs[word]; found {
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: doc,
			},
		}, nil
	}

	return nil, nil //nolint:nilnil // LSP protocol expects nil hover when no docs available.
}

// extractWordAtPosition returns the identifier at the given line/character.
func extractWordAtPosition(text string, line, character int) string {
	lines := strings.Split(text, "\n")
	if line >= len(lines) {
		return ""
	}

	lineText := lines[line]
	if character > len(lineText) {
		character = len(lineText)
	}

	start := character

	for start > 0 && isWordChar(lineText[start-1]) {
		start--
	}

	end := character

	for end < len(lineText) && isWordChar(lineText[end]) {
		end++
	}

	return lineText[start:end]
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
		ch == '_' || ch == '$'
}

func lspDiagnostic(text string, item diagnostic.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityInformation

	switch item.Severity {
	case diagnostic.SeverityError:
		severity = protocol.DiagnosticSeverityError
	case diagnostic.SeverityWarning:
		severity = protocol.DiagnosticSeverityWarning
	case diagnostic.SeverityInfo:
	}

	source := diagnosticSource

	return protocol.Diagnostic{
		Range:    lineRange(text, item.Line),
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: item.Code},
		Source:   &source,
		Message:  item.Message,
	}
}

// lineRange spans the 1-based line; unknown lines map to the first line.
func lineRange(text string, line int) protocol.Range {
	lines := strings.Split(text, "\n")

	idx := max(line-1, 0)
	if idx >= len(lines) {
		idx = len(lines) - 1
	}

	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(idx)},
		End:   protocol.Position{Line: protocol.UInteger(idx), Character: utf16Len(lines[idx])},
	}
}

func wholeDocument(text string) protocol.Range {
	lines := strings.Split(text, "\n")
	last := len(lines) - 1

	return protocol.Range{
		Start: protocol.Position{},
		End:   protocol.Position{Line: protocol.UInteger(last), Character: utf16Len(lines[last])},
	}
}

func utf16Len(s string) protocol.UInteger {
	return protocol.UInteger(len(utf16.Encode([]rune(s))))
}

// documentName returns the file name of a document URI.
func documentName(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Path == "" {
		return path.Base(uri)
	}

	return path.Base(parsed.Path)
}

func supported(filename string) bool {
	_, err := tsparse.DetectLanguage(filename, nil)

	return err == nil
}
