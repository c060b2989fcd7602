// SPDX-License-Identifier: MPL-2.0

package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/avorty/spito-lsp/internal/completion"
	"github.com/avorty/spito-lsp/internal/discovery"
	"github.com/avorty/spito-lsp/internal/issue"
	"github.com/avorty/spito-lsp/internal/spitoconf"
	"github.com/avorty/spito-lsp/internal/watch"
	"github.com/avorty/spito-lsp/internal/workspace"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

func (s *Server) onInitialize(ctx context.Context, params json.RawMessage) (any, error) {
	if s.State() != StateCreated {
		return nil, rpcError(jsonrpc2.CodeInvalidRequest, "server already initialized")
	}

	var p protocol.InitializeParams
	if len(params) > 0 {
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
	}

	root, err := s.resolveRoot(&p)
	if err != nil {
		return nil, rpcError(jsonrpc2.CodeInvalidParams, "%v", err)
	}
	if err := s.activate(ctx, root); err != nil {
		return nil, rpcError(jsonrpc2.CodeInternalError, "%s", issue.FormatForDisplay(err, false))
	}
	s.state.Store(int32(StateRunning))

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{completion.TriggerCharacter},
				ResolveProvider:   true,
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: ServerName, Version: s.version},
	}, nil
}

// resolveRoot picks the workspace root: rootUri, the first workspace folder,
// the deprecated rootPath, the configured root, then the working directory.
func (s *Server) resolveRoot(p *protocol.InitializeParams) (string, error) {
	switch {
	case p.RootURI != "":
		return URIToPath(string(p.RootURI))
	case len(p.WorkspaceFolders) > 0:
		return URIToPath(string(p.WorkspaceFolders[0].URI))
	case p.RootPath != "":
		return p.RootPath, nil
	case s.root != "":
		return s.root, nil
	default:
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}
}

// activate wires the loader, store and watcher for root and performs the
// initial refresh. A failed initial refresh is reported but not fatal.
func (s *Server) activate(ctx context.Context, root string) error {
	loader, err := discovery.NewLoader(root,
		discovery.WithIgnore(s.cfg.Watch.Ignore...),
		discovery.WithMaxParallelReads(s.cfg.Discovery.MaxParallelReads),
		discovery.WithLogger(s.logger.WithPrefix("discovery")),
	)
	if err != nil {
		return err
	}

	s.workspaceRoot = loader.Root()
	s.store = workspace.NewStore(loader,
		workspace.WithLogger(s.logger.WithPrefix("workspace")),
		workspace.WithOnPublish(func(snap *workspace.Snapshot) {
			s.logMessage(protocol.MessageTypeInfo, fmt.Sprintf("spito: %d rule script(s) in %d configuration(s)", snap.Index.Len(), len(snap.Configs)))
		}),
	)
	s.provider = completion.NewProvider(s.store)

	if _, err := s.refresh(ctx); errors.Is(err, discovery.ErrRootNotDir) {
		// Nothing to watch; completion stays empty.
		return nil
	}

	w, err := watch.New(watch.Config{
		Patterns: spitoconf.Patterns(),
		Ignore:   s.cfg.Watch.Ignore,
		Debounce: s.cfg.Watch.Debounce,
		BaseDir:  loader.Root(),
		OnChange: func(ctx context.Context, changed []string) error {
			s.logger.Debug("configuration changed", "paths", changed)
			_, err := s.refresh(ctx)
			return err
		},
		Logger: s.logger.WithPrefix("watch"),
	})
	if err != nil {
		s.reportFailure(issue.WatcherStartFailedId, err)
		return nil
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.stopWatch = cancel
	s.mu.Unlock()
	started := s.goBackground(func() {
		if err := w.Run(watchCtx); err != nil {
			s.reportFailure(issue.WatcherStartFailedId, err)
		}
	})
	if !started {
		// Stopped during initialize: Run on a canceled context only
		// releases the watcher.
		cancel()
		_ = w.Run(watchCtx)
	}
	return nil
}

// refresh reloads the workspace and reports failures to the client. The
// previous snapshot stays in effect on failure.
func (s *Server) refresh(ctx context.Context) (*workspace.Snapshot, error) {
	snap, err := s.store.Refresh(ctx)
	if err != nil {
		id := issue.SpitoConfParseFailedId
		if errors.Is(err, discovery.ErrRootNotDir) {
			id = issue.WorkspaceRootNotFoundId
		}
		s.reportFailure(id, err)
		return nil, err
	}
	return snap, nil
}

func (s *Server) reportFailure(id issue.Id, err error) {
	s.logger.Error("workspace problem", "error", err)
	msg := issue.FormatForDisplay(err, false)
	if iss := issue.Get(id); iss != nil {
		msg += "\n" + iss.Markdown()
	}
	s.logMessage(protocol.MessageTypeError, msg)
}

func (s *Server) onInitialized(context.Context, json.RawMessage) (any, error) {
	s.logger.Info("client initialized", "root", s.workspaceRoot, "rules", s.store.Current().Index.Len())
	return nil, nil
}

func (s *Server) onShutdown(context.Context, json.RawMessage) (any, error) {
	s.state.Store(int32(StateShuttingDown))
	s.logger.Info("shutting down", "open_documents", s.docs.len())
	s.stop()
	return nil, nil
}

func (s *Server) onDidOpen(_ context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidOpenTextDocumentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	uri := string(p.TextDocument.URI)
	docPath, err := URIToPath(uri)
	if err != nil {
		// Untitled and virtual documents never get completions.
		docPath = ""
	}
	s.docs.open(&document{
		uri:        uri,
		path:       docPath,
		languageID: string(p.TextDocument.LanguageID),
		version:    int(p.TextDocument.Version),
		text:       p.TextDocument.Text,
	})
	return nil, nil
}

func (s *Server) onDidChange(_ context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidChangeTextDocumentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.ContentChanges) == 0 {
		return nil, nil
	}
	// Full sync: the last change carries the whole document.
	uri := string(p.TextDocument.URI)
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	if !s.docs.replace(uri, int(p.TextDocument.Version), text) {
		s.logger.Debug("change for unopened document", "uri", uri)
	}
	return nil, nil
}

func (s *Server) onDidClose(_ context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidCloseTextDocumentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	s.docs.close(string(p.TextDocument.URI))
	return nil, nil
}

// onCompletion serves documents whose language id is configured; the
// provider then limits suggestions to indexed rule scripts.
func (s *Server) onCompletion(_ context.Context, params json.RawMessage) (any, error) {
	var p protocol.CompletionParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	items := []protocol.CompletionItem{}
	doc, ok := s.docs.get(string(p.TextDocument.URI))
	if !ok || doc.path == "" || !s.cfg.ServesLanguage(doc.languageID) {
		return items, nil
	}

	for _, it := range s.provider.Complete(completion.Request{
		Path:      doc.path,
		Line:      doc.line(int(p.Position.Line)),
		Character: int(p.Position.Character),
	}) {
		items = append(items, protocol.CompletionItem{
			Label:    it.Label,
			Kind:     protocol.CompletionItemKind(it.Kind.LSP()),
			SortText: it.SortText,
		})
	}
	return items, nil
}

// onCompletionResolve returns the item unchanged.
func (s *Server) onCompletionResolve(_ context.Context, params json.RawMessage) (any, error) {
	var item protocol.CompletionItem
	if err := decodeParams(params, &item); err != nil {
		return nil, err
	}
	return params, nil
}

func (s *Server) onDidChangeWatchedFiles(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidChangeWatchedFilesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	for _, ch := range p.Changes {
		if !spitoconf.IsConfigFileName(path.Base(string(ch.URI))) {
			continue
		}
		refreshCtx := context.WithoutCancel(ctx)
		s.goBackground(func() {
			_, _ = s.refresh(refreshCtx)
		})
		break
	}
	return nil, nil
}
