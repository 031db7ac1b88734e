// Package bspserver dispatches the BSP JSON-RPC subset this adapter
// supports onto BuildAggregator, TargetGraph, and the BuildInvoker/
// PluginInjector collaborators: build/initialize, workspace/buildTargets,
// buildTarget/sources, buildTarget/dependencies, build/shutdown.
package bspserver

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/jvmakine/fbsp/internal/aggregator"
	"github.com/jvmakine/fbsp/internal/bsperrors"
	"github.com/jvmakine/fbsp/internal/buildinvoker"
	"github.com/jvmakine/fbsp/internal/config"
	"github.com/jvmakine/fbsp/internal/linker"
	"github.com/jvmakine/fbsp/internal/obslog"
	"github.com/jvmakine/fbsp/internal/plugininjector"
	"github.com/jvmakine/fbsp/internal/rpc"
	"github.com/jvmakine/fbsp/internal/targetgraph"
)

// Server holds the live collaborators one BSP session talks to.
type Server struct {
	projectRoot string
	prefs       config.GradlePreferences
	aggregator  *aggregator.BuildAggregator
	graph       *targetgraph.TargetGraph
	invoker     buildinvoker.BuildInvoker
	injector    plugininjector.PluginInjector
	log         *obslog.Logger

	mu       sync.Mutex
	shutdown bool
}

// New assembles a Server from its collaborators.
func New(projectRoot string, prefs config.GradlePreferences, agg *aggregator.BuildAggregator, graph *targetgraph.TargetGraph, invoker buildinvoker.BuildInvoker, injector plugininjector.PluginInjector, log *obslog.Logger) *Server {
	return &Server{
		projectRoot: projectRoot,
		prefs:       prefs,
		aggregator:  agg,
		graph:       graph,
		invoker:     invoker,
		injector:    injector,
		log:         log,
	}
}

// Serve reads framed requests from r and writes framed responses to w until
// build/shutdown is received or r is exhausted.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := rpc.NewReader(r)
	writer := rpc.NewWriter(w)

	for {
		s.mu.Lock()
		done := s.shutdown
		s.mu.Unlock()
		if done {
			return nil
		}

		body, err := reader.ReadMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req rpc.Request
		if err := json.Unmarshal(body, &req); err != nil {
			writer.WriteMessage(rpc.Response{JSONRPC: "2.0", Error: &rpc.Error{Code: rpc.CodeParseError, Message: err.Error()}})
			continue
		}

		resp := s.dispatch(ctx, req)
		if resp == nil {
			continue // notification: no response expected
		}
		if err := writer.WriteMessage(*resp); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req rpc.Request) *rpc.Response {
	if req.ID == nil {
		s.handleNotification(req)
		return nil
	}

	var result any
	var rpcErr *rpc.Error

	switch req.Method {
	case "build/initialize":
		result = s.handleInitialize(ctx)
	case "workspace/buildTargets":
		result, rpcErr = s.handleBuildTargets(ctx)
	case "buildTarget/sources":
		result, rpcErr = s.handleSources(req.Params)
	case "buildTarget/dependencies":
		result, rpcErr = s.handleDependencies(req.Params)
	case "build/shutdown":
		result = s.handleShutdown()
	default:
		rpcErr = &rpc.Error{Code: rpc.CodeMethodNotFound, Message: "method not found: " + req.Method}
	}

	return &rpc.Response{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr}
}

func (s *Server) handleNotification(req rpc.Request) {
	if req.Method == "build/exit" {
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
	}
}

// initializeResult mirrors the BSP InitializeBuildResult shape closely
// enough for a minimal client handshake; fields beyond what this adapter
// actually supports are intentionally omitted.
type initializeResult struct {
	DisplayName string `json:"displayName"`
	Version     string `json:"version"`
	BspVersion  string `json:"bspVersion"`
}

func (s *Server) handleInitialize(ctx context.Context) any {
	initScript, err := s.injector.InitScriptPath()
	if err != nil && s.log != nil {
		s.log.Warn("plugin init script unavailable: %v", err)
	}
	if s.log != nil && initScript != "" {
		s.log.Debug("using gradle init script %s", initScript)
	}
	return initializeResult{DisplayName: "fbsp", Version: "0.1.0", BspVersion: "2.1.0"}
}

func (s *Server) handleBuildTargets(ctx context.Context) (any, *rpc.Error) {
	models, err := s.aggregator.Aggregate(ctx, s.projectRoot, s.prefs)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
	}
	linker.Link(models)
	targets, err := s.graph.Store(models)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
	}
	return struct {
		Targets any `json:"targets"`
	}{Targets: targets}, nil
}

type targetIDParams struct {
	Targets []struct {
		URI string `json:"uri"`
	} `json:"targets"`
}

func (s *Server) handleSources(raw json.RawMessage) (any, *rpc.Error) {
	var params targetIDParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}
	type sourcesItem struct {
		Target  string   `json:"target"`
		Sources []string `json:"sources"`
	}
	var items []sourcesItem
	for _, t := range params.Targets {
		m, err := s.graph.GetModelByURI(t.URI)
		if err != nil {
			var notFound *bsperrors.TargetNotFound
			if asTargetNotFound(err, &notFound) {
				continue
			}
			return nil, &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
		}
		sources := append([]string{}, m.SourceDirs...)
		sources = append(sources, m.GeneratedSourceDirs...)
		items = append(items, sourcesItem{Target: t.URI, Sources: sources})
	}
	return struct {
		Items any `json:"items"`
	}{Items: items}, nil
}

func (s *Server) handleDependencies(raw json.RawMessage) (any, *rpc.Error) {
	var params targetIDParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}
	type depsItem struct {
		Target       string   `json:"target"`
		Dependencies []string `json:"dependencies"`
	}
	var items []depsItem
	for _, t := range params.Targets {
		target, err := s.graph.GetByURI(t.URI)
		if err != nil {
			var notFound *bsperrors.TargetNotFound
			if asTargetNotFound(err, &notFound) {
				continue
			}
			return nil, &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
		}
		items = append(items, depsItem{Target: t.URI, Dependencies: target.Dependencies})
	}
	return struct {
		Items any `json:"items"`
	}{Items: items}, nil
}

func (s *Server) handleShutdown() any {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	return struct{}{}
}

func asTargetNotFound(err error, target **bsperrors.TargetNotFound) bool {
	if notFound, ok := err.(*bsperrors.TargetNotFound); ok {
		*target = notFound
		return true
	}
	return false
}
