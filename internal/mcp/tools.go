package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/omaveil/internal/engine"
	"github.com/1broseidon/omaveil/internal/store"
)

func (s *Server) handleMinimize(ctx context.Context, _ *mcpsdk.CallToolRequest, _ MinimizeInput) (*mcpsdk.CallToolResult, MinimizeOutput, error) {
	rec, err := s.engine.Minimize(ctx)
	if err != nil {
		if engine.Classify(err) == engine.ClassBenign {
			return nil, MinimizeOutput{Minimized: false, Reason: err.Error()}, nil
		}
		s.logFailure("minimize", err)
		return nil, MinimizeOutput{}, err
	}
	return nil, MinimizeOutput{Minimized: true, Window: windowInfo(rec)}, nil
}

func (s *Server) handleRestore(ctx context.Context, _ *mcpsdk.CallToolRequest, args RestoreInput) (*mcpsdk.CallToolResult, RestoreOutput, error) {
	var (
		r   engine.Restored
		err error
	)
	switch {
	case args.Address != "":
		r, err = s.engine.Restore(ctx, args.Address)
	case args.Query != "":
		r, err = s.engine.RestoreMatch(ctx, args.Query)
	default:
		return nil, RestoreOutput{}, fmt.Errorf("restore requires address or query")
	}
	return s.restoreResult("restore", r, err)
}

func (s *Server) handleRestoreLast(ctx context.Context, _ *mcpsdk.CallToolRequest, _ RestoreLastInput) (*mcpsdk.CallToolResult, RestoreOutput, error) {
	r, err := s.engine.RestoreLast(ctx)
	return s.restoreResult("restore_last", r, err)
}

func (s *Server) restoreResult(tool string, r engine.Restored, err error) (*mcpsdk.CallToolResult, RestoreOutput, error) {
	if err != nil {
		if engine.Classify(err) == engine.ClassBenign {
			return nil, RestoreOutput{Restored: false, Reason: err.Error()}, nil
		}
		s.logFailure(tool, err)
		return nil, RestoreOutput{}, err
	}
	info := restoredInfo(r)
	return nil, RestoreOutput{Restored: true, Result: &info}, nil
}

func (s *Server) handleRestoreAll(ctx context.Context, _ *mcpsdk.CallToolRequest, _ RestoreAllInput) (*mcpsdk.CallToolResult, RestoreAllOutput, error) {
	restored, err := s.engine.RestoreAll(ctx)

	out := RestoreAllOutput{Restored: make([]RestoredInfo, 0, len(restored))}
	for _, r := range restored {
		out.Restored = append(out.Restored, restoredInfo(r))
	}
	if err == nil {
		return nil, out, nil
	}

	var batch *engine.BatchError
	switch {
	case errors.As(err, &batch):
		for _, f := range batch.Failures {
			out.Failed = append(out.Failed, FailureInfo{Window: windowInfo(f.Window), Error: f.Err.Error()})
		}
		s.logFailure("restore_all", err)
		return nil, out, nil
	case engine.Classify(err) == engine.ClassBenign:
		out.Reason = err.Error()
		return nil, out, nil
	default:
		s.logFailure("restore_all", err)
		return nil, RestoreAllOutput{}, err
	}
}

func (s *Server) handleListMinimized(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMinimizedInput) (*mcpsdk.CallToolResult, ListMinimizedOutput, error) {
	set := s.engine.List()
	out := ListMinimizedOutput{Windows: make([]WindowInfo, 0, len(set)), Count: len(set)}
	for _, w := range set {
		out.Windows = append(out.Windows, windowInfo(w))
	}
	return nil, out, nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st := s.engine.Status()
	return nil, StatusOutput{
		Text:    st.Text,
		Tooltip: st.Tooltip,
		Class:   st.Class,
		Count:   st.Count,
	}, nil
}

func windowInfo(w store.Window) WindowInfo {
	return WindowInfo{
		Address:               w.Address,
		Class:                 w.Class,
		Title:                 w.Title,
		OriginalWorkspace:     w.OriginalWorkspace,
		OriginalWorkspaceName: w.OriginalWorkspaceName,
		MinimizedAt:           w.MinimizedAt,
	}
}

func restoredInfo(r engine.Restored) RestoredInfo {
	return RestoredInfo{
		Window:        windowInfo(r.Window),
		Workspace:     r.Workspace,
		WorkspaceName: r.WorkspaceName,
		Fallback:      r.Fallback,
	}
}
