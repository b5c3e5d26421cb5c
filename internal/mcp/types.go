package mcp

// MinimizeInput is the input for the minimize tool.
type MinimizeInput struct{}

// WindowInfo describes a minimized window.
type WindowInfo struct {
	Address               string `json:"address"`
	Class                 string `json:"class"`
	Title                 string `json:"title"`
	OriginalWorkspace     int    `json:"original_workspace"`
	OriginalWorkspaceName string `json:"original_workspace_name,omitempty"`
	MinimizedAt           int64  `json:"minimized_at"`
}

// MinimizeOutput is the output for the minimize tool.
type MinimizeOutput struct {
	Minimized bool       `json:"minimized"`
	Window    WindowInfo `json:"window"`
	Reason    string     `json:"reason,omitempty"`
}

// RestoreInput is the input for the restore tool.
type RestoreInput struct {
	Address string `json:"address,omitempty" jsonschema:"Exact window address to restore (e.g. 0x55d1c2a0)"`
	Query   string `json:"query,omitempty" jsonschema:"Fuzzy query matched against class and title when address is not given"`
}

// RestoreLastInput is the input for the restore_last tool.
type RestoreLastInput struct{}

// RestoredInfo describes one restored window.
type RestoredInfo struct {
	Window        WindowInfo `json:"window"`
	Workspace     int        `json:"workspace"`
	WorkspaceName string     `json:"workspace_name,omitempty"`
	Fallback      bool       `json:"fallback"`
}

// RestoreOutput is the output for the restore and restore_last tools.
type RestoreOutput struct {
	Restored bool          `json:"restored"`
	Result   *RestoredInfo `json:"result,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// RestoreAllInput is the input for the restore_all tool.
type RestoreAllInput struct{}

// FailureInfo describes a window that could not be restored.
type FailureInfo struct {
	Window WindowInfo `json:"window"`
	Error  string     `json:"error"`
}

// RestoreAllOutput is the output for the restore_all tool.
type RestoreAllOutput struct {
	Restored []RestoredInfo `json:"restored"`
	Failed   []FailureInfo  `json:"failed,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// ListMinimizedInput is the input for the list_minimized tool.
type ListMinimizedInput struct{}

// ListMinimizedOutput is the output for the list_minimized tool.
type ListMinimizedOutput struct {
	Windows []WindowInfo `json:"windows"`
	Count   int          `json:"count"`
}

// StatusInput is the input for the status tool.
type StatusInput struct{}

// StatusOutput mirrors the bar payload.
type StatusOutput struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
	Count   int    `json:"count"`
}
