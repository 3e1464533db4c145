package hooks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cperrin88/agdaup/internal/logger"
)

// DefaultHookManager is the default implementation of HookManager.
type DefaultHookManager struct {
	executor *TengoExecutor
	mutex    sync.RWMutex
	log      *slog.Logger
}

// NewHookManager creates a new hook manager.
func NewHookManager(log *slog.Logger) *DefaultHookManager {
	return &DefaultHookManager{
		executor: NewTengoExecutor(),
		log:      logger.OrDiscard(log),
	}
}

// Execute runs the specified hook type with the given context.
func (m *DefaultHookManager) Execute(ctx context.Context, hookType HookType, hctx HookContext) error {
	if !m.HasHook(hookType) {
		return nil
	}

	// Copy the context to prevent modifications
	ctxCopy := hctx
	if ctxCopy.Vars == nil {
		ctxCopy.Vars = make(map[string]interface{})
	}

	m.log.Debug("running hook", "type", string(hookType), "version", hctx.AgdaVersion)
	return m.executor.Execute(ctx, hookType, ctxCopy)
}

// AddHook adds a new hook, replacing any hook of the same type.
func (m *DefaultHookManager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return ErrHookTypeEmpty
	}
	if !hook.Type.Valid() {
		return ErrUnsupportedHookEvent(string(hook.Type))
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

// RemoveHook removes a hook of the specified type.
func (m *DefaultHookManager) RemoveHook(hookType HookType) error {
	if hookType == "" {
		return ErrHookTypeEmpty
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.executor.RemoveScript(hookType)
	return nil
}

// HasHook checks if a hook of the specified type exists.
func (m *DefaultHookManager) HasHook(hookType HookType) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.executor.HasScript(hookType)
}
