package hooks

// HookType represents the type of hooks.
type HookType string

// Supported hooks types.
const (
	PostInstall HookType = "post-install"
	PostSet     HookType = "post-set"
)

// Types lists the supported hook types.
func Types() []HookType {
	return []HookType{PostInstall, PostSet}
}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Hook represents a hooks script with its type and content.
type Hook struct {
	Type    HookType
	Content string
	// Source names the file the script was read from, if any.
	Source string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	AgdaVersion string
	BinDir      string
	DataDir     string
	Vars        map[string]interface{}
}
