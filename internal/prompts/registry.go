package prompts

import (
	"fmt"
	"sync"
)

// Renderer produces one half of a prompt from Input.
type Renderer func(Input) (string, error)

type Template struct {
	Name     PromptName
	Version  int
	System   Renderer
	User     Renderer
	Validate Validator
}

// Prompt is a rendered prompt ready for an engine call.
type Prompt struct {
	Name    string
	Version int
	System  string
	User    string
}

var (
	registryMu sync.RWMutex
	registry   = map[PromptName]Template{}
)

// Register registers a compiled Template.
func Register(t Template) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t.Name] = t
}

// Build renders the named prompt.
func Build(name PromptName, in Input) (Prompt, error) {
	registerAllOnce.Do(registerAll)

	registryMu.RLock()
	t, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	if t.System == nil || t.User == nil {
		return Prompt{}, fmt.Errorf("prompt %s missing system/user renderers", string(name))
	}
	if t.Validate != nil {
		if err := t.Validate(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", string(name), err)
		}
	}
	system, err := t.System(in)
	if err != nil {
		return Prompt{}, err
	}
	user, err := t.User(in)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Name: string(t.Name), Version: t.Version, System: system, User: user}, nil
}
