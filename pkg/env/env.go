// Package env holds the process-wide platform environment: the working
// directory for relative module references, the optional config directory
// with persistent settings, and the include paths searched during module
// loading.
//
// The environment is initialized at most once per process through a
// builder with a strict three-state lifecycle. Violating the lifecycle is
// a programmer error and panics.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the persistent configuration stored in the config
// directory.
type Settings struct {
	// IncludePaths are additional module search roots appended from the
	// settings file.
	IncludePaths []string `yaml:"include_paths"`
}

const settingsFile = "settings.yaml"

const defaultSettings = `# Platform settings.
# include_paths lists additional directories searched for modules.
include_paths: []
`

// Environment is the immutable result of initialization.
type Environment struct {
	workingDir   string
	configDir    string
	includePaths []string
	settings     Settings
}

// WorkingDir returns the directory from which relative module references
// resolve, if one is set.
func (e *Environment) WorkingDir() (string, bool) {
	return e.workingDir, e.workingDir != ""
}

// ConfigDir returns the config directory, if one is in use.
func (e *Environment) ConfigDir() (string, bool) {
	return e.configDir, e.configDir != ""
}

// IncludePaths returns the include paths in insertion order. Module
// resolution searches them in reverse, most recently added first.
func (e *Environment) IncludePaths() []string {
	out := make([]string, len(e.includePaths))
	copy(out, e.includePaths)
	return out
}

// Settings returns the loaded persistent settings.
func (e *Environment) Settings() Settings { return e.settings }

// NewEnvironment creates a standalone environment, independent of the
// process-wide platform environment. Embedders use it to scope module
// resolution without driving the one-shot lifecycle.
func NewEnvironment(workingDir string, includePaths ...string) *Environment {
	return &Environment{
		workingDir:   workingDir,
		includePaths: append([]string(nil), includePaths...),
	}
}

// FindModule resolves a module file name against the working directory and
// then the include paths in reverse insertion order. It returns the first
// existing path.
func (e *Environment) FindModule(name string) (string, bool) {
	var roots []string
	if e.workingDir != "" {
		roots = append(roots, e.workingDir)
	}
	for i := len(e.includePaths) - 1; i >= 0; i-- {
		roots = append(roots, e.includePaths[i])
	}
	for _, root := range roots {
		candidate := filepath.Join(root, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

type initState uint8

const (
	stateUninitialized initState = iota
	stateInProcess
	stateFinished
)

var (
	mu       sync.Mutex
	state    initState
	platform *Environment
)

// Builder accumulates environment options between InitStart and
// InitFinish.
type Builder struct {
	workingDir   string
	configDir    string
	noConfigDir  bool
	includePaths []string
}

// InitStart begins environment initialization. It may be called at most
// once per process and panics on reuse.
func InitStart() *Builder {
	mu.Lock()
	defer mu.Unlock()
	if state != stateUninitialized {
		panic("env: InitStart must be called only once")
	}
	state = stateInProcess
	return &Builder{}
}

// mustBeInProcess panics unless initialization is underway.
func mustBeInProcess() {
	mu.Lock()
	defer mu.Unlock()
	if state != stateInProcess {
		panic("env: no initialization in process, call InitStart first")
	}
}

// SetWorkingDir sets the working directory. An empty path unsets it. The
// directory is independent of the process working directory.
func (b *Builder) SetWorkingDir(path string) *Builder {
	mustBeInProcess()
	b.workingDir = path
	return b
}

// SetConfigDir sets the config directory. The directory is created and
// populated with default settings on InitFinish when absent.
func (b *Builder) SetConfigDir(path string) *Builder {
	mustBeInProcess()
	if path == "" {
		panic("env: config dir path cannot be empty")
	}
	b.configDir = path
	b.noConfigDir = false
	return b
}

// NoConfigDir configures the environment so that no config directory is
// read or created.
func (b *Builder) NoConfigDir() *Builder {
	mustBeInProcess()
	b.configDir = ""
	b.noConfigDir = true
	return b
}

// AddIncludePath appends a module search root. Paths added later are
// searched earlier.
func (b *Builder) AddIncludePath(path string) *Builder {
	mustBeInProcess()
	if path == "" {
		panic("env: include path cannot be empty")
	}
	b.includePaths = append(b.includePaths, path)
	return b
}

// InitFinish completes initialization and installs the platform
// environment. Lifecycle misuse panics; filesystem problems while
// preparing the config directory are returned as errors and leave the
// lifecycle finished with config disabled.
func (b *Builder) InitFinish() error {
	mu.Lock()
	defer mu.Unlock()
	if state != stateInProcess {
		panic("env: no initialization in process, call InitStart first")
	}
	e := &Environment{
		workingDir:   b.workingDir,
		includePaths: append([]string(nil), b.includePaths...),
	}
	state = stateFinished
	platform = e

	if b.noConfigDir {
		return nil
	}
	configDir := b.configDir
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolve default config dir: %w", err)
		}
		configDir = filepath.Join(base, "metta")
	}
	settings, err := prepareConfigDir(configDir)
	if err != nil {
		return err
	}
	e.configDir = configDir
	e.settings = settings
	e.includePaths = append(e.includePaths, settings.IncludePaths...)
	return nil
}

// prepareConfigDir creates the directory when missing, seeds the default
// settings file, and loads it.
func prepareConfigDir(dir string) (Settings, error) {
	var settings Settings
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return settings, fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, settingsFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := os.WriteFile(path, []byte(defaultSettings), 0o644); werr != nil {
			return settings, fmt.Errorf("write default settings: %w", werr)
		}
		data = []byte(defaultSettings)
	} else if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// PlatformEnv returns the process environment installed by InitFinish, or
// a default environment when initialization never ran.
func PlatformEnv() *Environment {
	mu.Lock()
	defer mu.Unlock()
	if state == stateFinished && platform != nil {
		return platform
	}
	return &Environment{}
}

// resetForTest restores the uninitialized state. Tests only.
func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	state = stateUninitialized
	platform = nil
}
