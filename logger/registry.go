package logger

import (
	"sync"
)

// Named loggers, one per component ("sass", "watch", "cli"). Get derives
// missing entries from the global logger and caches them, so every caller
// asking for the same component shares one instance.
var (
	namedMu sync.RWMutex
	named   = make(map[string]*Logger)
)

// Register stores a named logger, replacing any cached derivation.
func Register(name string, l *Logger) {
	namedMu.Lock()
	defer namedMu.Unlock()
	named[name] = l
}

// Get returns the logger registered under name, deriving and caching a
// component-tagged child of the global logger on first use.
func Get(name string) *Logger {
	namedMu.RLock()
	l, ok := named[name]
	namedMu.RUnlock()
	if ok {
		return l
	}

	namedMu.Lock()
	defer namedMu.Unlock()
	if l, ok := named[name]; ok {
		return l
	}
	l = GetGlobalLogger().WithComponent(name)
	named[name] = l
	return l
}
