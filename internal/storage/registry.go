package storage

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Options carries backend construction settings. Fields irrelevant to a
// given backend are ignored by its factory.
type Options struct {
	// Endpoint is the object store endpoint (e.g. "localhost:9000").
	Endpoint string

	// AccessKey is the object store access key.
	AccessKey string

	// SecretKey is the object store secret key.
	SecretKey string

	// Region is the object store region (optional for MinIO).
	Region string

	// UseSSL enables TLS for object store connections.
	UseSSL bool

	// WriteChecksum makes backends attach a content checksum on writes
	// where the protocol supports one.
	WriteChecksum bool

	// VerifyChecksum makes backends verify checksums on reads where the
	// protocol supports it. Backends without native verification treat
	// this as a no-op; disabling it avoids spurious failures in
	// mixed-protocol warehouses.
	VerifyChecksum bool

	// Logger is the structured logger; defaults to slog.Default.
	Logger *slog.Logger
}

// Factory constructs a backend from options.
type Factory func(opts Options) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend factory available under name. Backends
// register themselves from init; registering the same name twice panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("storage: backend %q registered twice", name))
	}
	registry[name] = f
}

// Open constructs the backend registered under name. An unknown name is a
// configuration error.
func Open(name string, opts Options) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("storage: unknown backend %q (registered: %v)", name, Backends())
	}
	return f(opts)
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
