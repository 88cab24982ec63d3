// Package load resolves item containers into live objects: it maps each
// container's device_class through an explicit constructor registry,
// renders the {{field}} macros in args and kwargs against the container's
// own values, and instantiates the result. An identity cache keyed by the
// container's full content keeps re-resolution of an unchanged container
// from building a duplicate object.
package load

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/mesh-intelligence/itemdex/pkg/types"
)

// ErrUnknownClass reports a device_class that no constructor has been
// registered for.
var ErrUnknownClass = errors.New("unknown device class")

// Constructor builds one live object from positional and keyword
// constructor values.
type Constructor func(args []any, kwargs map[string]any) (any, error)

// MetadataReceiver is implemented by objects that want the originating
// container attached after instantiation.
type MetadataReceiver interface {
	AttachMetadata(item *types.Item)
}

// Loader resolves containers into objects. Constructors are registered
// explicitly by host applications; there is no import-path machinery.
type Loader struct {
	mu    sync.Mutex
	ctors map[string]Constructor
	cache map[string]cacheEntry
	log   *slog.Logger
}

// cacheEntry remembers the object built for a container along with the
// content snapshot it was built from.
type cacheEntry struct {
	snapshot map[string]any
	obj      any
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// New returns an empty loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		ctors: make(map[string]Constructor),
		cache: make(map[string]cacheEntry),
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Register binds a constructor to a device class name. Re-registering a
// name overwrites the previous constructor.
func (l *Loader) Register(name string, ctor Constructor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctors[name] = ctor
}

// Resolve returns the constructor registered under name.
// Returns ErrUnknownClass when the name was never registered.
func (l *Loader) Resolve(name string) (Constructor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctor, ok := l.ctors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
	return ctor, nil
}

// loadOptions collects the per-call switches of FromItem.
type loadOptions struct {
	attachMD bool
	useCache bool
}

// LoadOption adjusts a single FromItem call.
type LoadOption func(*loadOptions)

// WithoutMetadata skips attaching the container to the built object.
func WithoutMetadata() LoadOption {
	return func(o *loadOptions) { o.attachMD = false }
}

// WithoutCache bypasses the identity cache, forcing a fresh object. The
// fresh object replaces any cached one.
func WithoutCache() LoadOption {
	return func(o *loadOptions) { o.useCache = false }
}

// FromItem resolves the container's device_class, substitutes macros in
// its args and kwargs, and instantiates the object. A kwarg whose value
// equals its field descriptor's default is dropped when the descriptor
// sets OmitDefaultKwarg. Unless disabled, the container is attached to
// the object via MetadataReceiver, and an identity cache keyed by the
// container's content returns the previously built object for an
// unchanged container. Any content change invalidates the cache entry and
// rebuilds.
func (l *Loader) FromItem(item *types.Item, opts ...LoadOption) (any, error) {
	o := loadOptions{attachMD: true, useCache: true}
	for _, opt := range opts {
		opt(&o)
	}

	name := item.Name()
	snapshot := item.Post()

	if o.useCache {
		l.mu.Lock()
		entry, hit := l.cache[name]
		l.mu.Unlock()
		if hit {
			if reflect.DeepEqual(entry.snapshot, snapshot) {
				l.log.Debug("loading from cache", "name", name)
				return entry.obj, nil
			}
			l.log.Warn("item content changed since last load, rebuilding", "name", name)
		}
	}

	deviceClass := item.DeviceClass()
	if deviceClass == "" {
		return nil, fmt.Errorf("%w: item %q declares no device class", ErrUnknownClass, name)
	}
	ctor, err := l.Resolve(deviceClass)
	if err != nil {
		return nil, err
	}

	args, err := l.substituteSlice(item.Args(), item)
	if err != nil {
		return nil, err
	}
	kwargs, err := l.substituteMap(item.Kwargs(), item)
	if err != nil {
		return nil, err
	}
	kwargs = dropDefaultKwargs(kwargs, item.Schema())

	obj, err := ctor(args, kwargs)
	if err != nil {
		return nil, fmt.Errorf("instantiating %q as %s: %w", name, deviceClass, err)
	}

	if o.attachMD {
		if mr, ok := obj.(MetadataReceiver); ok {
			mr.AttachMetadata(item)
		}
	}

	l.mu.Lock()
	l.cache[name] = cacheEntry{snapshot: snapshot, obj: obj}
	l.mu.Unlock()
	return obj, nil
}

// dropDefaultKwargs filters out keyword values that merely restate their
// descriptor's default, when the descriptor opts in to the omission.
func dropDefaultKwargs(kwargs map[string]any, schema *types.Schema) map[string]any {
	out := make(map[string]any, len(kwargs))
	for key, value := range kwargs {
		if e, ok := schema.Entry(key); ok && e.OmitDefaultKwarg && reflect.DeepEqual(value, e.Default) {
			continue
		}
		out[key] = value
	}
	return out
}
