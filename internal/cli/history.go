package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/bake/pkg/adapters/file"
	"github.com/aretw0/bake/pkg/adapters/memory"
	"github.com/aretw0/bake/pkg/adapters/redis"
	"github.com/aretw0/bake/pkg/persistence/middleware"
	"github.com/aretw0/bake/pkg/ports"
)

// History is an opened run history backend.
type History struct {
	Store  ports.HistoryStore
	Locker ports.RunLocker
	close  func() error
}

// Close releases the backend's connections.
func (h *History) Close() error {
	if h == nil || h.close == nil {
		return nil
	}
	return h.close()
}

// OpenHistory opens the history backend named by spec:
//
//	""                 no history
//	memory             in-process store and lock
//	file[:DIR]         JSON files under DIR (default .bake/runs)
//	redis://...        Redis store; runs are also serialized across processes
func OpenHistory(spec string) (*History, error) {
	switch {
	case spec == "":
		return nil, nil
	case spec == "memory":
		return &History{Store: memory.NewStore(), Locker: memory.NewLocker()}, nil
	case spec == "file":
		return &History{Store: file.New("")}, nil
	case strings.HasPrefix(spec, "file:"):
		return &History{Store: file.New(strings.TrimPrefix(spec, "file:"))}, nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		store, err := redis.NewFromURL(spec)
		if err != nil {
			return nil, err
		}
		return &History{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), redis.DefaultPrefix),
			close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown history backend %q: expected memory, file[:DIR] or a redis:// URL", spec)
}

// KeyEnv names the variable holding the history encryption keys: base64
// encoded 32-byte keys separated by commas, the first one active.
const KeyEnv = "BAKE_HISTORY_KEY"

// Protect wraps the store of h so that saved reports have every match of
// the redact patterns masked, and are encrypted when keys is not empty.
func (h *History) Protect(redact []string, keys string) error {
	if h == nil {
		return nil
	}
	var mws []middleware.Middleware
	if len(redact) > 0 {
		pii, err := middleware.NewPIIMiddleware(redact)
		if err != nil {
			return fmt.Errorf("invalid redact pattern: %w", err)
		}
		mws = append(mws, pii)
	}
	if keys != "" {
		config, err := parseKeys(keys)
		if err != nil {
			return err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(config))
	}
	h.Store = middleware.Chain(h.Store, mws...)
	return nil
}

func parseKeys(raw string) (middleware.EncryptionConfig, error) {
	var config middleware.EncryptionConfig
	for i, part := range strings.Split(raw, ",") {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(part))
		if err != nil {
			return config, fmt.Errorf("%s: key %d is not base64: %w", KeyEnv, i+1, err)
		}
		if len(key) != 32 {
			return config, fmt.Errorf("%s: key %d must be 32 bytes, got %d", KeyEnv, i+1, len(key))
		}
		if i == 0 {
			config.ActiveKey = key
		} else {
			config.FallbackKeys = append(config.FallbackKeys, key)
		}
	}
	return config, nil
}

func historyKeys() string {
	return os.Getenv(KeyEnv)
}
