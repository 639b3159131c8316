package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

// PipelineCache persists compiled pipeline-state objects across process
// runs. No library in the dependency set
// offers a keyed blob store; a flat directory of digest-named files is the
// whole of what this concern needs, so it is built on the standard library
// rather than pulling in a key/value engine for one small piece of state.
type PipelineCache struct {
	dir      string
	disabled bool
}

// NewPipelineCache opens (creating if necessary) a cache directory. A
// disabled cache still satisfies every call but never persists or returns
// anything, matching Options.DisableCache.
func NewPipelineCache(dir string, disabled bool) (*PipelineCache, error) {
	if disabled {
		return &PipelineCache{disabled: true}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, chainerr.Wrap(chainerr.Io, "creating pipeline cache directory", err)
	}
	return &PipelineCache{dir: dir}, nil
}

// CacheKey digests the fields that together determine whether two
// pipeline requests can share one compiled object: the target API, the
// shader bytecode, the render target format, and any backend-specific
// state fields.
func CacheKey(targetAPI string, bytecode []byte, targetFormat preset.Format, stateFields ...string) string {
	h := sha256.New()
	h.Write([]byte(targetAPI))
	h.Write([]byte{0})
	h.Write(bytecode)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(int(targetFormat))))
	for _, f := range stateFields {
		h.Write([]byte{0})
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *PipelineCache) path(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

// Load returns a previously stored blob for key, if any.
func (c *PipelineCache) Load(key string) ([]byte, bool) {
	if c.disabled {
		return nil, false
	}
	blob, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return blob, true
}

// Store persists blob under key. It is a no-op when the cache is
// disabled.
func (c *PipelineCache) Store(key string, blob []byte) error {
	if c.disabled {
		return nil
	}
	if err := os.WriteFile(c.path(key), blob, 0o644); err != nil {
		return chainerr.Wrap(chainerr.Io, "writing pipeline cache entry", err)
	}
	return nil
}
