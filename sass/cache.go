package sass

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"
	"time"
)

// fingerprint identifies one revision of a source file. Size and mtime
// catch the common case cheaply; the content hash catches touch-without-
// change and editors that rewrite files with preserved timestamps.
type fingerprint struct {
	size    int64
	modTime time.Time
	sum     string
}

// lintCache tracks which sources have already passed lint, keyed by path.
// It lives for the lifetime of a Sass instance, so watch sessions only
// re-lint files that actually changed.
type lintCache struct {
	mu      sync.Mutex
	entries map[string]fingerprint
}

func newLintCache() *lintCache {
	return &lintCache{entries: make(map[string]fingerprint)}
}

// changed filters paths down to those not seen or different since the
// last commit. Unreadable files are included so the linter reports them.
func (c *lintCache) changed(paths []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for _, path := range paths {
		fp, err := fingerprintFile(path)
		if err != nil {
			out = append(out, path)
			continue
		}
		if prev, ok := c.entries[path]; ok && prev == fp {
			continue
		}
		out = append(out, path)
	}
	return out
}

// commit records the current revision of each path. Called only after a
// clean lint run, so a failing file stays dirty and is linted again.
func (c *lintCache) commit(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, path := range paths {
		fp, err := fingerprintFile(path)
		if err != nil {
			continue
		}
		c.entries[path] = fp
	}
}

func (c *lintCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func fingerprintFile(path string) (fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return fingerprint{}, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fingerprint{}, err
	}

	return fingerprint{
		size:    info.Size(),
		modTime: info.ModTime(),
		sum:     hex.EncodeToString(h.Sum(nil)),
	}, nil
}
