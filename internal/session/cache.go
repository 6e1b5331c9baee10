package session

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/illarion/notelock/internal/logger"
)

// Level decides how a document identity is reduced to a scope key
type Level string

const (
	LevelFilename   Level = "filename"   // document name without extension
	LevelParentPath Level = "parentPath" // folder containing the document
	LevelFullPath   Level = "fullPath"   // the whole document path
)

// ParseLevel validates a stored level name
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelFilename, LevelParentPath, LevelFullPath:
		return l, nil
	}
	return "", fmt.Errorf("unknown remember level %q", s)
}

// PasswordAndHint is kept in memory only
type PasswordAndHint struct {
	Password string
	Hint     string
}

type entry struct {
	value     PasswordAndHint
	expiresAt time.Time // zero means never
}

// Cache remembers the last password used per scope for one session.
// All methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	active  bool
	level   Level
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
	log     *logger.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLevel(level Level) Option {
	return func(c *Cache) { c.level = level }
}

// WithAutoExpire sets the entry lifetime in minutes, 0 keeps entries until Close
func WithAutoExpire(minutes int) Option {
	return func(c *Cache) { c.ttl = minutesToTTL(minutes) }
}

func WithActive(active bool) Option {
	return func(c *Cache) { c.active = active }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates an active cache scoped by file name with no expiry
func New(opts ...Option) *Cache {
	c := &Cache{
		active:  true,
		level:   LevelFilename,
		entries: make(map[string]entry),
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func minutesToTTL(minutes int) time.Duration {
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// ScopeKey reduces a document path to the key used at level. Keys carry the
// level so entries made under one level are never found under another.
func ScopeKey(level Level, doc string) string {
	p := filepath.ToSlash(doc)
	switch level {
	case LevelParentPath:
		return string(level) + ":" + path.Dir(p)
	case LevelFullPath:
		return string(level) + ":" + path.Clean(p)
	default:
		base := path.Base(p)
		return string(LevelFilename) + ":" + strings.TrimSuffix(base, path.Ext(base))
	}
}

// Remember stores value for the scope of doc, replacing any previous entry
func (c *Cache) Remember(doc string, value PasswordAndHint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return
	}

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	c.entries[ScopeKey(c.level, doc)] = entry{value: value, expiresAt: expiresAt}

	c.log.Debug().Str("scope", string(c.level)).Dur("ttl", c.ttl).Msg("password remembered")
}

// Recall returns the value remembered for the scope of doc. Expired entries
// are evicted here.
func (c *Cache) Recall(doc string) (PasswordAndHint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return PasswordAndHint{}, false
	}

	key := ScopeKey(c.level, doc)
	e, ok := c.entries[key]
	if !ok {
		return PasswordAndHint{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.log.Debug().Str("scope", string(c.level)).Msg("remembered password expired")
		return PasswordAndHint{}, false
	}
	return e.value, true
}

// SetActive turns memorization on or off. Turning it off forgets everything.
func (c *Cache) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = active
	if !active {
		c.clearLocked()
	}
}

// SetAutoExpire changes the lifetime of entries remembered from now on.
// Existing entries keep their expiry.
func (c *Cache) SetAutoExpire(minutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = minutesToTTL(minutes)
}

// SetLevel changes how future scope keys are computed. Entries made under
// the previous level become unreachable and expire normally.
func (c *Cache) SetLevel(level Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
}

// Clear forgets all entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Cache) clearLocked() {
	for k := range c.entries {
		delete(c.entries, k)
	}
}

// Close ends the session: entries are dropped and the cache stays inactive
func (c *Cache) Close() {
	c.SetActive(false)
}

// Active reports whether the cache memorizes passwords
func (c *Cache) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Level returns the current scope level
func (c *Cache) Level() Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// AutoExpire returns the lifetime applied to new entries, 0 for none
func (c *Cache) AutoExpire() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl
}

// Len returns the number of stored entries, including ones not yet evicted
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
