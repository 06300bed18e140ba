package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data       []byte
	expiration int64
}

// Cache guarda respuestas serializadas con vencimiento. Con ttl <= 0 no
// guarda nada y toda lectura es un miss.
type Cache struct {
	items map[string]entry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// New crea un caché y arranca la limpieza periódica de claves vencidas
func New(ttl time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanupExpired(cleanupInterval(ttl))
	}
	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return time.Minute
	}
	return ttl
}

func (c *Cache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Marshal serializa y guarda en caché
func (c *Cache) Marshal(key string, value interface{}) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{
		data:       data,
		expiration: c.now().Add(c.ttl).UnixNano(),
	}
	return nil
}

// Unmarshal obtiene y deserializa del caché
func (c *Cache) Unmarshal(key string, target interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found || c.now().UnixNano() > item.expiration {
		return false, nil
	}

	if err := json.Unmarshal(item.data, target); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteByPrefix elimina todas las claves que empiecen con un prefijo
func (c *Cache) DeleteByPrefix(prefix string) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Size retorna el número de items en caché
func (c *Cache) Size() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close detiene la limpieza periódica
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now().UnixNano()
			for key, item := range c.items {
				if now > item.expiration {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
