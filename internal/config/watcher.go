package config

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// OriginSet is the live CORS allow-list. The middleware reads it per
// request; the watcher swaps its contents when the config file changes.
type OriginSet struct {
	mu      sync.RWMutex
	origins map[string]struct{}
}

func NewOriginSet(origins []string) *OriginSet {
	s := &OriginSet{}
	s.Replace(origins)
	return s
}

func (s *OriginSet) Replace(origins []string) {
	next := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		next[o] = struct{}{}
	}
	s.mu.Lock()
	s.origins = next
	s.mu.Unlock()
}

func (s *OriginSet) Allowed(origin string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.origins[origin]
	return ok
}

// WatchOrigins reloads the CORS allow-list when the config file is
// rewritten. Falls back to 60s polling when fsnotify is unavailable, and
// runs the slow poll as a safety net either way.
func WatchOrigins(ctx context.Context, path string, set *OriginSet) {
	reload := func() {
		cfg, err := Load(path)
		if err != nil {
			log.Printf("config watcher: reload failed: %v", err)
			return
		}
		set.Replace(cfg.CORS.AllowedOrigins)
		log.Printf("config watcher: CORS origins reloaded (%d entries)", len(cfg.CORS.AllowedOrigins))
	}

	watcher, err := fsnotify.NewWatcher()
	usePolling := false
	if err != nil {
		log.Printf("config watcher: fsnotify failed (%v), falling back to polling", err)
		usePolling = true
	} else if err := watcher.Add(path); err != nil {
		log.Printf("config watcher: cannot watch %s (%v), falling back to polling", path, err)
		usePolling = true
		watcher.Close()
	}

	if !usePolling {
		go func() {
			defer watcher.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
						time.Sleep(100 * time.Millisecond)
						reload()
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Printf("config watcher: %v", err)
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reload()
			}
		}
	}()
}
