package translate

import (
	"context"
	"log"
	"strings"
	"sync"
)

// cacheKey identifies one immutable translation result.
type cacheKey struct {
	source, target, text string
}

// Service provides cached bidirectional translation. The cache lives for
// the process, not per call; entries are write-once.
type Service struct {
	translator Translator

	mu    sync.RWMutex
	cache map[cacheKey]string
}

func NewService(translator Translator) *Service {
	return &Service{translator: translator, cache: make(map[cacheKey]string)}
}

// Translate returns text in targetLang. Same-language requests pass
// through untouched with no cache write. Backend failures degrade to the
// original text; they are never surfaced to the caller.
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	if strings.TrimSpace(text) == "" || sourceLang == targetLang {
		return text
	}

	key := cacheKey{source: sourceLang, target: targetLang, text: strings.ToLower(strings.TrimSpace(text))}
	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	translated, err := s.translator.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		log.Printf("translate: %s->%s failed, passing original through: %v", sourceLang, targetLang, err)
		return text
	}

	s.mu.Lock()
	if _, exists := s.cache[key]; !exists {
		s.cache[key] = translated
	}
	s.mu.Unlock()
	return translated
}

// CallerToDisplay translates caller speech into the dispatcher's display
// language, auto-detecting the source.
func (s *Service) CallerToDisplay(ctx context.Context, text, displayLang string) string {
	return s.Translate(ctx, text, DetectLanguage(text), displayLang)
}

// DispatchToCaller translates dispatcher speech into the caller's
// language; the source is the dispatcher's configured spoken language.
func (s *Service) DispatchToCaller(ctx context.Context, text, dispatcherLang, callerLang string) string {
	return s.Translate(ctx, text, dispatcherLang, callerLang)
}

// CacheSize reports how many entries the process-lifetime cache holds.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
