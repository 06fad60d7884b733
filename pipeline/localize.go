// ABOUTME: Localized-asset stage with lazy per-scope-and-locale caching.
// ABOUTME: A locale is generated at most once per scope until explicitly invalidated; cache hits make zero remote calls.

package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// LocalizeRequest is the input to the localized-asset stage. Locale is a
// target locale identifier distinct from the two baked-in publishing locales.
// Scope identifies the content the bundle is derived from (a project id on
// the HTTP surface); bundles for the same locale but different scopes are
// independent.
type LocalizeRequest struct {
	Scope   string
	Scenes  []Scene
	Roster  []CharacterProfile
	Logline string
	Locale  string
}

type localeKey struct {
	scope  string
	locale string
}

// localeCache holds generated bundles keyed by scope and locale. Guarded by a
// mutex because independent pipeline invocations may localize concurrently.
type localeCache struct {
	mu      sync.Mutex
	bundles map[localeKey]*LocalizedAssets
}

func newLocaleCache() *localeCache {
	return &localeCache{bundles: make(map[localeKey]*LocalizedAssets)}
}

func (c *localeCache) get(key localeKey) (*LocalizedAssets, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bundle, ok := c.bundles[key]
	return bundle, ok
}

func (c *localeCache) put(key localeKey, bundle *LocalizedAssets) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundles[key] = bundle
}

func (c *localeCache) drop(key localeKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bundles, key)
}

// LocalizedAssets generates the single-locale publishing bundle for the
// requested target locale. Bundles are cached per scope and locale: a second
// call for the same pair returns the cached bundle without a remote call,
// until InvalidateLocale is used.
func (p *Pipeline) LocalizedAssets(ctx context.Context, req LocalizeRequest) (*LocalizedAssets, error) {
	if req.Locale == "" {
		return nil, fmt.Errorf("target locale is required")
	}
	key := localeKey{scope: req.Scope, locale: req.Locale}
	if cached, ok := p.locales.get(key); ok {
		return cached, nil
	}

	prompt := fmt.Sprintf(
		"Localize the publishing assets for this video into locale %q.\nLogline: %s\nStoryboard:\n%sCharacters:\n%s\nProvide a title, description, tags, and a hook/character/goal call-to-action triple, all in the target language.",
		req.Locale, req.Logline, describeScenes(req.Scenes), describeRoster(req.Roster))

	bundle, err := generateJSON(ctx, p, "localized-assets", jsonRequest(publishingSystem, prompt, localizedAssetsSchema()), func(l LocalizedAssets) error {
		return l.validate()
	})
	if err != nil {
		return nil, err
	}

	bundle.Locale = req.Locale
	p.locales.put(key, &bundle)
	return &bundle, nil
}

// InvalidateLocale drops the cached bundle for a scope and locale so the next
// request regenerates it. Other scopes keep their bundles for the same locale.
func (p *Pipeline) InvalidateLocale(scope, locale string) {
	p.locales.drop(localeKey{scope: scope, locale: locale})
}
