// ABOUTME: YAML-backed credential-set storage, the key-management collaborator for the pipeline.
// ABOUTME: Owns the ordered key lists and active keys per purpose; persists promotions reported by the failover executor.

package keystore

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/storyforge/genai"
	"github.com/2389-research/storyforge/pipeline"
)

// Store holds the credential sets for all purposes, backed by a YAML file.
// The pipeline core reads key sets from it and reports promotions back; the
// store is the only component that mutates credential state.
type Store struct {
	path string

	mu   sync.Mutex
	file keyFile
}

type keyFile struct {
	Sets map[string]*keyEntry `yaml:"sets"`
}

type keyEntry struct {
	Keys   []string `yaml:"keys"`
	Active string   `yaml:"active"`
}

// Open loads the store at path. A missing file yields an empty store; the
// file is created on first save.
func Open(path string) (*Store, error) {
	s := &Store{path: path, file: keyFile{Sets: make(map[string]*keyEntry)}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.file); err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}
	if s.file.Sets == nil {
		s.file.Sets = make(map[string]*keyEntry)
	}
	return s, nil
}

// KeySet returns the credential set for a purpose. Implements
// pipeline.KeySource.
func (s *Store) KeySet(purpose pipeline.Purpose) genai.KeySet {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.file.Sets[string(purpose)]
	if !ok {
		return genai.KeySet{}
	}
	keys := make([]string, len(entry.Keys))
	copy(keys, entry.Keys)
	return genai.KeySet{Keys: keys, Active: entry.Active}
}

// Promote records key as the new active credential for a purpose and saves.
// Concurrent promotions are last-write-wins. Implements pipeline.KeySource.
func (s *Store) Promote(purpose pipeline.Purpose, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.file.Sets[string(purpose)]
	if !ok {
		return
	}
	entry.Active = key
	if err := s.saveLocked(); err != nil {
		log.Printf("keystore promote purpose=%s err=%v", purpose, err)
		return
	}
	log.Printf("keystore promoted purpose=%s", purpose)
}

// SetKeys replaces the key list for a purpose. The active key is kept when it
// survives the update, otherwise the first key becomes active.
func (s *Store) SetKeys(purpose pipeline.Purpose, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.file.Sets[string(purpose)]
	if !ok {
		entry = &keyEntry{}
		s.file.Sets[string(purpose)] = entry
	}
	entry.Keys = append([]string(nil), keys...)

	if !contains(entry.Keys, entry.Active) {
		entry.Active = ""
		if len(entry.Keys) > 0 {
			entry.Active = entry.Keys[0]
		}
	}
	return s.saveLocked()
}

// SetActive designates the active key for a purpose. The key must be a
// member of the set.
func (s *Store) SetActive(purpose pipeline.Purpose, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.file.Sets[string(purpose)]
	if !ok || !contains(entry.Keys, key) {
		return fmt.Errorf("key is not a member of the %s set", purpose)
	}
	entry.Active = key
	return s.saveLocked()
}

// Masked returns the key list for a purpose with all but the last four
// characters of each key obscured, for display surfaces.
func (s *Store) Masked(purpose pipeline.Purpose) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.file.Sets[string(purpose)]
	if !ok {
		return nil
	}
	masked := make([]string, len(entry.Keys))
	for i, k := range entry.Keys {
		masked[i] = mask(k)
	}
	return masked
}

func (s *Store) saveLocked() error {
	data, err := yaml.Marshal(s.file)
	if err != nil {
		return fmt.Errorf("encoding key file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

func contains(keys []string, key string) bool {
	if key == "" {
		return false
	}
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
