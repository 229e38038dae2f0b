package backup

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/repobak/repobak/internal/debug"
	"github.com/repobak/repobak/internal/discover"
	"github.com/repobak/repobak/internal/language"
)

// Key identifies a repository in the backup location.
type Key struct {
	Language language.Language
	Name     string
}

func (k Key) String() string {
	return k.Language.String() + "/" + k.Name
}

// KeyOf returns the key under which repo is stored.
func KeyOf(repo discover.Repository) Key {
	return Key{Language: repo.Language, Name: repo.Name}
}

// Index maps the repositories found in the backup location to their
// fingerprints. It is built once per run and not modified afterwards.
type Index struct {
	entries map[Key]discover.Repository
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{entries: make(map[Key]discover.Repository)}
}

// Insert adds repo, replacing a repository with the same key. The replaced
// repository is returned if there was one.
func (idx *Index) Insert(repo discover.Repository) (discover.Repository, bool) {
	key := KeyOf(repo)
	prev, ok := idx.entries[key]
	idx.entries[key] = repo
	return prev, ok
}

// Lookup returns the stored repository for key.
func (idx *Index) Lookup(key Key) (discover.Repository, bool) {
	repo, ok := idx.entries[key]
	return repo, ok
}

// Len returns the number of repositories in idx.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Keys returns all keys, sorted by language and name.
func (idx *Index) Keys() []Key {
	keys := make([]Key, 0, len(idx.entries))
	for key := range idx.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Language != keys[j].Language {
			return keys[i].Language < keys[j].Language
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// Matches returns true if repo is stored in idx with the same fingerprint.
// Repositories whose fingerprint is incomplete never match.
func (idx *Index) Matches(repo discover.Repository) bool {
	stored, ok := idx.Lookup(KeyOf(repo))
	if !ok {
		return false
	}
	if stored.FingerprintErr != nil || repo.FingerprintErr != nil {
		return false
	}
	return stored.Fingerprint == repo.Fingerprint
}

// bucketLanguage returns the language of the bucket directory containing the
// repository at dir, if dir is laid out as <root>/<language>/<name>.
func bucketLanguage(root, dir string) (language.Language, bool) {
	bucket := filepath.Dir(dir)
	if filepath.Dir(bucket) != root {
		return language.Unknown, false
	}

	lang, err := language.Parse(filepath.Base(bucket))
	if err != nil {
		return language.Unknown, false
	}
	return lang, true
}

// BuildIndex scans the backup location. Repositories in a language bucket
// take the language of the bucket, others are classified. If two
// repositories share a key, the one discovered last is kept.
func (b *Backup) BuildIndex(ctx context.Context) (*Index, error) {
	scanner := b.scanner()
	scanner.Language = func(dir string) (language.Language, bool) {
		return bucketLanguage(b.root, dir)
	}

	idx := NewIndex()
	err := scanner.Discover(ctx, b.root, func(repo discover.Repository) error {
		if prev, ok := idx.Insert(repo); ok {
			debug.Log("%v at %v replaces %v", repo, repo.Path, prev.Path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	debug.Log("index of %v contains %d repositories", b.root, idx.Len())
	return idx, nil
}
