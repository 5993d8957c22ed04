package options

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-ini/ini"
)

// Source is a named collection of option groups.
type Source interface {
	// Group returns the named group. Lookups are case-sensitive.
	Group(name string) (Group, bool)
}

// Group maps keys to raw textual values.
type Group interface {
	// Lookup returns the raw value of key, or ErrKeyNotFound.
	Lookup(key string) (string, error)
}

// MapSource is an in-memory Source.
type MapSource map[string]MapGroup

// MapGroup is an in-memory Group.
type MapGroup map[string]string

// Group implements Source.
func (s MapSource) Group(name string) (Group, bool) {
	g, ok := s[name]
	if !ok {
		return nil, false
	}
	return g, true
}

// Lookup implements Group.
func (g MapGroup) Lookup(key string) (string, error) {
	v, ok := g[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// KeyFile is a Source backed by an INI-style file of [group] sections
// holding key = value pairs. Lines starting with '#' or ';' are comments;
// ';' inside a value is the list separator, never a comment.
type KeyFile struct {
	path string
	file *ini.File
}

var keyFileLoadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	PreserveSurroundedQuote: true,
}

// LoadKeyFile parses the keyfile at path.
func LoadKeyFile(path string) (*KeyFile, error) {
	f, err := ini.LoadSources(keyFileLoadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyfile %s: %w", path, err)
	}
	return &KeyFile{path: path, file: f}, nil
}

// ParseKeyFile parses keyfile content held in memory.
func ParseKeyFile(data []byte) (*KeyFile, error) {
	f, err := ini.LoadSources(keyFileLoadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse keyfile: %w", err)
	}
	return &KeyFile{file: f}, nil
}

// Path returns the file the keyfile was loaded from, if any.
func (k *KeyFile) Path() string {
	return k.path
}

// Groups lists the group names present in the file, sorted.
func (k *KeyFile) Groups() []string {
	if k == nil || k.file == nil {
		return nil
	}
	var names []string
	for _, name := range k.file.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group implements Source. A nil keyfile has no groups.
func (k *KeyFile) Group(name string) (Group, bool) {
	if k == nil || k.file == nil {
		return nil, false
	}
	if strings.TrimSpace(name) == "" {
		return nil, false
	}
	sec, err := k.file.GetSection(name)
	if err != nil {
		return nil, false
	}
	return keyFileGroup{sec}, true
}

type keyFileGroup struct {
	section *ini.Section
}

func (g keyFileGroup) Lookup(key string) (string, error) {
	if !g.section.HasKey(key) {
		return "", ErrKeyNotFound
	}
	// Value is the raw text: no quote stripping, no %(key)s expansion.
	return g.section.Key(key).Value(), nil
}
