package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Item is a single reference Q&A record available to the representative role.
// Items are immutable after load.
type Item struct {
	Category string   `json:"category"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags"`
}

// document is the on-disk wrapper form {"items": [...]}; a bare JSON array
// is accepted as well.
type document struct {
	Items []Item `json:"items"`
}

// Store holds the loaded knowledge corpus. Lookup is a pure function of the
// corpus; the store requires no synchronization once loaded.
type Store struct {
	items []Item
	terms [][]string // per-item term sets, aligned with items
}

// NewStore creates an empty knowledge store
func NewStore() *Store {
	return &Store{}
}

// Load loads knowledge items from a JSON file or from every *.json file in a
// directory. Directory files load in lexical order so ranking ties stay stable
// across runs.
func Load(path string) (*Store, error) {
	s := NewStore()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge base path does not exist: %s", path)
	}

	if info.IsDir() {
		entries, err := filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge directory: %v", err)
		}
		sort.Strings(entries)
		for _, file := range entries {
			if err := s.loadFile(file); err != nil {
				return nil, err
			}
		}
		return s, nil
	}

	if filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("knowledge base path must be a JSON file or directory: %s", path)
	}
	if err := s.loadFile(path); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read knowledge file %s: %v", path, err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse knowledge file %s: %v", path, err)
		}
		items = doc.Items
	}

	for _, item := range items {
		s.Add(item)
	}
	return nil
}

// Add appends an item to the corpus. Intended for corpus authoring and tests;
// generation runs load once and never mutate.
func (s *Store) Add(item Item) {
	s.items = append(s.items, item)
	s.terms = append(s.terms, itemTerms(item))
}

// Len returns the number of loaded items
func (s *Store) Len() int {
	return len(s.items)
}

// Items returns a copy of all loaded items in load order
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Lookup returns up to maxItems items ranked by the count of query terms
// shared with the item's text and tags. Ties keep load order. Items sharing
// no terms are omitted; an empty corpus or no matches yields an empty slice.
func (s *Store) Lookup(queryTerms []string, maxItems int) []Item {
	if maxItems <= 0 || len(s.items) == 0 || len(queryTerms) == 0 {
		return nil
	}

	query := make(map[string]bool, len(queryTerms))
	for _, term := range queryTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			query[term] = true
		}
	}

	type ranked struct {
		index int
		score int
	}
	var matches []ranked
	for i, terms := range s.terms {
		score := 0
		for _, term := range terms {
			if query[term] {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, ranked{index: i, score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})

	if len(matches) > maxItems {
		matches = matches[:maxItems]
	}

	out := make([]Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, s.items[m.index])
	}
	return out
}

// LookupText tokenizes free text and runs Lookup with the resulting terms
func (s *Store) LookupText(text string, maxItems int) []Item {
	return s.Lookup(Tokenize(text), maxItems)
}

// PromptContext renders up to maxItems items as a numbered context block for
// the representative prompt. An empty corpus yields a fixed placeholder so
// the agent knows it has nothing to ground on.
func PromptContext(items []Item, total int) string {
	if len(items) == 0 {
		return "No knowledge base available."
	}

	parts := []string{"Knowledge Base:"}
	for i, item := range items {
		category := item.Category
		if category == "" {
			category = "General"
		}
		parts = append(parts, fmt.Sprintf("\n%d. [%s] %s", i+1, category, item.Question))
		parts = append(parts, fmt.Sprintf("   Answer: %s", item.Answer))
	}

	if total > len(items) {
		parts = append(parts, fmt.Sprintf("\n... and %d more items", total-len(items)))
	}

	return strings.Join(parts, "\n")
}

// SaveFile writes the corpus to a JSON file in the wrapped {"items": [...]} form
func (s *Store) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create knowledge directory: %v", err)
	}
	data, err := json.MarshalIndent(document{Items: s.items}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write knowledge base: %v", err)
	}
	return nil
}

// Tokenize lowercases text and splits it into distinct terms on
// non-alphanumeric boundaries, dropping single-character fragments.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// itemTerms builds the matchable term set for one item
func itemTerms(item Item) []string {
	var sb strings.Builder
	sb.WriteString(item.Category)
	sb.WriteString(" ")
	sb.WriteString(item.Question)
	sb.WriteString(" ")
	sb.WriteString(item.Answer)
	for _, tag := range item.Tags {
		sb.WriteString(" ")
		sb.WriteString(tag)
	}
	return Tokenize(sb.String())
}
