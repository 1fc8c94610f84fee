package formerrors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// OwnMessagesKey carries an entry's own messages when the entry also has
// nested children and therefore encodes as a JSON object.
const OwnMessagesKey = "_errors"

// Issue is a single field-level validation failure produced by a schema or
// struct validator.
type Issue struct {
	Path    []any  `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// NewIssue builds an Issue from a message and its path segments.
func NewIssue(message string, path ...any) Issue {
	return Issue{Path: append([]any(nil), path...), Message: message}
}

// ErrorMap maps a field name to its messages and nested field errors.
type ErrorMap map[string]*Entry

// Entry holds the messages reported for a field. Leaf fields only carry
// Messages; form sections (e.g. "location") carry Children.
type Entry struct {
	Messages []string
	Children ErrorMap
}

// IsLeaf reports whether the entry has no nested field errors.
func (e *Entry) IsLeaf() bool {
	return e == nil || len(e.Children) == 0
}

// MarshalJSON encodes leaves as string arrays and branches as objects.
func (e *Entry) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	if len(e.Children) == 0 {
		messages := e.Messages
		if messages == nil {
			messages = []string{}
		}
		return json.Marshal(messages)
	}
	out := make(map[string]any, len(e.Children)+1)
	for key, child := range e.Children {
		out[key] = child
	}
	if len(e.Messages) > 0 {
		out[OwnMessagesKey] = e.Messages
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either a string array or an object of nested
// entries.
func (e *Entry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*e = Entry{}
		return nil
	}
	switch trimmed[0] {
	case '[':
		var messages []string
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return fmt.Errorf("formerrors: decode messages: %w", err)
		}
		*e = Entry{Messages: messages}
		return nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("formerrors: decode entry: %w", err)
		}
		entry := Entry{}
		for key, value := range raw {
			if key == OwnMessagesKey {
				if err := json.Unmarshal(value, &entry.Messages); err != nil {
					return fmt.Errorf("formerrors: decode %s: %w", OwnMessagesKey, err)
				}
				continue
			}
			child := &Entry{}
			if err := child.UnmarshalJSON(value); err != nil {
				return err
			}
			if entry.Children == nil {
				entry.Children = ErrorMap{}
			}
			entry.Children[key] = child
		}
		*e = entry
		return nil
	default:
		return fmt.Errorf("formerrors: entry must be an array or object, got %s", string(trimmed))
	}
}

// Len returns the total number of messages held by the map, including nested
// entries.
func (m ErrorMap) Len() int {
	total := 0
	for _, entry := range m {
		if entry == nil {
			continue
		}
		total += len(entry.Messages) + entry.Children.Len()
	}
	return total
}

// Clone returns a deep copy of the map.
func (m ErrorMap) Clone() ErrorMap {
	if m == nil {
		return nil
	}
	out := make(ErrorMap, len(m))
	for key, entry := range m {
		if entry == nil {
			out[key] = &Entry{}
			continue
		}
		out[key] = &Entry{
			Messages: append([]string(nil), entry.Messages...),
			Children: entry.Children.Clone(),
		}
	}
	return out
}

// Flatten returns the messages keyed by dotted field path, the shape render
// layers use to look up a single input's errors.
func (m ErrorMap) Flatten() map[string][]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]string)
	m.flattenInto("", out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m ErrorMap) flattenInto(prefix string, dest map[string][]string) {
	for key, entry := range m {
		if entry == nil {
			continue
		}
		path := joinKey(prefix, key)
		if len(entry.Messages) > 0 {
			dest[path] = append(dest[path], entry.Messages...)
		}
		entry.Children.flattenInto(path, dest)
	}
}

// Lookup returns the messages recorded for a dotted field path. Flat keys
// (paths that were never expanded) are matched before walking nested entries.
func (m ErrorMap) Lookup(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" || len(m) == 0 {
		return nil
	}
	if entry, ok := m[path]; ok && entry != nil {
		return append([]string(nil), entry.Messages...)
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil
	}
	entry, ok := m[head]
	if !ok || entry == nil {
		return nil
	}
	return entry.Children.Lookup(rest)
}

// Keys returns the top-level field names in sorted order.
func (m ErrorMap) Keys() []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FromMap converts a decoded JSON object (string arrays for leaves, objects
// for nested sections) into an ErrorMap. It reports false when any value has
// a different shape.
func FromMap(raw map[string]any) (ErrorMap, bool) {
	if raw == nil {
		return nil, false
	}
	out := make(ErrorMap, len(raw))
	for key, value := range raw {
		entry, ok := entryFromValue(value)
		if !ok {
			return nil, false
		}
		out[key] = entry
	}
	return out, true
}

// FromFlat builds an ErrorMap from dotted keys without re-expanding them.
func FromFlat(flat map[string][]string) ErrorMap {
	if flat == nil {
		return nil
	}
	out := make(ErrorMap, len(flat))
	for key, messages := range flat {
		out[key] = &Entry{Messages: append([]string(nil), messages...)}
	}
	return out
}

func entryFromValue(value any) (*Entry, bool) {
	switch v := value.(type) {
	case *Entry:
		if v == nil {
			return nil, false
		}
		return &Entry{Messages: append([]string(nil), v.Messages...), Children: v.Children.Clone()}, true
	case []string:
		return &Entry{Messages: append([]string(nil), v...)}, true
	case []any:
		messages := make([]string, 0, len(v))
		for _, item := range v {
			text, ok := item.(string)
			if !ok {
				return nil, false
			}
			messages = append(messages, text)
		}
		return &Entry{Messages: messages}, true
	case ErrorMap:
		return &Entry{Children: v.Clone()}, true
	case map[string]any:
		entry := &Entry{}
		for key, nested := range v {
			if key == OwnMessagesKey {
				own, ok := entryFromValue(nested)
				if !ok || !own.IsLeaf() {
					return nil, false
				}
				entry.Messages = own.Messages
				continue
			}
			child, ok := entryFromValue(nested)
			if !ok {
				return nil, false
			}
			if entry.Children == nil {
				entry.Children = ErrorMap{}
			}
			entry.Children[key] = child
		}
		return entry, true
	default:
		return nil, false
	}
}

func joinKey(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
