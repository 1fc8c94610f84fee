package formerrors

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
)

// DefaultMaxDepth nests keys made of exactly two segments, matching the one
// level of form sections (location, rates, seller_info) the listing forms use.
const DefaultMaxDepth = 2

// Checks reported in diagnostics when an issue is skipped.
const (
	CheckNotObject        = "issue is not an object"
	CheckPathMissing      = "issue path is missing or empty"
	CheckPathNotArray     = "issue path is not an array"
	CheckPathSegment      = "issue path contains a non-primitive segment"
	CheckMessageMissing   = "issue message is missing or empty"
	CheckMessageNotString = "issue message is not a string"
)

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger routes diagnostics to logger. A nil logger keeps the default
// (slog.Default at mapping time).
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMaxDepth controls how dotted keys are expanded. Keys with at most depth
// segments are nested fully (single-segment keys are always leaves); longer
// keys stay flat. A depth <= 0 nests every key regardless of length.
func WithMaxDepth(depth int) Option {
	return func(m *Mapper) {
		m.maxDepth = depth
	}
}

// Mapper converts validation issues into an ErrorMap. A Mapper holds no
// per-call state and can be shared between goroutines.
type Mapper struct {
	logger   *slog.Logger
	maxDepth int
}

// New constructs a Mapper with the supplied options.
func New(options ...Option) *Mapper {
	m := &Mapper{maxDepth: DefaultMaxDepth}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// MapIssues is shorthand for New(options...).Map(issues).
func MapIssues(issues any, options ...Option) ErrorMap {
	return New(options...).Map(issues)
}

// Map converts issues into an ErrorMap. issues may be nil, a slice of Issue
// or *Issue values, a slice of decoded objects (map[string]any with "path"
// and "message"), or any mix of those inside []any. The result is never nil.
func (m *Mapper) Map(issues any) (out ErrorMap) {
	logger := m.log()
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("formerrors: failed to map validation issues", slog.Any("error", r))
			out = ErrorMap{}
		}
	}()

	out = ErrorMap{}
	if isNull(issues) {
		logger.Warn("formerrors: issues parameter is null or undefined")
		return out
	}

	list := reflect.ValueOf(issues)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		logger.Warn("formerrors: issues parameter is not an array", slog.String("type", fmt.Sprintf("%T", issues)))
		return out
	}

	for idx := 0; idx < list.Len(); idx++ {
		path, message, check := decodeIssue(list.Index(idx).Interface())
		if check != "" {
			logger.Warn("formerrors: skipping invalid issue", slog.Int("index", idx), slog.String("check", check))
			continue
		}
		key, err := formKey(path)
		if err != nil {
			logger.Warn("formerrors: skipping issue with unusable path", slog.Int("index", idx), slog.Any("error", err))
			continue
		}
		m.insert(out, key, message)
	}
	return out
}

func (m *Mapper) log() *slog.Logger {
	if m != nil && m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

func (m *Mapper) insert(dest ErrorMap, key, message string) {
	parts := strings.Split(key, ".")
	if len(parts) == 1 || !m.nests(len(parts)) {
		appendMessage(dest, key, message)
		return
	}

	current := dest
	for _, part := range parts[:len(parts)-1] {
		entry, ok := current[part]
		if !ok || entry == nil {
			entry = &Entry{}
			current[part] = entry
		}
		if entry.Children == nil {
			entry.Children = ErrorMap{}
		}
		current = entry.Children
	}
	appendMessage(current, parts[len(parts)-1], message)
}

func (m *Mapper) nests(segments int) bool {
	depth := DefaultMaxDepth
	if m != nil {
		depth = m.maxDepth
	}
	return depth <= 0 || segments <= depth
}

func appendMessage(dest ErrorMap, key, message string) {
	entry, ok := dest[key]
	if !ok || entry == nil {
		entry = &Entry{}
		dest[key] = entry
	}
	entry.Messages = append(entry.Messages, message)
}

// decodeIssue extracts the path and message from an issue-like value. A
// non-empty check names the first invariant the value failed.
func decodeIssue(raw any) (any, string, string) {
	var (
		path    any
		message any
	)
	switch v := raw.(type) {
	case Issue:
		path, message = pathValue(v.Path), v.Message
	case *Issue:
		if v == nil {
			return nil, "", CheckNotObject
		}
		path, message = pathValue(v.Path), v.Message
	case map[string]any:
		if v == nil {
			return nil, "", CheckNotObject
		}
		path, message = v["path"], v["message"]
	default:
		return nil, "", CheckNotObject
	}

	if check := checkPath(path); check != "" {
		return nil, "", check
	}
	text, ok := message.(string)
	if isNil(message) || (ok && strings.TrimSpace(text) == "") {
		return nil, "", CheckMessageMissing
	}
	if !ok {
		return nil, "", CheckMessageNotString
	}
	return path, text, ""
}

func pathValue(path []any) any {
	if path == nil {
		return nil
	}
	return path
}

func checkPath(path any) string {
	if isNil(path) {
		return CheckPathMissing
	}
	rv := reflect.ValueOf(path)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return CheckPathNotArray
	}
	if rv.Len() == 0 {
		return CheckPathMissing
	}
	for idx := 0; idx < rv.Len(); idx++ {
		if !isPrimitive(rv.Index(idx).Interface()) {
			return CheckPathSegment
		}
	}
	return ""
}

// formKey joins path segments with ".". Segment formatting runs user code
// (fmt.Stringer), so a panic is converted into an error for that issue only.
func formKey(path any) (key string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formerrors: format path segment: %v", r)
		}
	}()

	rv := reflect.ValueOf(path)
	parts := make([]string, 0, rv.Len())
	for idx := 0; idx < rv.Len(); idx++ {
		parts = append(parts, segmentString(rv.Index(idx).Interface()))
	}
	return strings.Join(parts, "."), nil
}

func segmentString(segment any) string {
	if stringer, ok := segment.(fmt.Stringer); ok {
		return stringer.String()
	}
	rv := reflect.ValueOf(segment)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	default:
		return fmt.Sprint(segment)
	}
}

func isPrimitive(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// isNull treats nil slices as empty sequences rather than missing input.
func isNull(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
