package actionstate

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/dwellio/go-formstate/pkg/formerrors"
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger routes diagnostics to logger. A nil logger keeps the default
// (slog.Default at call time).
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Normalizer turns raw mutation results into State values. It holds no
// per-call state and is safe for concurrent use.
type Normalizer struct {
	logger *slog.Logger
}

// New constructs a Normalizer with the supplied options.
func New(options ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(n)
	}
	return n
}

// Normalize is shorthand for New(options...).Normalize(raw).
func Normalize(raw any, options ...Option) State {
	return New(options...).Normalize(raw)
}

// Normalize validates raw against the recognised fields and returns a State
// holding only the well-typed ones. It never panics: unreadable input yields
// the zero State and a diagnostic.
//
// raw may be nil, a Fields implementation (RawResult included), a
// map[string]any, a State, or a struct (or pointer to one) whose fields are
// named by json tags.
func (n *Normalizer) Normalize(raw any) (state State) {
	logger := n.log()
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("actionstate: failed to normalize action state", slog.Any("error", r))
			state = State{}
		}
	}()

	if isNull(raw) {
		logger.Warn("actionstate: actionState parameter is null or undefined")
		return State{}
	}

	fields, ok := asFields(raw)
	if !ok {
		logger.Warn("actionstate: actionState parameter is not an object", slog.String("type", fmt.Sprintf("%T", raw)))
		return State{}
	}

	values, err := readFields(fields)
	if err != nil {
		logger.Warn("actionstate: failed to read actionState fields", slog.Any("error", err))
		return State{}
	}
	return n.build(values, logger)
}

func (n *Normalizer) log() *slog.Logger {
	if n != nil && n.logger != nil {
		return n.logger
	}
	return slog.Default()
}

func asFields(raw any) (Fields, bool) {
	switch v := raw.(type) {
	case Fields:
		return v, true
	case map[string]any:
		return mapFields(v), true
	case State:
		return mapFields(v.Map()), true
	case *State:
		return mapFields(v.Map()), true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	return newStructFields(rv), true
}

var allFields = append(append(append([]string(nil), stringFields...), boolFields...),
	FieldFormErrorMap, FieldCanSignInWith, FieldFormData)

// readFields pulls every recognised field out of the source up front so a
// misbehaving source fails before any output is assembled.
func readFields(fields Fields) (values map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("actionstate: read field: %v", r)
		}
	}()

	values = make(map[string]any, len(allFields))
	for _, name := range allFields {
		value, ok := fields.Field(name)
		if !ok || isNil(value) {
			continue
		}
		values[name] = value
	}
	return values, nil
}

func (n *Normalizer) build(values map[string]any, logger *slog.Logger) State {
	var state State

	for _, name := range stringFields {
		value, ok := values[name]
		if !ok {
			continue
		}
		text, valid := asString(value)
		if !valid {
			dropField(logger, name, "is not a string", value)
			continue
		}
		switch name {
		case FieldStatus:
			state.Status = &text
		case FieldMessage:
			state.Message = &text
		case FieldUserID:
			state.UserID = &text
		case FieldEmail:
			state.Email = &text
		case FieldPassword:
			state.Password = &text
		}
	}

	for _, name := range boolFields {
		value, ok := values[name]
		if !ok {
			continue
		}
		flag, valid := asBool(value)
		if !valid {
			dropField(logger, name, "is not a boolean", value)
			continue
		}
		switch name {
		case FieldIsFavorite:
			state.IsFavorite = &flag
		case FieldIsRead:
			state.IsRead = &flag
		case FieldIsAccountLinked:
			state.IsAccountLinked = &flag
		case FieldShouldAutoLogin:
			state.ShouldAutoLogin = &flag
		}
	}

	if value, ok := values[FieldFormErrorMap]; ok {
		errs, reason := asErrorMap(value)
		if reason != "" {
			dropField(logger, FieldFormErrorMap, reason, value)
		} else {
			state.FormErrorMap = errs
		}
	}

	if value, ok := values[FieldCanSignInWith]; ok {
		providers, valid := n.asStringSlice(value, logger)
		if !valid {
			dropField(logger, FieldCanSignInWith, "is not an array", value)
		} else {
			state.CanSignInWith = providers
		}
	}

	if value, ok := values[FieldFormData]; ok {
		state.FormData = value
	}
	return state
}

func dropField(logger *slog.Logger, name, reason string, value any) {
	logger.Warn(
		fmt.Sprintf("actionstate: %s %s", name, reason),
		slog.String("field", name),
		slog.String("type", fmt.Sprintf("%T", value)),
	)
}

func asString(value any) (string, bool) {
	if text, ok := value.(string); ok {
		return text, true
	}
	rv := indirect(reflect.ValueOf(value))
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func asBool(value any) (bool, bool) {
	if flag, ok := value.(bool); ok {
		return flag, true
	}
	rv := indirect(reflect.ValueOf(value))
	if rv.IsValid() && rv.Kind() == reflect.Bool {
		return rv.Bool(), true
	}
	return false, false
}

func asErrorMap(value any) (formerrors.ErrorMap, string) {
	switch v := value.(type) {
	case formerrors.ErrorMap:
		return v.Clone(), ""
	case map[string][]string:
		return formerrors.FromFlat(v), ""
	case map[string]any:
		errs, ok := formerrors.FromMap(v)
		if !ok {
			return nil, "is not a valid error map"
		}
		return errs, ""
	}
	if reflect.ValueOf(value).Kind() == reflect.Map {
		return nil, "is not a valid error map"
	}
	return nil, "is not an object"
}

// asStringSlice copies value into a fresh []string. Non-string elements are
// dropped individually.
func (n *Normalizer) asStringSlice(value any, logger *slog.Logger) ([]string, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		text, ok := asString(item)
		if !ok || isNil(item) {
			logger.Warn("actionstate: canSignInWith element is not a string",
				slog.String("field", FieldCanSignInWith),
				slog.Int("index", i),
				slog.String("type", fmt.Sprintf("%T", item)),
			)
			continue
		}
		out = append(out, text)
	}
	return out, true
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func isNull(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
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
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
