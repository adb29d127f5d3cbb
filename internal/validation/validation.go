// Package validation checks untyped JSON payloads against the typed
// schemas of the pipeline. A payload either decodes into the schema and
// passes every struct constraint, or a SchemaError lists each failing
// field path.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the domain tags registered.
// validator.Validate caches struct metadata and is safe for concurrent use.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, "branch", func(fl validator.FieldLevel) bool {
			return nfz.Branch(fl.Field().String()).Valid()
		})
		mustRegister(v, "servicetype", func(fl validator.FieldLevel) bool {
			return nfz.ServiceType(fl.Field().String()).Valid()
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("programming error: register validation " + tag + ": " + err.Error())
	}
}

// jsonFieldName reports fields by their wire name so paths match the payload.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// Validate decodes payload into T and checks its constraints.
func Validate[T any](payload any) (T, error) {
	var out T
	schema := schemaName[T]()

	raw, err := toJSON(schema, payload)
	if err != nil {
		return out, err
	}
	if err := decode(schema, raw, &out); err != nil {
		return out, err
	}
	if err := Struct(schema, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Struct checks the constraints of an already typed value. Non-struct values
// pass unchanged.
func Struct(schema string, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return errors.NewSchemaError(schema, "", "nil value")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.WrapSchema(schema, err)
	}

	fields := make([]errors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, errors.FieldError{
			Path:   fieldPath(fe),
			Reason: reason(fe),
		})
	}
	return &errors.SchemaError{Schema: schema, Fields: fields}
}

// fieldPath strips the root type from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func reason(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

func toJSON(schema string, payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, errors.NewSchemaError(schema, "", "empty payload")
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, errors.WrapSchema(schema, err)
		}
		return raw, nil
	}
}

func decode(schema string, raw []byte, target any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.NewSchemaError(schema, "", "empty payload")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &errors.SchemaError{
				Schema: schema,
				Fields: []errors.FieldError{{
					Path:   typeErr.Field,
					Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
				}},
				Err: err,
			}
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return &errors.SchemaError{
				Schema: schema,
				Fields: []errors.FieldError{{Reason: fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset)}},
				Err:    err,
			}
		}
		return errors.WrapSchema(schema, err)
	}
	return nil
}

func schemaName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
