package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	// PayloadField collects errors that cannot be tied to a single field.
	PayloadField = "non_field_errors"

	msgRequired = "This field is required."
)

var initOnce sync.Once

// Init configures the validator behind Gin's binding so errors are keyed by
// JSON tag names. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		// password 最短 8 位
		v.RegisterAlias("pwd", "min=8")
	})
}

// ToDetails converts binding/validation errors into field -> messages, the
// same shape the services use for their own validation failures.
func ToDetails(err error) map[string][]string {
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return map[string][]string{PayloadField: {"No data provided."}}
	}

	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = PayloadField
		}
		return map[string][]string{field: {typeMessage(ute.Type.Kind())}}
	}

	var se *json.SyntaxError
	if errors.As(err, &se) {
		return map[string][]string{PayloadField: {fmt.Sprintf("JSON parse error - %s", se.Error())}}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			field := fe.Field()
			out[field] = append(out[field], formatFieldError(fe))
		}
		return out
	}

	return map[string][]string{PayloadField: {"Invalid data."}}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		if isNumberKind(fe.Kind()) {
			return "Ensure this value is less than or equal to " + param + "."
		}
		return "Ensure this field has no more than " + param + " characters."
	case "min", "pwd":
		if fe.Tag() == "pwd" {
			param = "8"
		}
		if isNumberKind(fe.Kind()) {
			return "Ensure this value is greater than or equal to " + param + "."
		}
		return "Ensure this field has at least " + param + " characters."
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "alphanumunicode":
		return "Enter a valid value."
	default:
		if param != "" {
			return fmt.Sprintf("Failed on '%s' with parameter '%s'.", fe.Tag(), param)
		}
		return fmt.Sprintf("Failed on '%s'.", fe.Tag())
	}
}

func typeMessage(kind reflect.Kind) string {
	switch {
	case isNumberKind(kind):
		return "A valid integer is required."
	case kind == reflect.String:
		return "Not a valid string."
	case kind == reflect.Bool:
		return "Must be a valid boolean."
	case kind == reflect.Slice || kind == reflect.Array:
		return "Expected a list of items."
	default:
		return "Invalid value."
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
