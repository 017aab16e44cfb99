package astcheck

import (
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"

	"github.com/chris-regnier/treecheck/internal/ast"
)

// DecodeProperties binds props onto out, a pointer to an options struct
// whose fields carry `mapstructure` tags and hold the defaults. Unknown keys
// and values of the wrong type are rejected, and the returned error names
// the offending property.
func DecodeProperties(props Properties, out any) error {
	keys := lo.Keys(props)
	sort.Strings(keys)
	for _, key := range keys {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           out,
			TagName:          "mapstructure",
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				stringToKindsHook,
				mapstructure.StringToSliceHookFunc(","),
			),
		})
		if err != nil {
			return errors.Wrap(err, "creating property decoder")
		}
		if err := dec.Decode(map[string]any{key: props[key]}); err != nil {
			return &ConfigError{Property: key, Err: errors.Mark(err, ErrInvalidProperty)}
		}
	}
	return nil
}

var kindsType = reflect.TypeOf([]ast.Kind(nil))

// stringToKindsHook accepts "a, b" wherever a list of node kinds is expected.
func stringToKindsHook(f, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t != kindsType {
		return data, nil
	}
	var kinds []ast.Kind
	for _, part := range strings.Split(reflect.ValueOf(data).String(), ",") {
		if part = strings.TrimSpace(part); part != "" {
			kinds = append(kinds, ast.Kind(part))
		}
	}
	return kinds, nil
}

// PropertyErrorf returns an error attributed to one property.
func PropertyErrorf(property, format string, args ...any) error {
	return &ConfigError{
		Property: property,
		Err:      errors.Mark(errors.Newf(format, args...), ErrInvalidProperty),
	}
}

// CompilePattern compiles the regular expression held by a property.
func CompilePattern(property, expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &ConfigError{Property: property, Err: errors.Mark(err, ErrInvalidProperty)}
	}
	return re, nil
}

// NonNegative rejects negative limits.
func NonNegative(property string, v int) error {
	if v < 0 {
		return PropertyErrorf(property, "must not be negative, got %d", v)
	}
	return nil
}
