package keymap

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/grovetools/console/config"
)

// ApplyOverrides replaces the keys of bindings named in overrides. Config
// keys are the snake_case form of the field name, e.g. "toggle_menu" for
// ToggleMenu. The help description is kept.
func ApplyOverrides(km interface{}, overrides config.KeybindingConfig) {
	if len(overrides) == 0 {
		return
	}

	v := reflect.ValueOf(km)
	if v.Kind() != reflect.Ptr {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	bindingType := reflect.TypeOf(key.Binding{})
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || t.Field(i).Type != bindingType {
			continue
		}
		keys, ok := overrides[camelToSnake(t.Field(i).Name)]
		if !ok || len(keys) == 0 {
			continue
		}
		current := field.Interface().(key.Binding)
		field.Set(reflect.ValueOf(key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(keys[0], current.Help().Desc),
		)))
	}
}

// camelToSnake converts a CamelCase string to snake_case.
func camelToSnake(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteRune('_')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
