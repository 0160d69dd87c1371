// Package errors reduces Go error values to short, stable names used as
// metric tags and log fields.
package errors

import (
	stderrors "errors"
	"reflect"
	"strings"
)

// Classify names the root cause of err for tagging: the innermost
// error's concrete type, lowercased, with package qualifiers flattened
// ("*net.OpError" becomes "net_operror"). Nil classifies as "".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for {
		inner := stderrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(t.String())
	name = strings.ReplaceAll(name, "*", "")
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
