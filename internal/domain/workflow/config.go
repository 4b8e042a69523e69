package workflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Config is the untyped step configuration decoded from JSON
type Config map[string]any

// String returns the value as a string, empty when missing
func (c Config) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// StringOr returns the string value or def when empty
func (c Config) StringOr(key, def string) string {
	if s := strings.TrimSpace(c.String(key)); s != "" {
		return s
	}
	return def
}

// Int returns an integral numeric value; JSON numbers arrive as float64
func (c Config) Int(key string) (int, bool) {
	switch t := c[key].(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Map returns a nested object, nil when missing
func (c Config) Map(key string) map[string]any {
	m, _ := c[key].(map[string]any)
	return m
}

func (c Config) require(keys ...string) error {
	for _, k := range keys {
		if strings.TrimSpace(c.String(k)) == "" {
			return fmt.Errorf("config.%s is required", k)
		}
	}
	return nil
}
