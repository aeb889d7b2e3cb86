package api

import "maps"

// Params represents a map of named parameters passed to tool actions
type Params map[string]any

// Clone returns a shallow copy of the Params
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Set creates a new Params with the specified name-value pair added
func (p Params) Set(name string, value any) Params {
	res := p.Clone()
	res[name] = value
	return res
}

// GetString retrieves a string value from params, returning defaultValue if
// not found or wrong type
func (p Params) GetString(name, defaultValue string) string {
	val, ok := p[name]
	if !ok {
		return defaultValue
	}
	str, ok := val.(string)
	if !ok {
		return defaultValue
	}
	return str
}

// GetInt retrieves an integer value from params, returning defaultValue if
// not found or wrong type. Supports both int and float64 (converting from
// JSON numbers)
func (p Params) GetInt(name string, defaultValue int) int {
	val, ok := p[name]
	if !ok {
		return defaultValue
	}
	if i, ok := val.(int); ok {
		return i
	}
	if f, ok := val.(float64); ok {
		return int(f)
	}
	return defaultValue
}

// GetBool retrieves a boolean value from params, returning defaultValue if
// not found or wrong type
func (p Params) GetBool(name string, defaultValue bool) bool {
	val, ok := p[name]
	if !ok {
		return defaultValue
	}
	b, ok := val.(bool)
	if !ok {
		return defaultValue
	}
	return b
}
