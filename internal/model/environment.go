package model

// Environment maps snapshot field names to their latest values.
type Environment map[string]Value

// NewEnvironment pre-creates placeholder slots for fields.
func NewEnvironment(fields []string) Environment {
	env := make(Environment, len(fields))
	for _, f := range fields {
		env[f] = Value{}
	}
	return env
}

// Get returns the slot for field, or the placeholder when absent.
func (e Environment) Get(field string) Value {
	if e == nil {
		return Value{}
	}
	return e[field]
}

// Clone returns an independent copy.
func (e Environment) Clone() Environment {
	out := make(Environment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
