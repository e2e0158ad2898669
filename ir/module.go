package ir

// Global is a module-level variable: a name, type, const-ness flag, and
// an optional initializer (raw little-endian bytes, interpreted per
// Type).
type Global struct {
	Name    string
	Type    Type
	Const   bool
	Initial []byte
}

// StringLiteral is a module-level string constant addressed by its
// monotonically assigned ID, used as a label by lowered code.
type StringLiteral struct {
	ID    uint32
	Value string
}

// Module exclusively owns its functions, globals, and string literals.
type Module struct {
	Name      string
	Functions []*Function
	Globals   []*Global
	Strings   []*StringLiteral

	nextStringID uint32
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddFunction appends fn to the module's function list.
func (m *Module) AddFunction(fn *Function) { m.Functions = append(m.Functions, fn) }

// AddGlobal appends g to the module's global list.
func (m *Module) AddGlobal(g *Global) { m.Globals = append(m.Globals, g) }

// InternString appends a new string literal and returns its assigned ID.
func (m *Module) InternString(value string) uint32 {
	id := m.nextStringID
	m.nextStringID++
	m.Strings = append(m.Strings, &StringLiteral{ID: id, Value: value})
	return id
}

// FindFunction returns the function with the given name, or nil.
func (m *Module) FindFunction(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
