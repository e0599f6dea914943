package field

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt32
	TypeInt64
	TypeString
	TypeTime
	TypeEnum
	TypeRelation
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:  "invalid",
	TypeBool:     "bool",
	TypeInt:      "int",
	TypeInt32:    "int32",
	TypeInt64:    "int64",
	TypeString:   "string",
	TypeTime:     "time.Time",
	TypeEnum:     "enum",
	TypeRelation: "relation",
}

var constNames = [...]string{
	TypeBool:     "TypeBool",
	TypeInt:      "TypeInt",
	TypeInt32:    "TypeInt32",
	TypeInt64:    "TypeInt64",
	TypeString:   "TypeString",
	TypeTime:     "TypeTime",
	TypeEnum:     "TypeEnum",
	TypeRelation: "TypeRelation",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeInt32 || t == TypeInt64
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// ConstName returns the constant name of a type.
// It's used by the code generator to reference the type.
func (t Type) ConstName() string {
	if !t.Valid() {
		return typeNames[TypeInvalid]
	}
	return constNames[t]
}

// ParseType returns the type for its string representation. The generator
// schema files use these names ("bool", "int64", "time", "enum", ...).
func ParseType(s string) Type {
	switch s {
	case "time":
		return TypeTime
	case "long":
		return TypeInt64
	}
	for t := TypeBool; t < endTypes; t++ {
		if typeNames[t] == s {
			return t
		}
	}
	return TypeInvalid
}

// A Kind is the mapping category of a field: how its value travels
// between a column and the entity.
type Kind uint8

// List of field kinds.
const (
	KindInvalid Kind = iota
	// KindPrimitive fields are read and written with a typed column accessor.
	KindPrimitive
	// KindEnum fields are stored by variant name.
	KindEnum
	// KindRelation fields are stored as the referenced entity's key.
	KindRelation
)

// String returns the string representation of a kind.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	case KindRelation:
		return "relation"
	default:
		return "invalid"
	}
}

// Classify returns the kind of a field type. It is a pure function of the
// type: bool, integer, string and time types are primitives, enums are
// enums and everything else that is valid is a relation.
func Classify(t Type) Kind {
	switch {
	case !t.Valid():
		return KindInvalid
	case t == TypeEnum:
		return KindEnum
	case t == TypeRelation:
		return KindRelation
	default:
		return KindPrimitive
	}
}

// Generated reports whether a key of the given type is assigned by the
// database on insert. Integer keys are, all other keys are natural keys
// supplied by the caller.
func Generated(t Type) bool {
	return t.Numeric()
}
