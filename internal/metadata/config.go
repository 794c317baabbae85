package metadata

// Placement says where a member lives in the XML node of its owner.
type Placement int8

const (
	// Infer lets the resolver pick the placement from the member type.
	Infer Placement = iota
	Attribute
	Element
	Items
)

func (p Placement) String() string {
	switch p {
	case Infer:
		return "infer"
	case Attribute:
		return "attribute"
	case Element:
		return "element"
	case Items:
		return "items"
	default:
		return "unknown"
	}
}

// EmitPolicy controls whether a member equal to its default is written.
type EmitPolicy int8

const (
	// EmitInherit defers to ClassConfig.EmitDefaults.
	EmitInherit EmitPolicy = iota
	EmitAlways
	EmitOmitDefault
)

// ClassConfig is the per-type serialization policy. The zero value
// serializes every exported field, omits default values, lets member
// settings win over class settings and writes arrays densely.
type ClassConfig struct {
	// ExplicitOnly skips fields without an xmlc tag or a MemberConfig.
	ExplicitOnly bool
	// EmitDefaults writes members even when they equal their default.
	EmitDefaults bool
	// ClassOverridesMembers applies EmitDefaults to every member,
	// ignoring member emit policies.
	ClassOverridesMembers bool
	// SparseArrays skips zero-valued array items and marks the next
	// written item with an explicit index.
	SparseArrays bool
}

// MemberConfig describes one field explicitly. It takes precedence over
// the field's struct tag.
type MemberConfig struct {
	// Field is the Go field name.
	Field     string
	Name      string
	Placement Placement
	// Default is assigned, converted or, for strings, parsed into the
	// field type.
	Default  any
	Required bool
	ReadOnly bool
	Emit     EmitPolicy
	Skip     bool
}

// Describer is implemented by types that declare their members with a
// table instead of struct tags.
type Describer interface {
	XMLMembers() []MemberConfig
}

// Configurer is implemented by types that override the default
// ClassConfig.
type Configurer interface {
	XMLClass() ClassConfig
}
