package codecerr

// Action names the codec operation during which an error occurred.
type Action int8

const (
	Unknown Action = iota
	Serialize
	Deserialize
	Register
	Resolve
)

func (a Action) String() string {
	actions := map[Action]string{
		Unknown:     "unknown",
		Serialize:   "serialize",
		Deserialize: "deserialize",
		Register:    "register",
		Resolve:     "resolve",
	}

	if str, ok := actions[a]; ok {
		return str
	}
	return "unknown"
}
