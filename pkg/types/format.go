package types

// Format encodes and decodes enveloped entries for one serialization syntax.
//
// An envelope is a single-key mapping keyed by the entry's type name whose
// value is the entry body, e.g. {"Material": {"id": 1, "name": "cotton"}}.
// Encode must run the syntax's own traversal over v so that link fields get
// their Marshal hooks called; Decode must leave the body in the syntax's
// native form until the returned decode function is called with a target.
type Format interface {
	// Name identifies the format in configuration ("json", "yaml").
	Name() string

	// Ext is the file extension without the leading dot. Empty means no
	// extension is appended.
	Ext() string

	// Encode wraps v in an envelope keyed by typeName. pretty requests
	// human-formatted output.
	Encode(typeName string, v any, pretty bool) ([]byte, error)

	// Decode splits an envelope into its type name and a function that
	// decodes the body into a pointer target.
	Decode(data []byte) (typeName string, body func(target any) error, err error)
}
