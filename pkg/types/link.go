package types

// Link wire keys. A link is encoded as a mapping holding only these keys.
const (
	LinkKeyName     = "name"
	LinkKeyChecksum = "checksum"
)

// LinkRef is the encoded stand-in for an embedded component: the component's
// entry name and, optionally, the checksum of its file at write time.
//
// An empty Name means "no value" and is only valid for optional fields; it is
// never resolved. A nil Checksum means the link trusts whatever is on disk.
type LinkRef struct {
	Name     string  `json:"name" yaml:"name"`
	Checksum *uint32 `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// Empty reports whether the link denotes an absent optional component.
func (l LinkRef) Empty() bool {
	return l.Name == ""
}

// IsLinkKeys reports whether a mapping with the given keys has the shape of a
// link: it holds "name" and nothing besides "name" and "checksum".
func IsLinkKeys(keys []string) bool {
	hasName := false
	for _, k := range keys {
		switch k {
		case LinkKeyName:
			hasName = true
		case LinkKeyChecksum:
		default:
			return false
		}
	}
	return hasName
}
