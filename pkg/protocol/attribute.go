package protocol

import (
	"fmt"
	"sort"
)

// FramingClass says how a message body is delimited and whether it is compressed.
type FramingClass uint8

// Framing classes. Values match the numbering used by deployed clients.
const (
	// Empty: no body follows the code byte.
	Empty FramingClass = 0
	// FixedCompressed: a body of exactly Size bytes once decompressed.
	FixedCompressed FramingClass = 1
	// FixedPlain: exactly Size bytes follow, not compressed.
	FixedPlain FramingClass = 2
	// VariablePlain: a length prefix precedes a body of that many bytes.
	VariablePlain FramingClass = 3
)

// HasBody reports whether any bytes follow the code byte.
func (c FramingClass) HasBody() bool {
	return c != Empty
}

// IsFixed reports whether the body size is known without reading it.
func (c FramingClass) IsFixed() bool {
	return c == FixedCompressed || c == FixedPlain
}

// IsCompressed reports whether the body is compressed before send.
func (c FramingClass) IsCompressed() bool {
	return c == FixedCompressed
}

func (c FramingClass) String() string {
	switch c {
	case Empty:
		return "Empty"
	case FixedCompressed:
		return "FixedCompressed"
	case FixedPlain:
		return "FixedPlain"
	case VariablePlain:
		return "VariablePlain"
	default:
		return fmt.Sprintf("FramingClass(%d)", uint8(c))
	}
}

// Attribute is the framing metadata of one message kind.
type Attribute struct {
	Class FramingClass `json:"class"`
	// Size is the payload size in bytes (uncompressed for FixedCompressed).
	// Zero for Empty, ignored for VariablePlain.
	Size int    `json:"size"`
	Name string `json:"name"`
}

// Entry binds a kind code to its attribute.
type Entry struct {
	Kind Kind
	Attribute
}

// ValidationError reports a registry table that disagrees with the layout catalog.
type ValidationError struct {
	Kind   Kind
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("protocol: registry entry %s (code %d): %s", e.Kind, uint8(e.Kind), e.Reason)
}

// Registry maps every code byte to an attribute. It is immutable once built
// and safe for concurrent use without locking.
type Registry struct {
	table      [256]Attribute
	registered [256]bool
	entries    []Entry
}

// NewRegistry builds a registry from entries. Entry order does not matter.
// The table must contain KindNone and must agree with the layout catalog.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{}
	names := make(map[string]Kind, len(entries))

	for _, e := range entries {
		if r.registered[e.Kind] {
			return nil, ValidationError{Kind: e.Kind, Reason: "duplicate kind"}
		}
		if e.Name == "" {
			return nil, ValidationError{Kind: e.Kind, Reason: "empty name"}
		}
		if other, dup := names[e.Name]; dup {
			return nil, ValidationError{Kind: e.Kind, Reason: fmt.Sprintf("name %q already used by %s", e.Name, other)}
		}
		if err := checkSize(e); err != nil {
			return nil, err
		}

		names[e.Name] = e.Kind
		r.table[e.Kind] = e.Attribute
		r.registered[e.Kind] = true
		r.entries = append(r.entries, e)
	}

	if !r.registered[KindNone] {
		return nil, ValidationError{Kind: KindNone, Reason: "missing fallback entry"}
	}
	if r.table[KindNone].Class != Empty {
		return nil, ValidationError{Kind: KindNone, Reason: "fallback entry must be Empty"}
	}

	// Unregistered slots resolve to the fallback.
	none := r.table[KindNone]
	for code := range r.table {
		if !r.registered[code] {
			r.table[code] = none
		}
	}

	sort.Slice(r.entries, func(i, j int) bool {
		return r.entries[i].Kind < r.entries[j].Kind
	})

	return r, nil
}

func checkSize(e Entry) error {
	switch {
	case e.Class == Empty:
		if e.Size != 0 {
			return ValidationError{Kind: e.Kind, Reason: fmt.Sprintf("empty class with size %d", e.Size)}
		}
	case e.Class.IsFixed():
		size, ok := layoutSize(e.Kind)
		if !ok {
			return ValidationError{Kind: e.Kind, Reason: "fixed class without a layout"}
		}
		if e.Size != size {
			return ValidationError{Kind: e.Kind, Reason: fmt.Sprintf("declared size %d, layout size %d", e.Size, size)}
		}
	case e.Class == VariablePlain:
	default:
		return ValidationError{Kind: e.Kind, Reason: fmt.Sprintf("unknown framing class %d", uint8(e.Class))}
	}
	return nil
}

// Lookup returns the attribute registered for code, or the KindNone attribute
// when code is unregistered or outside the enumeration. It never fails.
func (r *Registry) Lookup(code byte) Attribute {
	return r.table[code]
}

// Registered reports whether code has its own entry. Lookup does not depend on it.
func (r *Registry) Registered(code byte) bool {
	return r.registered[code]
}

// Entries returns a copy of the registered entries ordered by code.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// entries is the attribute table of this protocol version.
var entries = []Entry{
	{KindNone, Attribute{Empty, 0, "SM_NONE"}},
	{KindPing, Attribute{FixedPlain, SizePing, "SM_PING"}},
	{KindLoginOK, Attribute{FixedCompressed, SizeLoginOK, "SM_LOGINOK"}},
	{KindLoginFail, Attribute{FixedPlain, SizeLoginFail, "SM_LOGINFAIL"}},
	{KindAction, Attribute{FixedCompressed, SizeAction, "SM_ACTION"}},
	{KindCORecord, Attribute{FixedCompressed, SizeCORecord, "SM_CORECORD"}},
	{KindUpdateHP, Attribute{FixedCompressed, SizeUpdateHP, "SM_UPDATEHP"}},
	{KindNotifyDead, Attribute{FixedCompressed, SizeNotifyDead, "SM_NOTIFYDEAD"}},
	{KindDeadFadeOut, Attribute{FixedCompressed, SizeDeadFadeOut, "SM_DEADFADEOUT"}},
	{KindExp, Attribute{FixedCompressed, SizeExp, "SM_EXP"}},
	{KindShowDropItem, Attribute{FixedCompressed, SizeShowDropItem, "SM_SHOWDROPITEM"}},
	{KindFireMagic, Attribute{FixedCompressed, SizeFireMagic, "SM_FIREMAGIC"}},
	{KindOffline, Attribute{FixedCompressed, SizeOffline, "SM_OFFLINE"}},
	{KindPickUpOK, Attribute{FixedCompressed, SizePickUpOK, "SM_PICKUPOK"}},
	{KindRemoveGroundItem, Attribute{FixedCompressed, SizeRemoveGroundItem, "SM_REMOVEGROUNDITEM"}},
	{KindGold, Attribute{FixedCompressed, SizeGold, "SM_GOLD"}},
}

var defaultRegistry = mustRegistry(entries)

func mustRegistry(entries []Entry) *Registry {
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the process-wide registry for this protocol version.
func Default() *Registry {
	return defaultRegistry
}

// Lookup resolves code against the default registry.
func Lookup(code byte) Attribute {
	return defaultRegistry.Lookup(code)
}
