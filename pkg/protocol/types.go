package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a server message on the wire (one byte).
// Ordinals are part of the wire format and must not be renumbered.
type Kind uint8

// Server message kinds
const (
	KindNone Kind = iota
	KindPing
	KindLoginOK
	KindLoginFail
	KindAction
	KindCORecord
	KindUpdateHP
	KindNotifyDead
	KindDeadFadeOut
	KindExp
	KindShowDropItem
	KindFireMagic
	KindSpaceMove // enumerated, no layout or attribute in this protocol version
	KindOffline
	KindRemoveGroundItem
	KindPickUpOK
	KindGold

	// KindMax is one past the last enumerated kind.
	KindMax
)

var kindNames = [KindMax]string{
	KindNone:             "SM_NONE",
	KindPing:             "SM_PING",
	KindLoginOK:          "SM_LOGINOK",
	KindLoginFail:        "SM_LOGINFAIL",
	KindAction:           "SM_ACTION",
	KindCORecord:         "SM_CORECORD",
	KindUpdateHP:         "SM_UPDATEHP",
	KindNotifyDead:       "SM_NOTIFYDEAD",
	KindDeadFadeOut:      "SM_DEADFADEOUT",
	KindExp:              "SM_EXP",
	KindShowDropItem:     "SM_SHOWDROPITEM",
	KindFireMagic:        "SM_FIREMAGIC",
	KindSpaceMove:        "SM_SPACEMOVE",
	KindOffline:          "SM_OFFLINE",
	KindRemoveGroundItem: "SM_REMOVEGROUNDITEM",
	KindPickUpOK:         "SM_PICKUPOK",
	KindGold:             "SM_GOLD",
}

// ParseCode parses a code byte written in decimal ("12") or 0x-prefixed hex ("0x0c").
func ParseCode(raw string) (uint8, error) {
	base := 10
	s := raw
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	if err != nil {
		return 0, fmt.Errorf("protocol: invalid code %q", raw)
	}
	return uint8(v), nil
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k < KindMax
}

// String returns the enumeration name, or a hex form for out-of-range codes.
// Use Lookup for the registered diagnostic name.
func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("SM_UNKNOWN(0x%02x)", uint8(k))
}

// Payload is a byte-exact message layout.
type Payload interface {
	// Kind returns the message kind carrying this layout.
	Kind() Kind
	// Size returns the packed wire size in bytes.
	Size() int
	// Encode packs the layout into exactly Size() bytes.
	Encode() []byte
	// Decode unpacks the layout from the first Size() bytes of buf.
	Decode(buf []byte) error
}

var (
	ErrShortPayload  = errors.New("protocol: payload buffer too short")
	ErrUnknownCOType = errors.New("protocol: unknown CORECORD subject type")
	ErrNoLayout      = errors.New("protocol: kind has no layout")
)

// NewPayload returns a zero payload for kind, or ErrNoLayout.
func NewPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindPing:
		return &Ping{}, nil
	case KindLoginOK:
		return &LoginOK{}, nil
	case KindLoginFail:
		return &LoginFail{}, nil
	case KindAction:
		return &Action{}, nil
	case KindCORecord:
		return &CORecord{}, nil
	case KindUpdateHP:
		return &UpdateHP{}, nil
	case KindNotifyDead:
		return &NotifyDead{}, nil
	case KindDeadFadeOut:
		return &DeadFadeOut{}, nil
	case KindExp:
		return &Exp{}, nil
	case KindShowDropItem:
		return &ShowDropItem{}, nil
	case KindFireMagic:
		return &FireMagic{}, nil
	case KindOffline:
		return &Offline{}, nil
	case KindRemoveGroundItem:
		return &RemoveGroundItem{}, nil
	case KindPickUpOK:
		return &PickUpOK{}, nil
	case KindGold:
		return &Gold{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoLayout, kind)
	}
}

// layoutSize returns the packed size of kind's layout.
func layoutSize(kind Kind) (int, bool) {
	p, err := NewPayload(kind)
	if err != nil {
		return 0, false
	}
	return p.Size(), true
}

func shortPayload(name string, got, want int) error {
	return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPayload, name, want, got)
}
