package protocol

import (
	"errors"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNone, "SM_NONE"},
		{KindPing, "SM_PING"},
		{KindSpaceMove, "SM_SPACEMOVE"},
		{KindGold, "SM_GOLD"},
		{KindMax, "SM_UNKNOWN(0x11)"},
		{Kind(0xFF), "SM_UNKNOWN(0xff)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOrdinals(t *testing.T) {
	// Ordinals are wire format.
	want := map[Kind]uint8{
		KindNone:             0,
		KindPing:             1,
		KindLoginOK:          2,
		KindLoginFail:        3,
		KindAction:           4,
		KindCORecord:         5,
		KindUpdateHP:         6,
		KindNotifyDead:       7,
		KindDeadFadeOut:      8,
		KindExp:              9,
		KindShowDropItem:     10,
		KindFireMagic:        11,
		KindSpaceMove:        12,
		KindOffline:          13,
		KindRemoveGroundItem: 14,
		KindPickUpOK:         15,
		KindGold:             16,
		KindMax:              17,
	}
	for kind, code := range want {
		if uint8(kind) != code {
			t.Errorf("%s = %d, want %d", kind, uint8(kind), code)
		}
	}
}

func TestNewPayload(t *testing.T) {
	for k := KindNone; k < KindMax; k++ {
		p, err := NewPayload(k)
		switch k {
		case KindNone, KindSpaceMove:
			if !errors.Is(err, ErrNoLayout) {
				t.Errorf("NewPayload(%s) error = %v, want ErrNoLayout", k, err)
			}
		default:
			if err != nil {
				t.Fatalf("NewPayload(%s) error = %v", k, err)
			}
			if p.Kind() != k {
				t.Errorf("NewPayload(%s).Kind() = %s", k, p.Kind())
			}
		}
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		raw     string
		want    uint8
		wantErr bool
	}{
		{raw: "0", want: 0},
		{raw: "12", want: 12},
		{raw: "010", want: 10},
		{raw: "255", want: 255},
		{raw: "0x0c", want: 12},
		{raw: "0XFF", want: 255},
		{raw: "256", wantErr: true},
		{raw: "0x100", wantErr: true},
		{raw: "0x", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "ping", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCode(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCode(%q) = %d, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCode(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseCode(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
