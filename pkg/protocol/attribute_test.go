package protocol

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestLookupScenarios(t *testing.T) {
	tests := []struct {
		name string
		code byte
		want Attribute
	}{
		{"ping", uint8(KindPing), Attribute{FixedPlain, 4, "SM_PING"}},
		{"none", uint8(KindNone), Attribute{Empty, 0, "SM_NONE"}},
		{"undeclared 0xff", 0xFF, Attribute{Empty, 0, "SM_NONE"}},
		{"login ok", uint8(KindLoginOK), Attribute{FixedCompressed, SizeLoginOK, "SM_LOGINOK"}},
		{"login fail", uint8(KindLoginFail), Attribute{FixedPlain, 4, "SM_LOGINFAIL"}},
		{"corecord", uint8(KindCORecord), Attribute{FixedCompressed, SizeCORecord, "SM_CORECORD"}},
		{"show drop item", uint8(KindShowDropItem), Attribute{FixedCompressed, 132, "SM_SHOWDROPITEM"}},
		{"gold", uint8(KindGold), Attribute{FixedCompressed, 4, "SM_GOLD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lookup(tt.code); got != tt.want {
				t.Errorf("Lookup(%d) = %+v, want %+v", tt.code, got, tt.want)
			}
		})
	}
}

func TestLookupFallback(t *testing.T) {
	none := Lookup(uint8(KindNone))
	r := Default()

	for code := 0; code < 256; code++ {
		if r.Registered(byte(code)) && code != int(KindNone) {
			continue
		}
		if got := Lookup(byte(code)); got != none {
			t.Errorf("Lookup(%d) = %+v, want fallback %+v", code, got, none)
		}
	}

	// Enumerated but not registered.
	if r.Registered(uint8(KindSpaceMove)) {
		t.Error("SM_SPACEMOVE should not be registered")
	}
	if got := Lookup(uint8(KindSpaceMove)); got != none {
		t.Errorf("Lookup(SM_SPACEMOVE) = %+v, want fallback", got)
	}
}

func TestRegistrySizesMatchLayouts(t *testing.T) {
	for _, e := range Default().Entries() {
		if !e.Class.IsFixed() {
			continue
		}
		p, err := NewPayload(e.Kind)
		if err != nil {
			t.Fatalf("%s: NewPayload() error = %v", e.Name, err)
		}
		if e.Size != p.Size() {
			t.Errorf("%s: declared size %d, layout size %d", e.Name, e.Size, p.Size())
		}
		if n := len(p.Encode()); e.Size != n {
			t.Errorf("%s: declared size %d, encoded length %d", e.Name, e.Size, n)
		}
	}
}

func TestRegistryNamesUnique(t *testing.T) {
	seen := make(map[string]Kind)
	for _, e := range Default().Entries() {
		if e.Name == "" {
			t.Errorf("%d: empty name", e.Kind)
		}
		if other, ok := seen[e.Name]; ok {
			t.Errorf("name %q used by %s and %s", e.Name, other, e.Kind)
		}
		seen[e.Name] = e.Kind
	}
}

func TestRegistryEntriesOrdered(t *testing.T) {
	all := Default().Entries()
	if len(all) != 16 {
		t.Fatalf("len(Entries()) = %d, want 16", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Kind >= all[i].Kind {
			t.Errorf("entries out of order at %d: %s before %s", i, all[i-1].Kind, all[i].Kind)
		}
	}

	// Entries returns a copy.
	all[0].Name = "mutated"
	if Default().Entries()[0].Name != "SM_NONE" {
		t.Error("Entries() exposed internal state")
	}
}

func TestLookupPure(t *testing.T) {
	for code := 0; code < 256; code++ {
		first := Lookup(byte(code))
		for i := 0; i < 3; i++ {
			if got := Lookup(byte(code)); got != first {
				t.Fatalf("Lookup(%d) changed between calls: %+v then %+v", code, first, got)
			}
		}
	}
}

func TestLookupConcurrent(t *testing.T) {
	var want [256]Attribute
	for code := range want {
		want[code] = Lookup(byte(code))
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 64; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				code := byte(seed*31 + i)
				if got := Lookup(code); got != want[code] {
					errs <- got.Name
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for name := range errs {
		t.Errorf("concurrent Lookup returned unexpected attribute %q", name)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	none := Entry{KindNone, Attribute{Empty, 0, "SM_NONE"}}

	tests := []struct {
		name    string
		entries []Entry
		reason  string
	}{
		{
			name:    "missing none",
			entries: []Entry{{KindPing, Attribute{FixedPlain, SizePing, "SM_PING"}}},
			reason:  "missing fallback",
		},
		{
			name:    "none not empty",
			entries: []Entry{{KindNone, Attribute{VariablePlain, 0, "SM_NONE"}}},
			reason:  "must be Empty",
		},
		{
			name: "size drift",
			entries: []Entry{
				none,
				{KindPing, Attribute{FixedPlain, 8, "SM_PING"}},
			},
			reason: "declared size 8, layout size 4",
		},
		{
			name: "duplicate name",
			entries: []Entry{
				none,
				{KindExp, Attribute{FixedCompressed, SizeExp, "SM_EXP"}},
				{KindGold, Attribute{FixedCompressed, SizeGold, "SM_EXP"}},
			},
			reason: "already used",
		},
		{
			name: "duplicate kind",
			entries: []Entry{
				none,
				{KindExp, Attribute{FixedCompressed, SizeExp, "SM_EXP"}},
				{KindExp, Attribute{FixedCompressed, SizeExp, "SM_EXP2"}},
			},
			reason: "duplicate kind",
		},
		{
			name:    "empty name",
			entries: []Entry{none, {KindGold, Attribute{FixedCompressed, SizeGold, ""}}},
			reason:  "empty name",
		},
		{
			name:    "empty class with size",
			entries: []Entry{none, {KindSpaceMove, Attribute{Empty, 4, "SM_SPACEMOVE"}}},
			reason:  "empty class with size",
		},
		{
			name:    "fixed without layout",
			entries: []Entry{none, {KindSpaceMove, Attribute{FixedPlain, 4, "SM_SPACEMOVE"}}},
			reason:  "without a layout",
		},
		{
			name:    "unknown class",
			entries: []Entry{none, {KindGold, Attribute{FramingClass(9), 4, "SM_GOLD"}}},
			reason:  "unknown framing class",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.entries)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("NewRegistry() error = %v, want ValidationError", err)
			}
			if !strings.Contains(ve.Reason, tt.reason) {
				t.Errorf("Reason = %q, want it to contain %q", ve.Reason, tt.reason)
			}
		})
	}
}

func TestNewRegistryOrderIndependent(t *testing.T) {
	reversed := make([]Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}

	r, err := NewRegistry(reversed)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	for code := 0; code < 256; code++ {
		if r.Lookup(byte(code)) != Lookup(byte(code)) {
			t.Errorf("code %d resolves differently in reversed registry", code)
		}
	}
	if r.Fingerprint() != Default().Fingerprint() {
		t.Error("fingerprint depends on entry order")
	}
}

func TestVariablePlainEntry(t *testing.T) {
	r, err := NewRegistry([]Entry{
		{KindNone, Attribute{Empty, 0, "SM_NONE"}},
		{KindSpaceMove, Attribute{VariablePlain, 0, "SM_SPACEMOVE"}},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if got := r.Lookup(uint8(KindSpaceMove)); got.Class != VariablePlain {
		t.Errorf("Lookup(SM_SPACEMOVE).Class = %s, want VariablePlain", got.Class)
	}
}

func TestFramingClass(t *testing.T) {
	tests := []struct {
		class      FramingClass
		body       bool
		fixed      bool
		compressed bool
		name       string
	}{
		{Empty, false, false, false, "Empty"},
		{FixedCompressed, true, true, true, "FixedCompressed"},
		{FixedPlain, true, true, false, "FixedPlain"},
		{VariablePlain, true, false, false, "VariablePlain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.class.HasBody() != tt.body || tt.class.IsFixed() != tt.fixed || tt.class.IsCompressed() != tt.compressed {
				t.Errorf("%s: HasBody=%v IsFixed=%v IsCompressed=%v", tt.class, tt.class.HasBody(), tt.class.IsFixed(), tt.class.IsCompressed())
			}
			if tt.class.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.class.String(), tt.name)
			}
		})
	}
}

func TestFingerprintStable(t *testing.T) {
	fp := Fingerprint()
	if len(fp) != 64 {
		t.Fatalf("len(Fingerprint()) = %d, want 64", len(fp))
	}
	if fp != Fingerprint() {
		t.Error("Fingerprint() not stable")
	}

	// Any change to the table changes the fingerprint.
	changed := make([]Entry, len(entries))
	copy(changed, entries)
	for i := range changed {
		if changed[i].Kind == KindGold {
			changed[i].Name = "SM_GOLD2"
		}
	}
	r, err := NewRegistry(changed)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if r.Fingerprint().Hex() == fp {
		t.Error("renamed entry kept the same fingerprint")
	}
}
