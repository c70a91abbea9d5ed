package protocol

import (
	"errors"
	"testing"
)

func TestCORecordEncodeDecode(t *testing.T) {
	action := Action{UID: 1001, MapID: 4, Action: 2, Speed: 100, Direction: 3, X: 50, Y: 60, AimX: 51, AimY: 61, AimUID: 2002, ActionParam: 9}

	tests := []struct {
		name    string
		subject Subject
		tag     COType
	}{
		{"monster", MonsterSubject{MonsterID: 17}, COTypeMonster},
		{"player", PlayerSubject{DBID: 300, JobID: 2, Level: 45}, COTypePlayer},
		{"npc", NPCSubject{NPCID: 8}, COTypeNPC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &CORecord{Action: action, Subject: tt.subject}

			buf := in.Encode()
			if len(buf) != SizeCORecord {
				t.Fatalf("len(Encode()) = %d, want %d", len(buf), SizeCORecord)
			}
			if COType(buf[0]) != tt.tag {
				t.Errorf("tag byte = %d, want %d", buf[0], tt.tag)
			}

			var out CORecord
			if err := out.Decode(buf); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if out.COType() != tt.tag {
				t.Errorf("COType() = %s, want %s", out.COType(), tt.tag)
			}
			if out.Action != action {
				t.Errorf("Action = %+v, want %+v", out.Action, action)
			}
			if out.Subject != tt.subject {
				t.Errorf("Subject = %#v, want %#v", out.Subject, tt.subject)
			}
		})
	}
}

func TestCORecordSubjectSwitch(t *testing.T) {
	in := &CORecord{Subject: PlayerSubject{DBID: 1, JobID: 2, Level: 3}}

	var out CORecord
	if err := out.Decode(in.Encode()); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	switch s := out.Subject.(type) {
	case PlayerSubject:
		if s.Level != 3 {
			t.Errorf("Level = %d, want 3", s.Level)
		}
	default:
		t.Fatalf("Subject type = %T, want PlayerSubject", out.Subject)
	}
}

func TestCORecordSmallArmZeroPadded(t *testing.T) {
	buf := (&CORecord{Subject: MonsterSubject{MonsterID: 0xFFFFFFFF}}).Encode()
	for i, b := range buf[1+SizeAction+4:] {
		if b != 0 {
			t.Errorf("union byte %d = %#x, want 0", 4+i, b)
		}
	}
}

func TestCORecordDecodeUnknownTag(t *testing.T) {
	tests := []struct {
		name string
		tag  byte
	}{
		{"no subject", 0},
		{"out of range", 0x7F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, SizeCORecord)
			buf[0] = tt.tag
			var out CORecord
			if err := out.Decode(buf); !errors.Is(err, ErrUnknownCOType) {
				t.Errorf("Decode() error = %v, want ErrUnknownCOType", err)
			}
		})
	}
}

func TestCORecordWithoutSubjectEncodesTagZero(t *testing.T) {
	buf := (&CORecord{}).Encode()
	if buf[0] != 0 {
		t.Errorf("tag byte = %d, want 0", buf[0])
	}
}
