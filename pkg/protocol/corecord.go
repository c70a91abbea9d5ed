package protocol

import (
	"encoding/binary"
	"fmt"
)

// COType is the CORECORD discriminant.
type COType uint8

// CORECORD subject types
const (
	COTypeMonster COType = 1
	COTypePlayer  COType = 2
	COTypeNPC     COType = 3
)

func (t COType) String() string {
	switch t {
	case COTypeMonster:
		return "monster"
	case COTypePlayer:
		return "player"
	case COTypeNPC:
		return "npc"
	default:
		return fmt.Sprintf("cotype(%d)", uint8(t))
	}
}

// coUnionSize is the size of the largest subject arm (player).
const coUnionSize = 4 + 4 + 4

// SizeCORecord is the packed CORECORD size: tag, action, subject union.
const SizeCORecord = 1 + SizeAction + coUnionSize

// Subject is the per-type part of a CORECORD. Exactly one implementation is
// carried per record and it decides the tag byte.
type Subject interface {
	COType() COType
	put(buf []byte)
}

// MonsterSubject identifies a monster
type MonsterSubject struct {
	MonsterID uint32
}

func (MonsterSubject) COType() COType { return COTypeMonster }

func (s MonsterSubject) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf, s.MonsterID)
}

func (s *MonsterSubject) get(buf []byte) {
	s.MonsterID = binary.LittleEndian.Uint32(buf)
}

// PlayerSubject identifies a player character
type PlayerSubject struct {
	DBID  uint32
	JobID uint32
	Level uint32
}

func (PlayerSubject) COType() COType { return COTypePlayer }

func (s PlayerSubject) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], s.DBID)
	binary.LittleEndian.PutUint32(buf[4:], s.JobID)
	binary.LittleEndian.PutUint32(buf[8:], s.Level)
}

func (s *PlayerSubject) get(buf []byte) {
	s.DBID = binary.LittleEndian.Uint32(buf[0:])
	s.JobID = binary.LittleEndian.Uint32(buf[4:])
	s.Level = binary.LittleEndian.Uint32(buf[8:])
}

// NPCSubject identifies a non-player character
type NPCSubject struct {
	NPCID uint32
}

func (NPCSubject) COType() COType { return COTypeNPC }

func (s NPCSubject) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf, s.NPCID)
}

func (s *NPCSubject) get(buf []byte) {
	s.NPCID = binary.LittleEndian.Uint32(buf)
}

// CORecord announces a creature (monster, player or NPC) with its current action.
//
// Wire layout: COType (1) | Action (39) | subject union (12). Arms shorter
// than the union leave their trailing bytes zero; those bytes are never read.
type CORecord struct {
	Action  Action
	Subject Subject
}

func (*CORecord) Kind() Kind { return KindCORecord }
func (*CORecord) Size() int  { return SizeCORecord }

// COType returns the tag of the carried subject, or 0 when none is set.
func (m *CORecord) COType() COType {
	if m.Subject == nil {
		return 0
	}
	return m.Subject.COType()
}

// Encode encodes the record to bytes. A record without a subject encodes tag 0
// and a zero union, which Decode rejects.
func (m *CORecord) Encode() []byte {
	buf := make([]byte, SizeCORecord)
	buf[0] = uint8(m.COType())
	m.Action.put(buf[1:])
	if m.Subject != nil {
		m.Subject.put(buf[1+SizeAction:])
	}
	return buf
}

// Decode decodes the record from bytes. The tag selects the only arm read.
func (m *CORecord) Decode(buf []byte) error {
	if len(buf) < SizeCORecord {
		return shortPayload("CORecord", len(buf), SizeCORecord)
	}

	union := buf[1+SizeAction : SizeCORecord]
	switch COType(buf[0]) {
	case COTypeMonster:
		var s MonsterSubject
		s.get(union)
		m.Subject = s
	case COTypePlayer:
		var s PlayerSubject
		s.get(union)
		m.Subject = s
	case COTypeNPC:
		var s NPCSubject
		s.get(union)
		m.Subject = s
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCOType, buf[0])
	}

	m.Action.get(buf[1:])
	return nil
}
