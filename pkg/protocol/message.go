package protocol

import (
	"encoding/binary"
)

// Packed layout sizes in bytes
const (
	SizePing             = 4
	SizeLoginOK          = 8 + 4 + 4 + 2 + 2 + 1 + 1 + 4 + 4
	SizeLoginFail        = 4
	SizeAction           = 8 + 4 + 1 + 1 + 1 + 2 + 2 + 2 + 2 + 8 + 8
	SizeUpdateHP         = 8 + 4 + 4 + 4
	SizeNotifyDead       = 8
	SizeDeadFadeOut      = 8 + 4 + 4 + 4
	SizeExp              = 4
	SizeShowDropItem     = DropItemSlots*(4+4) + 2 + 2
	SizeFireMagic        = 8 + 4 + 1 + 1 + 1 + 1 + 2 + 2 + 2 + 2 + 8
	SizeOffline          = 8 + 4
	SizeRemoveGroundItem = 2 + 2 + 4 + 4
	SizePickUpOK         = 2 + 2 + 4 + 4
	SizeGold             = 4
	SizeAccount          = 1 + 1 + AccountIDLen + AccountPasswordLen
)

// DropItemSlots is the fixed number of item slots in a SHOWDROPITEM record.
const DropItemSlots = 16

// ===== PING =====

// Ping carries the server tick for latency measurement
type Ping struct {
	Tick uint32
}

func (*Ping) Kind() Kind { return KindPing }
func (*Ping) Size() int  { return SizePing }

// Encode encodes ping to bytes
func (m *Ping) Encode() []byte {
	buf := make([]byte, SizePing)
	binary.LittleEndian.PutUint32(buf, m.Tick)
	return buf
}

// Decode decodes ping from bytes
func (m *Ping) Decode(buf []byte) error {
	if len(buf) < SizePing {
		return shortPayload("Ping", len(buf), SizePing)
	}
	m.Tick = binary.LittleEndian.Uint32(buf)
	return nil
}

// ===== LOGIN =====

// LoginOK is sent once the account is accepted and the player is placed
type LoginOK struct {
	UID       uint64
	DBID      uint32
	MapID     uint32
	X         uint16
	Y         uint16
	Male      uint8
	Direction uint8
	JobID     uint32
	Level     uint32
}

func (*LoginOK) Kind() Kind { return KindLoginOK }
func (*LoginOK) Size() int  { return SizeLoginOK }

// Encode encodes login ok to bytes
func (m *LoginOK) Encode() []byte {
	buf := make([]byte, SizeLoginOK)
	offset := 0

	binary.LittleEndian.PutUint64(buf[offset:], m.UID)
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:], m.DBID)
	offset += 4

	binary.LittleEndian.PutUint32(buf[offset:], m.MapID)
	offset += 4

	binary.LittleEndian.PutUint16(buf[offset:], m.X)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.Y)
	offset += 2

	buf[offset] = m.Male
	offset++

	buf[offset] = m.Direction
	offset++

	binary.LittleEndian.PutUint32(buf[offset:], m.JobID)
	offset += 4

	binary.LittleEndian.PutUint32(buf[offset:], m.Level)

	return buf
}

// Decode decodes login ok from bytes
func (m *LoginOK) Decode(buf []byte) error {
	if len(buf) < SizeLoginOK {
		return shortPayload("LoginOK", len(buf), SizeLoginOK)
	}
	offset := 0

	m.UID = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8

	m.DBID = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	m.MapID = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	m.X = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.Y = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.Male = buf[offset]
	offset++

	m.Direction = buf[offset]
	offset++

	m.JobID = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	m.Level = binary.LittleEndian.Uint32(buf[offset:])

	return nil
}

// LoginFail carries the reason a login was refused
type LoginFail struct {
	FailID uint32
}

func (*LoginFail) Kind() Kind { return KindLoginFail }
func (*LoginFail) Size() int  { return SizeLoginFail }

// Encode encodes login fail to bytes
func (m *LoginFail) Encode() []byte {
	buf := make([]byte, SizeLoginFail)
	binary.LittleEndian.PutUint32(buf, m.FailID)
	return buf
}

// Decode decodes login fail from bytes
func (m *LoginFail) Decode(buf []byte) error {
	if len(buf) < SizeLoginFail {
		return shortPayload("LoginFail", len(buf), SizeLoginFail)
	}
	m.FailID = binary.LittleEndian.Uint32(buf)
	return nil
}

// Account operations
const (
	AccountValidate uint8 = 0
	AccountCreate   uint8 = 1
	AccountLogin    uint8 = 2
)

// Fixed account field widths
const (
	AccountIDLen       = 64
	AccountPasswordLen = 128
)

// Account is the account register/login record exchanged during the login
// flow. It has no server message kind in this protocol version.
type Account struct {
	Operation uint8
	Respond   uint8
	ID        [AccountIDLen]byte
	Password  [AccountPasswordLen]byte
}

// Size returns the packed account size
func (*Account) Size() int { return SizeAccount }

// SetID stores id NUL-padded; ids longer than the field are truncated.
func (m *Account) SetID(id string) {
	m.ID = [AccountIDLen]byte{}
	copy(m.ID[:], id)
}

// IDString returns the account id up to the first NUL.
func (m *Account) IDString() string {
	return cString(m.ID[:])
}

// Encode encodes account to bytes
func (m *Account) Encode() []byte {
	buf := make([]byte, SizeAccount)
	buf[0] = m.Operation
	buf[1] = m.Respond
	copy(buf[2:], m.ID[:])
	copy(buf[2+AccountIDLen:], m.Password[:])
	return buf
}

// Decode decodes account from bytes
func (m *Account) Decode(buf []byte) error {
	if len(buf) < SizeAccount {
		return shortPayload("Account", len(buf), SizeAccount)
	}
	m.Operation = buf[0]
	m.Respond = buf[1]
	copy(m.ID[:], buf[2:2+AccountIDLen])
	copy(m.Password[:], buf[2+AccountIDLen:SizeAccount])
	return nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ===== MOVEMENT & COMBAT =====

// Action describes one creature action on a map
type Action struct {
	UID         uint64
	MapID       uint32
	Action      uint8
	Speed       uint8
	Direction   uint8
	X           uint16
	Y           uint16
	AimX        uint16
	AimY        uint16
	AimUID      uint64
	ActionParam uint64
}

func (*Action) Kind() Kind { return KindAction }
func (*Action) Size() int  { return SizeAction }

// Encode encodes action to bytes
func (m *Action) Encode() []byte {
	buf := make([]byte, SizeAction)
	m.put(buf)
	return buf
}

// Decode decodes action from bytes
func (m *Action) Decode(buf []byte) error {
	if len(buf) < SizeAction {
		return shortPayload("Action", len(buf), SizeAction)
	}
	m.get(buf)
	return nil
}

// put writes the action into buf[:SizeAction]; shared with CORecord.
func (m *Action) put(buf []byte) {
	offset := 0

	binary.LittleEndian.PutUint64(buf[offset:], m.UID)
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:], m.MapID)
	offset += 4

	buf[offset] = m.Action
	buf[offset+1] = m.Speed
	buf[offset+2] = m.Direction
	offset += 3

	binary.LittleEndian.PutUint16(buf[offset:], m.X)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.Y)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.AimX)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.AimY)
	offset += 2

	binary.LittleEndian.PutUint64(buf[offset:], m.AimUID)
	offset += 8

	binary.LittleEndian.PutUint64(buf[offset:], m.ActionParam)
}

func (m *Action) get(buf []byte) {
	offset := 0

	m.UID = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8

	m.MapID = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	m.Action = buf[offset]
	m.Speed = buf[offset+1]
	m.Direction = buf[offset+2]
	offset += 3

	m.X = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.Y = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.AimX = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.AimY = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.AimUID = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8

	m.ActionParam = binary.LittleEndian.Uint64(buf[offset:])
}

// UpdateHP reports a creature's current and maximum HP
type UpdateHP struct {
	UID   uint64
	MapID uint32
	HP    uint32
	HPMax uint32
}

func (*UpdateHP) Kind() Kind { return KindUpdateHP }
func (*UpdateHP) Size() int  { return SizeUpdateHP }

// Encode encodes update hp to bytes
func (m *UpdateHP) Encode() []byte {
	buf := make([]byte, SizeUpdateHP)
	binary.LittleEndian.PutUint64(buf[0:], m.UID)
	binary.LittleEndian.PutUint32(buf[8:], m.MapID)
	binary.LittleEndian.PutUint32(buf[12:], m.HP)
	binary.LittleEndian.PutUint32(buf[16:], m.HPMax)
	return buf
}

// Decode decodes update hp from bytes
func (m *UpdateHP) Decode(buf []byte) error {
	if len(buf) < SizeUpdateHP {
		return shortPayload("UpdateHP", len(buf), SizeUpdateHP)
	}
	m.UID = binary.LittleEndian.Uint64(buf[0:])
	m.MapID = binary.LittleEndian.Uint32(buf[8:])
	m.HP = binary.LittleEndian.Uint32(buf[12:])
	m.HPMax = binary.LittleEndian.Uint32(buf[16:])
	return nil
}

// NotifyDead tells the client a creature died
type NotifyDead struct {
	UID uint64
}

func (*NotifyDead) Kind() Kind { return KindNotifyDead }
func (*NotifyDead) Size() int  { return SizeNotifyDead }

// Encode encodes notify dead to bytes
func (m *NotifyDead) Encode() []byte {
	buf := make([]byte, SizeNotifyDead)
	binary.LittleEndian.PutUint64(buf, m.UID)
	return buf
}

// Decode decodes notify dead from bytes
func (m *NotifyDead) Decode(buf []byte) error {
	if len(buf) < SizeNotifyDead {
		return shortPayload("NotifyDead", len(buf), SizeNotifyDead)
	}
	m.UID = binary.LittleEndian.Uint64(buf)
	return nil
}

// DeadFadeOut asks the client to fade out a dead creature's corpse
type DeadFadeOut struct {
	UID   uint64
	MapID uint32
	X     uint32
	Y     uint32
}

func (*DeadFadeOut) Kind() Kind { return KindDeadFadeOut }
func (*DeadFadeOut) Size() int  { return SizeDeadFadeOut }

// Encode encodes dead fade out to bytes
func (m *DeadFadeOut) Encode() []byte {
	buf := make([]byte, SizeDeadFadeOut)
	binary.LittleEndian.PutUint64(buf[0:], m.UID)
	binary.LittleEndian.PutUint32(buf[8:], m.MapID)
	binary.LittleEndian.PutUint32(buf[12:], m.X)
	binary.LittleEndian.PutUint32(buf[16:], m.Y)
	return buf
}

// Decode decodes dead fade out from bytes
func (m *DeadFadeOut) Decode(buf []byte) error {
	if len(buf) < SizeDeadFadeOut {
		return shortPayload("DeadFadeOut", len(buf), SizeDeadFadeOut)
	}
	m.UID = binary.LittleEndian.Uint64(buf[0:])
	m.MapID = binary.LittleEndian.Uint32(buf[8:])
	m.X = binary.LittleEndian.Uint32(buf[12:])
	m.Y = binary.LittleEndian.Uint32(buf[16:])
	return nil
}

// FireMagic describes a spell cast
type FireMagic struct {
	UID        uint64
	MapID      uint32
	Magic      uint8
	MagicParam uint8
	Speed      uint8
	Direction  uint8
	X          uint16
	Y          uint16
	AimX       uint16
	AimY       uint16
	AimUID     uint64
}

func (*FireMagic) Kind() Kind { return KindFireMagic }
func (*FireMagic) Size() int  { return SizeFireMagic }

// Encode encodes fire magic to bytes
func (m *FireMagic) Encode() []byte {
	buf := make([]byte, SizeFireMagic)
	offset := 0

	binary.LittleEndian.PutUint64(buf[offset:], m.UID)
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:], m.MapID)
	offset += 4

	buf[offset] = m.Magic
	buf[offset+1] = m.MagicParam
	buf[offset+2] = m.Speed
	buf[offset+3] = m.Direction
	offset += 4

	binary.LittleEndian.PutUint16(buf[offset:], m.X)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.Y)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.AimX)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.AimY)
	offset += 2

	binary.LittleEndian.PutUint64(buf[offset:], m.AimUID)

	return buf
}

// Decode decodes fire magic from bytes
func (m *FireMagic) Decode(buf []byte) error {
	if len(buf) < SizeFireMagic {
		return shortPayload("FireMagic", len(buf), SizeFireMagic)
	}
	offset := 0

	m.UID = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8

	m.MapID = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	m.Magic = buf[offset]
	m.MagicParam = buf[offset+1]
	m.Speed = buf[offset+2]
	m.Direction = buf[offset+3]
	offset += 4

	m.X = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.Y = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.AimX = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.AimY = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.AimUID = binary.LittleEndian.Uint64(buf[offset:])

	return nil
}

// Offline tells the client a player left the map
type Offline struct {
	UID   uint64
	MapID uint32
}

func (*Offline) Kind() Kind { return KindOffline }
func (*Offline) Size() int  { return SizeOffline }

// Encode encodes offline to bytes
func (m *Offline) Encode() []byte {
	buf := make([]byte, SizeOffline)
	binary.LittleEndian.PutUint64(buf[0:], m.UID)
	binary.LittleEndian.PutUint32(buf[8:], m.MapID)
	return buf
}

// Decode decodes offline from bytes
func (m *Offline) Decode(buf []byte) error {
	if len(buf) < SizeOffline {
		return shortPayload("Offline", len(buf), SizeOffline)
	}
	m.UID = binary.LittleEndian.Uint64(buf[0:])
	m.MapID = binary.LittleEndian.Uint32(buf[8:])
	return nil
}

// ===== PROGRESSION =====

// Exp reports experience gained
type Exp struct {
	Exp uint32
}

func (*Exp) Kind() Kind { return KindExp }
func (*Exp) Size() int  { return SizeExp }

// Encode encodes exp to bytes
func (m *Exp) Encode() []byte {
	buf := make([]byte, SizeExp)
	binary.LittleEndian.PutUint32(buf, m.Exp)
	return buf
}

// Decode decodes exp from bytes
func (m *Exp) Decode(buf []byte) error {
	if len(buf) < SizeExp {
		return shortPayload("Exp", len(buf), SizeExp)
	}
	m.Exp = binary.LittleEndian.Uint32(buf)
	return nil
}

// Gold reports the player's gold
type Gold struct {
	Gold uint32
}

func (*Gold) Kind() Kind { return KindGold }
func (*Gold) Size() int  { return SizeGold }

// Encode encodes gold to bytes
func (m *Gold) Encode() []byte {
	buf := make([]byte, SizeGold)
	binary.LittleEndian.PutUint32(buf, m.Gold)
	return buf
}

// Decode decodes gold from bytes
func (m *Gold) Decode(buf []byte) error {
	if len(buf) < SizeGold {
		return shortPayload("Gold", len(buf), SizeGold)
	}
	m.Gold = binary.LittleEndian.Uint32(buf)
	return nil
}

// ===== GROUND ITEMS =====

// CommonItem identifies one item instance
type CommonItem struct {
	ID   uint32
	DBID uint32
}

// ShowDropItem lists the items lying on one ground cell. Unused slots are zero.
type ShowDropItem struct {
	IDList [DropItemSlots]CommonItem
	X      uint16
	Y      uint16
}

func (*ShowDropItem) Kind() Kind { return KindShowDropItem }
func (*ShowDropItem) Size() int  { return SizeShowDropItem }

// Encode encodes show drop item to bytes
func (m *ShowDropItem) Encode() []byte {
	buf := make([]byte, SizeShowDropItem)
	offset := 0

	for _, item := range m.IDList {
		binary.LittleEndian.PutUint32(buf[offset:], item.ID)
		binary.LittleEndian.PutUint32(buf[offset+4:], item.DBID)
		offset += 8
	}

	binary.LittleEndian.PutUint16(buf[offset:], m.X)
	offset += 2

	binary.LittleEndian.PutUint16(buf[offset:], m.Y)

	return buf
}

// Decode decodes show drop item from bytes
func (m *ShowDropItem) Decode(buf []byte) error {
	if len(buf) < SizeShowDropItem {
		return shortPayload("ShowDropItem", len(buf), SizeShowDropItem)
	}
	offset := 0

	for i := range m.IDList {
		m.IDList[i].ID = binary.LittleEndian.Uint32(buf[offset:])
		m.IDList[i].DBID = binary.LittleEndian.Uint32(buf[offset+4:])
		offset += 8
	}

	m.X = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	m.Y = binary.LittleEndian.Uint16(buf[offset:])

	return nil
}

// groundItem is the shared X, Y, ID, DBID record.
type groundItem struct {
	X    uint16
	Y    uint16
	ID   uint32
	DBID uint32
}

func (g *groundItem) encode() []byte {
	buf := make([]byte, SizeRemoveGroundItem)
	binary.LittleEndian.PutUint16(buf[0:], g.X)
	binary.LittleEndian.PutUint16(buf[2:], g.Y)
	binary.LittleEndian.PutUint32(buf[4:], g.ID)
	binary.LittleEndian.PutUint32(buf[8:], g.DBID)
	return buf
}

func (g *groundItem) decode(name string, buf []byte) error {
	if len(buf) < SizeRemoveGroundItem {
		return shortPayload(name, len(buf), SizeRemoveGroundItem)
	}
	g.X = binary.LittleEndian.Uint16(buf[0:])
	g.Y = binary.LittleEndian.Uint16(buf[2:])
	g.ID = binary.LittleEndian.Uint32(buf[4:])
	g.DBID = binary.LittleEndian.Uint32(buf[8:])
	return nil
}

// RemoveGroundItem removes one item from a ground cell
type RemoveGroundItem groundItem

func (*RemoveGroundItem) Kind() Kind { return KindRemoveGroundItem }
func (*RemoveGroundItem) Size() int  { return SizeRemoveGroundItem }

// Encode encodes remove ground item to bytes
func (m *RemoveGroundItem) Encode() []byte { return (*groundItem)(m).encode() }

// Decode decodes remove ground item from bytes
func (m *RemoveGroundItem) Decode(buf []byte) error {
	return (*groundItem)(m).decode("RemoveGroundItem", buf)
}

// PickUpOK confirms the player picked up an item
type PickUpOK groundItem

func (*PickUpOK) Kind() Kind { return KindPickUpOK }
func (*PickUpOK) Size() int  { return SizePickUpOK }

// Encode encodes pick up ok to bytes
func (m *PickUpOK) Encode() []byte { return (*groundItem)(m).encode() }

// Decode decodes pick up ok from bytes
func (m *PickUpOK) Decode(buf []byte) error {
	return (*groundItem)(m).decode("PickUpOK", buf)
}
