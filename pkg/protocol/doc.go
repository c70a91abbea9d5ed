// Package protocol implements the mirlink game server message contract.
//
// The protocol package defines the server message kinds, the byte-exact
// layout of every message body, and the attribute registry that tells
// senders and receivers how each kind is framed on the wire.
//
// # Message Kinds
//
// Every message starts with a one-byte kind code (SM_*). Codes are fixed for
// one protocol version:
//
//   - SM_NONE (0): no message; the fallback for any unrecognized code
//   - SM_PING, SM_LOGINOK, SM_LOGINFAIL: connection and login
//   - SM_ACTION, SM_CORECORD, SM_FIREMAGIC, SM_OFFLINE: creatures on the map
//   - SM_UPDATEHP, SM_NOTIFYDEAD, SM_DEADFADEOUT: health and death
//   - SM_EXP, SM_GOLD: progression
//   - SM_SHOWDROPITEM, SM_PICKUPOK, SM_REMOVEGROUNDITEM: ground items
//
// SM_SPACEMOVE is enumerated but carries no attribute in this version; it
// resolves to SM_NONE like any other unregistered code.
//
// # Framing Classes
//
// The registry maps each code to one of four framing classes:
//   - Empty: nothing follows the code byte
//   - FixedPlain: exactly Size bytes follow
//   - FixedCompressed: a 4-byte length and an S2 block that expands to Size bytes
//   - VariablePlain: a 4-byte length and that many body bytes
//
// Lengths and all layout fields are little-endian. Layout fields are packed
// in declaration order with no padding.
//
// # Registry
//
// Lookup is a total function over all 256 byte values:
//
//	attr := protocol.Lookup(code)
//	if attr.Class.HasBody() {
//	    // read attr.Size bytes (or a length prefix)
//	}
//
// The default registry is built once at package init and validated against
// the layout catalog; a mismatch panics at start-up rather than at the first
// message. It is immutable and safe for concurrent use.
//
// # Usage Example
//
//	codec := protocol.NewCodec()
//
//	// Send
//	msg := protocol.NewMessage(&protocol.Ping{Tick: 1200})
//	codec.WriteMessage(conn, msg)
//
//	// Receive
//	msg, _, err := codec.ReadMessage(conn)
//	if err == nil && !msg.Unknown {
//	    payload, err := msg.Payload()
//	    ...
//	}
package protocol
