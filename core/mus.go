package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-composed MUS serializers for the domain types persisted in BadgerDB.
// Timestamps are stored as Unix microseconds.

// NoteMUS serializes Note values.
var NoteMUS = noteSer{}

// TurnMUS serializes ConversationTurn values.
var TurnMUS = turnSer{}

// ChatMUS serializes Chat values.
var ChatMUS = chatSer{}

type noteSer struct{}

func (noteSer) Marshal(n Note, bs []byte) (off int) {
	off = ord.String.Marshal(n.ID, bs)
	off += ord.String.Marshal(n.OwnerID, bs[off:])
	off += ord.String.Marshal(n.Title, bs[off:])
	off += ord.String.Marshal(n.Content, bs[off:])
	off += marshalStrings(n.Tags, bs[off:])
	off += marshalStrings(n.LinkedNoteIDs, bs[off:])
	off += marshalTime(n.CreatedAt, bs[off:])
	off += marshalTime(n.UpdatedAt, bs[off:])
	return off
}

func (noteSer) Unmarshal(bs []byte) (n Note, off int, err error) {
	var k int
	if n.ID, off, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if n.OwnerID, k, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return
	}
	off += k
	if n.Title, k, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return
	}
	off += k
	if n.Content, k, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return
	}
	off += k
	if n.Tags, k, err = unmarshalStrings(bs[off:]); err != nil {
		return
	}
	off += k
	if n.LinkedNoteIDs, k, err = unmarshalStrings(bs[off:]); err != nil {
		return
	}
	off += k
	if n.CreatedAt, k, err = unmarshalTime(bs[off:]); err != nil {
		return
	}
	off += k
	if n.UpdatedAt, k, err = unmarshalTime(bs[off:]); err != nil {
		return
	}
	off += k
	return
}

func (noteSer) Size(n Note) (size int) {
	size = ord.String.Size(n.ID)
	size += ord.String.Size(n.OwnerID)
	size += ord.String.Size(n.Title)
	size += ord.String.Size(n.Content)
	size += sizeStrings(n.Tags)
	size += sizeStrings(n.LinkedNoteIDs)
	size += sizeTime(n.CreatedAt)
	size += sizeTime(n.UpdatedAt)
	return size
}

type turnSer struct{}

func (turnSer) Marshal(t ConversationTurn, bs []byte) (off int) {
	off = varint.Int.Marshal(int(t.Role), bs)
	off += ord.String.Marshal(t.Content, bs[off:])
	off += marshalTime(t.CreatedAt, bs[off:])
	return off
}

func (turnSer) Unmarshal(bs []byte) (t ConversationTurn, off int, err error) {
	var k int
	var role int
	if role, off, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	t.Role = Role(role)
	if t.Content, k, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return
	}
	off += k
	if t.CreatedAt, k, err = unmarshalTime(bs[off:]); err != nil {
		return
	}
	off += k
	return
}

func (turnSer) Size(t ConversationTurn) (size int) {
	size = varint.Int.Size(int(t.Role))
	size += ord.String.Size(t.Content)
	size += sizeTime(t.CreatedAt)
	return size
}

type chatSer struct{}

func (chatSer) Marshal(c Chat, bs []byte) (off int) {
	off = ord.String.Marshal(c.ID, bs)
	off += ord.String.Marshal(c.OwnerID, bs[off:])
	off += varint.PositiveInt.Marshal(len(c.Turns), bs[off:])
	for _, turn := range c.Turns {
		off += TurnMUS.Marshal(turn, bs[off:])
	}
	off += marshalTime(c.CreatedAt, bs[off:])
	off += marshalTime(c.UpdatedAt, bs[off:])
	return off
}

func (chatSer) Unmarshal(bs []byte) (c Chat, off int, err error) {
	var k int
	if c.ID, off, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if c.OwnerID, k, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return
	}
	off += k
	var count int
	if count, k, err = varint.PositiveInt.Unmarshal(bs[off:]); err != nil {
		return
	}
	off += k
	if count > 0 {
		c.Turns = make([]ConversationTurn, count)
		for i := 0; i < count; i++ {
			if c.Turns[i], k, err = TurnMUS.Unmarshal(bs[off:]); err != nil {
				return
			}
			off += k
		}
	}
	if c.CreatedAt, k, err = unmarshalTime(bs[off:]); err != nil {
		return
	}
	off += k
	if c.UpdatedAt, k, err = unmarshalTime(bs[off:]); err != nil {
		return
	}
	off += k
	return
}

func (chatSer) Size(c Chat) (size int) {
	size = ord.String.Size(c.ID)
	size += ord.String.Size(c.OwnerID)
	size += varint.PositiveInt.Size(len(c.Turns))
	for _, turn := range c.Turns {
		size += TurnMUS.Size(turn)
	}
	size += sizeTime(c.CreatedAt)
	size += sizeTime(c.UpdatedAt)
	return size
}

// String slice helpers: length prefix followed by the elements.

func marshalStrings(ss []string, bs []byte) (off int) {
	off = varint.PositiveInt.Marshal(len(ss), bs)
	for _, s := range ss {
		off += ord.String.Marshal(s, bs[off:])
	}
	return off
}

func unmarshalStrings(bs []byte) (ss []string, off int, err error) {
	var count, k int
	if count, off, err = varint.PositiveInt.Unmarshal(bs); err != nil {
		return
	}
	if count == 0 {
		return
	}
	ss = make([]string, count)
	for i := 0; i < count; i++ {
		if ss[i], k, err = ord.String.Unmarshal(bs[off:]); err != nil {
			return
		}
		off += k
	}
	return
}

func sizeStrings(ss []string) (size int) {
	size = varint.PositiveInt.Size(len(ss))
	for _, s := range ss {
		size += ord.String.Size(s)
	}
	return size
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (t time.Time, off int, err error) {
	var micro int64
	if micro, off, err = varint.Int64.Unmarshal(bs); err != nil {
		return
	}
	t = time.UnixMicro(micro).UTC()
	return
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}
