package badger

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Key prefixes for different data types
const (
	noteRecordPrefix = "noterec"
	noteOwnerPrefix  = "noteown"
	chatRecordPrefix = "chatrec"
	chatOwnerPrefix  = "chatown"
)

// makeNoteKey generates a key for a note by ID.
func makeNoteKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", noteRecordPrefix, id))
}

// makeNoteOwnerKey generates a composite key for the per-owner note index.
// Format: prefix:owner\x00timestamp:id
// The timestamp is written in BigEndian order so lexicographic iteration
// walks notes in creation order; a reverse iterator yields newest first.
func makeNoteOwnerKey(ownerID string, createdAt time.Time, id string) []byte {
	prefix := makeNoteOwnerPrefix(ownerID)
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeNoteOwnerPrefix generates the scan prefix for one owner's note index.
// The 0x00 separator keeps owner "ab" from matching owner "abc" entries.
func makeNoteOwnerPrefix(ownerID string) []byte {
	prefix := noteOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+len(ownerID)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], ownerID)
	buf[offset] = 0x00
	return buf
}

// makeChatKey generates a key for a chat by ID.
func makeChatKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chatRecordPrefix, id))
}

// makeChatOwnerKey generates a composite key for the per-owner chat index.
// Format: prefix:owner\x00timestamp:id
func makeChatOwnerKey(ownerID string, createdAt time.Time, id string) []byte {
	prefix := makeChatOwnerPrefix(ownerID)
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeChatOwnerPrefix generates the scan prefix for one owner's chat index.
func makeChatOwnerPrefix(ownerID string) []byte {
	prefix := chatOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+len(ownerID)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], ownerID)
	buf[offset] = 0x00
	return buf
}
