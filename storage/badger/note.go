package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// NoteRepository implements storage.NoteRepository for BadgerDB.
type NoteRepository struct {
	backend *Backend
}

var _ storage.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(backend *Backend) *NoteRepository {
	return &NoteRepository{backend: backend}
}

// Close releases repository resources. The backend is shared and closed
// separately.
func (r *NoteRepository) Close() error {
	return nil
}

// CreateNote stores a new note, generating a content-addressed ID when
// the note arrives without one.
func (r *NoteRepository) CreateNote(ctx context.Context, note *core.Note) (*core.Note, error) {
	if err := core.ValidateNote(note); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	if note.ID == "" {
		seed := fmt.Sprintf("%s\x00%s\x00%s\x00%d",
			note.OwnerID, note.Title, note.Content, now.UnixNano())
		note.ID = core.IDFromContent(seed)
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeNoteKey(note.ID)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("note %s: %w", note.ID, storage.ErrDuplicateID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		value := storage.MarshalNote(note)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		ownerKey := makeNoteOwnerKey(note.OwnerID, note.CreatedAt, note.ID)
		if err := tx.Set(ownerKey, []byte(note.ID)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return note, nil
}

// UpdateNote updates an existing note. The owner and creation time of
// the stored record are preserved.
func (r *NoteRepository) UpdateNote(ctx context.Context, note *core.Note) (*core.Note, error) {
	if err := core.ValidateNote(note); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeNoteKey(note.ID)

		old, err := r.readNote(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		note.OwnerID = old.OwnerID
		note.CreatedAt = old.CreatedAt
		note.UpdatedAt = time.Now().UTC()

		value := storage.MarshalNote(note)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return note, nil
}

// DeleteNote removes a note and its owner index entry.
func (r *NoteRepository) DeleteNote(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeNoteKey(id)

		note, err := r.readNote(tx, key)
		if err != nil {
			return err
		}
		if note == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(key); err != nil {
			return err
		}

		ownerKey := makeNoteOwnerKey(note.OwnerID, note.CreatedAt, note.ID)
		if err := tx.Delete(ownerKey); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetNote retrieves a single note by ID.
func (r *NoteRepository) GetNote(ctx context.Context, id string) (*core.Note, error) {
	var note *core.Note
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		note, err = r.readNote(tx, makeNoteKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, storage.ErrNotFound
	}
	return note, nil
}

// ListNotes retrieves all notes belonging to an owner, newest first.
func (r *NoteRepository) ListNotes(ctx context.Context, ownerID string) ([]*core.Note, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", storage.ErrInvalidQuery)
	}

	var notes []*core.Note

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeNoteOwnerPrefix(ownerID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past all keys in the prefix range so the reverse
		// iterator starts at the newest entry.
		seekKey := append(append([]byte{}, prefix...),
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

		for iter.Seek(seekKey); iter.ValidForPrefix(prefix); iter.Next() {
			var id string
			err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			})
			if err != nil {
				return err
			}

			note, err := r.readNote(tx, makeNoteKey(id))
			if err != nil {
				return err
			}
			if note == nil {
				// Dangling index entry, skip it.
				continue
			}
			notes = append(notes, note)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return notes, nil
}

// readNote reads and unmarshals a note inside a transaction.
// Returns (nil, nil) when the key does not exist.
func (r *NoteRepository) readNote(tx *badger.Txn, key []byte) (*core.Note, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var note *core.Note
	err = item.Value(func(val []byte) error {
		var err error
		note, err = storage.UnmarshalNote(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}
