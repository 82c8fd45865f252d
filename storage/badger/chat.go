package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// ChatRepository implements storage.ChatRepository for BadgerDB.
type ChatRepository struct {
	backend *Backend
}

var _ storage.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(backend *Backend) *ChatRepository {
	return &ChatRepository{backend: backend}
}

// Close releases repository resources. The backend is shared and closed
// separately.
func (r *ChatRepository) Close() error {
	return nil
}

// CreateChat creates an empty chat session for the owner.
func (r *ChatRepository) CreateChat(ctx context.Context, ownerID string) (*core.Chat, error) {
	if ownerID == "" {
		return nil, core.ErrEmptyOwner
	}

	now := time.Now().UTC()
	chat := &core.Chat{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value := storage.MarshalChat(chat)
		if err := tx.Set(makeChatKey(chat.ID), value); err != nil {
			return err
		}

		ownerKey := makeChatOwnerKey(chat.OwnerID, chat.CreatedAt, chat.ID)
		if err := tx.Set(ownerKey, []byte(chat.ID)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return chat, nil
}

// GetChat retrieves a chat with all its turns.
func (r *ChatRepository) GetChat(ctx context.Context, id string) (*core.Chat, error) {
	var chat *core.Chat
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		chat, err = r.readChat(tx, makeChatKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, storage.ErrNotFound
	}
	return chat, nil
}

// GetTurns retrieves the ordered turns of a chat.
func (r *ChatRepository) GetTurns(ctx context.Context, chatID string) ([]core.ConversationTurn, error) {
	chat, err := r.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chat.Turns, nil
}

// AppendTurn appends a turn to a chat in a single write transaction.
func (r *ChatRepository) AppendTurn(ctx context.Context, chatID string, turn core.ConversationTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	if err := core.ValidateTurn(&turn); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChatKey(chatID)

		chat, err := r.readChat(tx, key)
		if err != nil {
			return err
		}
		if chat == nil {
			return storage.ErrNotFound
		}

		chat.Turns = append(chat.Turns, turn)
		chat.UpdatedAt = time.Now().UTC()

		value := storage.MarshalChat(chat)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// ListChats retrieves all chats belonging to an owner, newest first.
func (r *ChatRepository) ListChats(ctx context.Context, ownerID string) ([]*core.Chat, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", storage.ErrInvalidQuery)
	}

	var chats []*core.Chat

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeChatOwnerPrefix(ownerID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

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

			chat, err := r.readChat(tx, makeChatKey(id))
			if err != nil {
				return err
			}
			if chat == nil {
				continue
			}
			chats = append(chats, chat)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return chats, nil
}

// DeleteChat removes a chat and its owner index entry.
func (r *ChatRepository) DeleteChat(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChatKey(id)

		chat, err := r.readChat(tx, key)
		if err != nil {
			return err
		}
		if chat == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(key); err != nil {
			return err
		}

		ownerKey := makeChatOwnerKey(chat.OwnerID, chat.CreatedAt, chat.ID)
		if err := tx.Delete(ownerKey); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// readChat reads and unmarshals a chat inside a transaction.
// Returns (nil, nil) when the key does not exist.
func (r *ChatRepository) readChat(tx *badger.Txn, key []byte) (*core.Chat, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var chat *core.Chat
	err = item.Value(func(val []byte) error {
		var err error
		chat, err = storage.UnmarshalChat(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}
