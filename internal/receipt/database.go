package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	receiptBucketName = "receipts"
	ownerBucketName   = "owners"

	defaultOwnerID    = "1"
	defaultOwnerEmail = "user@smartspend.com"
	defaultOwnerName  = "Usuário Padrão"
)

// ErrNotFound reports a receipt id with no stored record. Deleting or
// fetching an absent id surfaces this, not a crash.
var ErrNotFound = errors.New("receipt not found")

// DB defines the interface for database operations
type DB interface {
	// SaveReceipt saves a receipt to the database
	SaveReceipt(receipt *Receipt) error

	// GetReceipt retrieves a receipt by ID
	GetReceipt(id string) (*Receipt, error)

	// ListReceipts returns all receipts belonging to an owner
	ListReceipts(ownerID string) ([]*Receipt, error)

	// DeleteReceipt removes a receipt, returning ErrNotFound for absent ids
	DeleteReceipt(id string) error

	// GetOrCreateDefaultOwner returns the deployment's default owner,
	// creating it on first use
	GetOrCreateDefaultOwner() (*Owner, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(receiptBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(ownerBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveReceipt saves a receipt to the database
func (b *BoltDB) SaveReceipt(receipt *Receipt) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucketName))
		data, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		return bucket.Put([]byte(receipt.ID), data)
	})
}

// GetReceipt retrieves a receipt by ID
func (b *BoltDB) GetReceipt(id string) (*Receipt, error) {
	var receipt *Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceipts returns all receipts belonging to the given owner
func (b *BoltDB) ListReceipts(ownerID string) ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var receipt Receipt
			if err := json.Unmarshal(v, &receipt); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			if receipt.OwnerID == ownerID {
				receipts = append(receipts, &receipt)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt from the database. Deleting an id that was
// never stored returns ErrNotFound.
func (b *BoltDB) DeleteReceipt(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// GetOrCreateDefaultOwner returns the default owner, creating the record on
// first use.
func (b *BoltDB) GetOrCreateDefaultOwner() (*Owner, error) {
	var owner *Owner
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ownerBucketName))
		if data := bucket.Get([]byte(defaultOwnerID)); data != nil {
			return json.Unmarshal(data, &owner)
		}

		owner = &Owner{
			ID:        defaultOwnerID,
			Email:     defaultOwnerEmail,
			Name:      defaultOwnerName,
			CreatedAt: time.Now(),
		}
		data, err := json.Marshal(owner)
		if err != nil {
			return fmt.Errorf("marshaling owner: %w", err)
		}
		if err := bucket.Put([]byte(owner.ID), data); err != nil {
			return err
		}
		// Hand back the stored form, so the create call and every later
		// read agree; marshaling strips the monotonic clock reading from
		// CreatedAt.
		return json.Unmarshal(data, owner)
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
