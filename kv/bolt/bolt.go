// Package bolt implements kv.Store on an embedded bbolt file through storm.
package bolt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/json"
	"github.com/asdine/storm/v3/q"
	"github.com/pkg/errors"
	bbolt "go.etcd.io/bbolt"

	"github.com/sagarc03/fragments/kv"
)

// StormCodec is the format used to store records in the database.
var StormCodec = storm.Codec(json.Codec)

const (
	metaBucket = "meta"
	seqKey     = "seq"
)

// record is one stored pair. ID encodes both keys with a length prefix so
// ("a", "b-c") and ("a-b", "c") never collide.
type record struct {
	ID        string    `json:"id"         storm:"id"`
	Primary   string    `json:"primary"    storm:"index"`
	Secondary string    `json:"secondary"`
	Seq       uint64    `json:"seq"        storm:"index"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func recordID(primaryKey, secondaryKey string) string {
	return strconv.Itoa(len(primaryKey)) + ":" + primaryKey + "/" + secondaryKey
}

// Store is a kv.Store persisted in a storm bucket.
type Store struct {
	db   *storm.DB
	node storm.Node
}

// Open opens (or creates) the bolt file at path and stores records under bucket.
// A bolt file can only be opened once at a time; Open gives up after timeout.
func Open(path, bucket string, timeout time.Duration) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("open bolt: bucket cannot be empty")
	}

	db, err := storm.Open(path, StormCodec, storm.BoltOptions(0o600, &bbolt.Options{Timeout: timeout}))
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	node := db.From(bucket)
	if err := node.Init(&record{}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not init record index")
	}

	return &Store{db: db, node: node}, nil
}

// Close closes the underlying bolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, primaryKey, secondaryKey string, value []byte) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	tx, err := s.node.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	rec := record{ID: recordID(primaryKey, secondaryKey)}

	err = tx.One("ID", rec.ID, &rec)
	switch {
	case err == nil:
	case errors.Cause(err) == storm.ErrNotFound:
		seq, seqErr := nextSeq(tx)
		if seqErr != nil {
			return seqErr
		}
		rec.Primary = primaryKey
		rec.Secondary = secondaryKey
		rec.Seq = seq
		rec.CreatedAt = now
	default:
		return errors.Wrap(err, "could not find record")
	}

	rec.Value = value
	rec.UpdatedAt = now

	if err := tx.Save(&rec); err != nil {
		return errors.Wrap(err, "could not save the record")
	}

	return errors.Wrap(tx.Commit(), "could not commit")
}

// nextSeq bumps the insertion counter stored next to the records.
func nextSeq(tx storm.Node) (uint64, error) {
	var seq uint64
	err := tx.Get(metaBucket, seqKey, &seq)
	if err != nil && errors.Cause(err) != storm.ErrNotFound {
		return 0, errors.Wrap(err, "could not read sequence")
	}

	seq++
	if err := tx.Set(metaBucket, seqKey, seq); err != nil {
		return 0, errors.Wrap(err, "could not write sequence")
	}
	return seq, nil
}

func (s *Store) Get(ctx context.Context, primaryKey, secondaryKey string) ([]byte, bool, error) {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var rec record
	err := s.node.One("ID", recordID(primaryKey, secondaryKey), &rec)
	if err != nil {
		if errors.Cause(err) == storm.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "could not find record")
	}

	if rec.Value == nil {
		rec.Value = []byte{}
	}
	return rec.Value, true, nil
}

func (s *Store) Query(ctx context.Context, primaryKey string) ([][]byte, error) {
	if err := kv.ValidateKeys(primaryKey); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]record, 0)
	err := s.node.Select(q.Eq("Primary", primaryKey)).OrderBy("Seq").Find(&records)
	if err != nil && errors.Cause(err) != storm.ErrNotFound {
		return nil, errors.Wrap(err, "could not get records by primary key")
	}

	values := make([][]byte, 0, len(records))
	for _, rec := range records {
		if rec.Value == nil {
			rec.Value = []byte{}
		}
		values = append(values, rec.Value)
	}
	return values, nil
}

func (s *Store) Del(ctx context.Context, primaryKey, secondaryKey string) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.node.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var rec record
	if err := tx.One("ID", recordID(primaryKey, secondaryKey), &rec); err != nil {
		if errors.Cause(err) == storm.ErrNotFound {
			return fmt.Errorf("del %s/%s: %w", primaryKey, secondaryKey, kv.ErrNotFound)
		}
		return errors.Wrap(err, "could not find record")
	}

	if err := tx.DeleteStruct(&rec); err != nil {
		return errors.Wrap(err, "could not delete the record")
	}

	return errors.Wrap(tx.Commit(), "could not commit")
}
