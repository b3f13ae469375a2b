package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"warden.dev/warden/engine"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketRecords  = []byte("records_by_address")
	bucketBalances = []byte("balances_by_identity")
	bucketMeta     = []byte("meta")

	metaKeyVersion    = []byte("disk_version")
	metaKeyController = []byte("controller")
)

const diskVersion = byte(1)

// DB is the persistent record store for one controller's accounts. Engine
// operations run inside bbolt transactions, which supply the all-or-nothing
// session boundary the engine requires.
type DB struct {
	dir string
	db  *bolt.DB
}

func Open(datadir string, controller engine.Address) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	dir := filepath.Join(datadir, "db")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	path := filepath.Join(dir, "warden.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketBalances, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		if v := meta.Get(metaKeyVersion); v == nil {
			if err := meta.Put(metaKeyVersion, []byte{diskVersion}); err != nil {
				return err
			}
		} else if len(v) != 1 || v[0] != diskVersion {
			return fmt.Errorf("unsupported disk version %v", v)
		}
		if c := meta.Get(metaKeyController); c == nil {
			if err := meta.Put(metaKeyController, controller[:]); err != nil {
				return err
			}
		} else if len(c) != 32 || [32]byte(c) != [32]byte(controller) {
			return fmt.Errorf("db belongs to a different controller")
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{dir: dir, db: bdb}, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Run executes op inside one writable transaction. A non-nil error from op
// rolls the whole session back.
func (d *DB) Run(op func(engine.Ledger) error) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return op(&ledgerTx{tx: tx})
	})
}

// View executes op inside a read-only transaction. Mutating calls fail.
func (d *DB) View(op func(engine.Ledger) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		return op(&ledgerTx{tx: tx, readonly: true})
	})
}

// ledgerTx adapts one bbolt transaction to the engine's Ledger interface.
type ledgerTx struct {
	tx       *bolt.Tx
	readonly bool
}

func (t *ledgerTx) GetRecord(addr engine.Address) (*engine.Envelope, error) {
	raw := t.tx.Bucket(bucketRecords).Get(addr[:])
	if raw == nil {
		return nil, nil
	}
	return decodeEnvelope(raw)
}

func (t *ledgerTx) PutRecord(addr engine.Address, env *engine.Envelope) error {
	if t.readonly {
		return fmt.Errorf("put on read-only session")
	}
	raw, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketRecords).Put(addr[:], raw)
}

func (t *ledgerTx) Balance(id engine.Address) (uint64, error) {
	raw := t.tx.Bucket(bucketBalances).Get(id[:])
	if raw == nil {
		return 0, nil
	}
	return decodeBalance(raw)
}

func (t *ledgerTx) Credit(id engine.Address, amount uint64) error {
	if t.readonly {
		return fmt.Errorf("credit on read-only session")
	}
	cur, err := t.Balance(id)
	if err != nil {
		return err
	}
	if amount > (^uint64(0) - cur) {
		return &engine.ProgError{Code: engine.OP_ERR_OVERFLOW, Msg: "native balance overflow"}
	}
	return t.tx.Bucket(bucketBalances).Put(id[:], encodeBalance(cur+amount))
}

func (t *ledgerTx) CloseRecord(addr engine.Address, dest engine.Address) error {
	if t.readonly {
		return fmt.Errorf("close on read-only session")
	}
	env, err := t.GetRecord(addr)
	if err != nil {
		return err
	}
	if env == nil {
		return &engine.ProgError{Code: engine.ACC_ERR_NOT_FOUND, Msg: "close of missing record"}
	}
	if err := t.Credit(dest, env.Value); err != nil {
		return err
	}
	return t.PutRecord(addr, engine.Tombstone(env.Owner))
}
