// Package eventlog — eventlog.go
//
// Hash-chained, append-only event ledger for the ASC kernel.
//
// Schema when backed by BoltDB (optional persistence, see Open):
//
//	/events
//	    key:   seq, 8-byte big-endian (sortable, matches tick ordering)
//	    value: JSON-encoded Record
//	/meta
//	    key:   "schema_version"
//	    value: "1"
//
// Single-writer, ACID transactions via BoltDB, schema-version-checked on
// open. Each record hashes a tick's full KernelOutput against the previous
// record's hash, so the tip is a Merkle-style commitment to the entire
// sequence.
//
// Consistency model: single-owner. A Runtime owns its Log exclusively; no
// sharing, no cyclic references.
package eventlog

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

const (
	// SchemaVersion is the current BoltDB schema version for persisted logs.
	SchemaVersion = "1"

	bucketEvents = "events"
	bucketMeta   = "meta"
)

// Record is a single entry in the chain.
type Record struct {
	Seq      uint64 `json:"seq"`
	Payload  Output `json:"payload"`
	PrevHash string `json:"prev_hash"`
	Hash     string `json:"hash"`
}

// Log is the ordered, append-only event ledger plus its tip. It is always
// usable purely in memory; attaching a *bolt.DB via
// Open gives it durable, replay-verifiable persistence.
type Log struct {
	mu              sync.Mutex
	records         []Record
	tip             string
	db              *bolt.DB
	persistFailures uint64
	onPersistError  func(error)
}

// New creates an empty, purely in-memory Log.
func New() *Log {
	return &Log{}
}

// Open creates (or opens) a BoltDB-backed Log at path. Existing records are
// loaded and the in-memory tip is restored from the last one, so a Runtime
// resumed against a prior log continues the same hash chain.
func Open(path string) (*Log, error) {
	bdb, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("eventlog.Open(%q): %w", path, err)
	}

	l := &Log{db: bdb}

	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketEvents, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("CreateBucketIfNotExists(%q): %w", name, err)
			}
		}
		meta := tx.Bucket([]byte(bucketMeta))
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(SchemaVersion)); err != nil {
				return fmt.Errorf("write schema_version: %w", err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("eventlog: initialisation failed: %w", err)
	}

	if err := bdb.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		if v := string(meta.Get([]byte("schema_version"))); v != SchemaVersion {
			return fmt.Errorf("schema version mismatch: database has %q, kernel requires %q", v, SchemaVersion)
		}
		events := tx.Bucket([]byte(bucketEvents))
		return events.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			l.records = append(l.records, rec)
			l.tip = rec.Hash
			return nil
		})
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	return l, nil
}

// Close releases the underlying BoltDB handle, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// OnPersistError registers fn to be called whenever a BoltDB-backed
// Append fails to durably persist a record. The in-memory chain (and the
// tip it advances) is unaffected by a persist failure — this hook exists
// so a host can make that divergence operator-visible instead of letting
// it pass silently. fn must not call back into the Log; it runs while
// Append still holds the Log's lock.
func (l *Log) OnPersistError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onPersistError = fn
}

// PersistFailures returns the number of Append calls whose BoltDB write
// has failed since the log was opened.
func (l *Log) PersistFailures() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistFailures
}

// recordPersistFailure must be called with l.mu held.
func (l *Log) recordPersistFailure(err error) {
	l.persistFailures++
	if l.onPersistError != nil {
		l.onPersistError(err)
	}
}

// Append computes the next record's hash, chains it to the current tip,
// appends it in memory, and — if backed by BoltDB — then persists it in
// its own BoltDB transaction. A failed persist does not undo the in-memory
// append (see OnPersistError):
//
//  1. prev = tip_hash (empty string initially)
//  2. bytes = canonical(seq, output, prev)
//  3. hash = hex_lower(SHA256(bytes))
//  4. append {seq, payload, prev_hash: prev, hash}; tip_hash = hash
func (l *Log) Append(seq uint64, payload Output) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.tip
	sum := sha256Hex(canonicalBytes(seq, payload, prev))
	rec := Record{Seq: seq, Payload: payload, PrevHash: prev, Hash: sum}

	l.records = append(l.records, rec)
	l.tip = rec.Hash

	if l.db != nil {
		data, err := json.Marshal(rec)
		if err != nil {
			l.recordPersistFailure(fmt.Errorf("eventlog: marshal seq %d: %w", seq, err))
		} else if err := l.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(bucketEvents))
			return b.Put(seqKey(seq), data)
		}); err != nil {
			l.recordPersistFailure(fmt.Errorf("eventlog: persist seq %d: %w", seq, err))
		}
	}

	return rec
}

// TipHash returns the hash of the newest record, or "" before any append.
func (l *Log) TipHash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tip
}

// Records returns a copy of the chain in append order. For inspection and
// tests; not called on the hot path.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// VerifyChain walks the records front to back and confirms: records[0].prev_hash
// == "", records[i].prev_hash == records[i-1].hash for i>0, and each
// record's hash matches a recomputation from its own fields. Returns the
// index of the first broken link, or -1 if the chain is intact.
func (l *Log) VerifyChain() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := ""
	for i, rec := range l.records {
		if rec.PrevHash != prev {
			return i
		}
		want := sha256Hex(canonicalBytes(rec.Seq, rec.Payload, rec.PrevHash))
		if rec.Hash != want {
			return i
		}
		prev = rec.Hash
	}
	return -1
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func sha256Hex(b []byte) string {
	sum := sha256Sum(b)
	return hex.EncodeToString(sum[:])
}
