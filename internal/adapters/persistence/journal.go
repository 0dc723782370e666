// Package persistence stores settlement records in an embedded bolt
// database so operators can audit past batches after a restart.
package persistence

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/metrics"
)

const (
	RecordsBucket = "records"

	DefaultDBPath = "./data/donation-engine.db"
)

// StoredRecord is the on-disk form of a settlement record. Amounts are
// decimal strings so arbitrarily large values round-trip.
type StoredRecord struct {
	GrantID   uint64   `json:"grantId"`
	Token     string   `json:"token"`
	Amount    string   `json:"amount"`
	Rounds    []string `json:"rounds"`
	SettledAt int64    `json:"settledAt"`
}

// Journal implements the engine's RecordEmitter port on top of bolt-db.
type Journal struct {
	db     *boltdb.BoltDatabase
	dbPath string
	seq    atomic.Uint64
}

func NewJournal(dbPath string) (*Journal, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	j := &Journal{db: db, dbPath: dbPath}

	// Resume key numbering past whatever is already on disk.
	existing, err := db.List(RecordsBucket)
	if err == nil {
		j.seq.Store(uint64(len(existing)))
	}

	log.Info().Str("path", dbPath).Uint64("records", j.seq.Load()).Msg("[settlementJournal] opened database")
	return j, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Emit appends one settlement record. Keys are zero-padded sequence
// numbers so bolt's lexicographic order matches settlement order.
func (j *Journal) Emit(_ context.Context, rec domain.SettlementRecord) error {
	stored := recordToStored(rec)
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := fmt.Sprintf("%020d", j.seq.Add(1))
	if err := j.db.Set(RecordsBucket, []byte(key), data); err != nil {
		metrics.JournalWriteFailures.Inc()
		return err
	}
	metrics.JournalWrites.Inc()
	return nil
}

// List returns every journaled record in settlement order.
func (j *Journal) List() ([]domain.SettlementRecord, error) {
	data, err := j.db.List(RecordsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]domain.SettlementRecord, 0, len(keys))
	failed := 0
	for _, key := range keys {
		var stored StoredRecord
		if err := sonic.Unmarshal(data[key], &stored); err != nil {
			log.Error().Str("key", key).Err(err).Msg("[settlementJournal] failed to unmarshal record, skipping")
			failed++
			continue
		}
		records = append(records, storedToRecord(&stored))
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(records)).
			Int("unmarshal_failed", failed).
			Msg("[settlementJournal] record loading completed with errors")
	}

	return records, nil
}

func (j *Journal) RecordCount() (int, error) {
	data, err := j.db.List(RecordsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func recordToStored(rec domain.SettlementRecord) *StoredRecord {
	amount := "0"
	if rec.Amount != nil {
		amount = rec.Amount.String()
	}

	rounds := make([]string, len(rec.Rounds))
	for i, round := range rec.Rounds {
		rounds[i] = round.Hex()
	}

	return &StoredRecord{
		GrantID:   rec.GrantID,
		Token:     rec.Token.Hex(),
		Amount:    amount,
		Rounds:    rounds,
		SettledAt: time.Now().Unix(),
	}
}

func storedToRecord(stored *StoredRecord) domain.SettlementRecord {
	amount := new(big.Int)
	amount.SetString(stored.Amount, 10)

	rounds := make([]common.Address, 0, len(stored.Rounds))
	for _, round := range stored.Rounds {
		rounds = append(rounds, common.HexToAddress(round))
	}

	return domain.SettlementRecord{
		GrantID: stored.GrantID,
		Token:   common.HexToAddress(stored.Token),
		Amount:  amount,
		Rounds:  rounds,
	}
}
