// Package sqlite implements Storage on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"starkScope/internal/model"
	"starkScope/internal/storage"
)

// Store persists indexed token state in SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Storage = (*Store)(nil)

// Open opens (or creates) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf(
		"file:%s?_txlock=immediate&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=30000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Wrap(op, storage.ErrNotFound)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrTooBig:
			return storage.Wrap(op, errors.Join(storage.ErrInvalidInput, err))
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrFull:
			return storage.Wrap(op, errors.Join(storage.ErrUnavailable, err))
		}
	}
	return storage.Wrap(op, err)
}

func nullableInt(v *uint64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func (s *Store) RegisterMint(ctx context.Context, contractAddress, tokenIDHex string, info model.TokenMintInfo) error {
	if err := storage.ValidateToken(contractAddress, tokenIDHex); err != nil {
		return storage.Wrap("register_mint", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_mint (
			contract_address, token_id_hex, mint_address, mint_timestamp, mint_transaction_hash, block_number
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (contract_address, token_id_hex)
		DO UPDATE SET
			mint_address = excluded.mint_address,
			mint_timestamp = excluded.mint_timestamp,
			mint_transaction_hash = excluded.mint_transaction_hash,
			block_number = excluded.block_number
	`,
		contractAddress,
		tokenIDHex,
		info.Address,
		int64(info.Timestamp),
		info.TransactionHash,
		nullableInt(info.BlockNumber),
	)
	return classify("register_mint", err)
}

func (s *Store) RegisterToken(ctx context.Context, token model.TokenInfo, blockTimestamp uint64) error {
	if err := storage.ValidateToken(token.ContractAddress, token.TokenIDHex); err != nil {
		return storage.Wrap("register_token", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token (
			contract_address, token_id, token_id_hex, current_owner, block_timestamp
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (contract_address, token_id_hex)
		DO UPDATE SET
			token_id = excluded.token_id,
			current_owner = excluded.current_owner,
			block_timestamp = excluded.block_timestamp
		WHERE token.block_timestamp <= excluded.block_timestamp
	`,
		token.ContractAddress,
		token.TokenID,
		token.TokenIDHex,
		token.Owner,
		int64(blockTimestamp),
	)
	return classify("register_token", err)
}

func (s *Store) RegisterEvent(ctx context.Context, event model.TokenEvent, blockTimestamp uint64) error {
	if err := storage.ValidateEvent(event); err != nil {
		return storage.Wrap("register_event", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_event (
			event_id, contract_address, contract_type, from_address, to_address, transaction_hash,
			token_id, token_id_hex, event_type, block_number, block_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id)
		DO UPDATE SET
			contract_type = excluded.contract_type,
			block_number = COALESCE(excluded.block_number, token_event.block_number)
	`,
		event.EventID,
		event.ContractAddress,
		string(event.ContractType),
		event.FromAddress,
		event.ToAddress,
		event.TransactionHash,
		event.TokenID,
		event.TokenIDHex,
		string(event.EventType),
		nullableInt(event.BlockNumber),
		int64(blockTimestamp),
	)
	return classify("register_event", err)
}

func (s *Store) GetContractType(ctx context.Context, contractAddress string) (model.ContractType, error) {
	var raw string
	row := s.db.QueryRowContext(ctx, `SELECT contract_type FROM contract WHERE contract_address = ?`, contractAddress)
	if err := row.Scan(&raw); err != nil {
		return "", classify("get_contract_type", err)
	}
	ct, err := model.ParseContractType(raw)
	if err != nil {
		return "", storage.Wrap("get_contract_type", err)
	}
	return ct, nil
}

func (s *Store) RegisterContractInfo(ctx context.Context, info model.ContractInfo, blockTimestamp uint64) error {
	if err := storage.ValidateContract(info.ContractAddress); err != nil {
		return storage.Wrap("register_contract_info", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contract (
			contract_address, contract_type, name, symbol, image, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (contract_address)
		DO UPDATE SET
			contract_type = excluded.contract_type,
			name = COALESCE(excluded.name, contract.name),
			symbol = COALESCE(excluded.symbol, contract.symbol),
			image = COALESCE(excluded.image, contract.image),
			created_at = MIN(contract.created_at, excluded.created_at)
	`,
		info.ContractAddress,
		string(info.ContractType),
		info.Name,
		info.Symbol,
		info.Image,
		int64(blockTimestamp),
	)
	return classify("register_contract_info", err)
}

func (s *Store) RegisterMemecoinCreatedEvent(ctx context.Context, event model.MemecoinCreatedEvent, blockTimestamp uint64) error {
	if err := storage.ValidateContract(event.MemecoinAddress); err != nil {
		return storage.Wrap("register_memecoin_created_event", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memecoin_created_event (
			memecoin_address, owner, name, symbol, initial_supply, block_timestamp
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (memecoin_address) DO NOTHING
	`,
		event.MemecoinAddress,
		event.Owner,
		event.Name,
		event.Symbol,
		event.InitialSupply,
		int64(blockTimestamp),
	)
	return classify("register_memecoin_created_event", err)
}

func (s *Store) SetBlockInfo(ctx context.Context, blockNumber, blockTimestamp uint64, info model.BlockInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO indexer_block (
			block_number, block_timestamp, indexer_version, indexer_identifier, status
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (block_number)
		DO UPDATE SET
			block_timestamp = excluded.block_timestamp,
			indexer_version = excluded.indexer_version,
			indexer_identifier = excluded.indexer_identifier,
			status = excluded.status
	`,
		int64(blockNumber),
		int64(blockTimestamp),
		info.IndexerVersion,
		info.IndexerIdentifier,
		string(info.Status),
	)
	return classify("set_block_info", err)
}

func (s *Store) GetBlockInfo(ctx context.Context, blockNumber uint64) (model.BlockInfo, error) {
	var (
		info   model.BlockInfo
		status string
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT indexer_version, indexer_identifier, status
		FROM indexer_block WHERE block_number = ?
	`, int64(blockNumber))
	if err := row.Scan(&info.IndexerVersion, &info.IndexerIdentifier, &status); err != nil {
		return model.BlockInfo{}, classify("get_block_info", err)
	}
	parsed, err := model.ParseBlockIndexingStatus(status)
	if err != nil {
		return model.BlockInfo{}, storage.Wrap("get_block_info", err)
	}
	info.Status = parsed
	info.BlockNumber = blockNumber
	return info, nil
}

func (s *Store) CleanBlock(ctx context.Context, blockTimestamp uint64, blockNumber *uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("clean_block", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var stmts []string
	var arg int64
	if blockNumber != nil {
		arg = int64(*blockNumber)
		stmts = []string{
			`DELETE FROM token_event WHERE block_number = ?`,
			`DELETE FROM token_mint WHERE block_number = ?`,
		}
	} else {
		arg = int64(blockTimestamp)
		stmts = []string{
			`DELETE FROM token_event WHERE block_number IS NULL AND block_timestamp = ?`,
			`DELETE FROM token_mint WHERE block_number IS NULL AND mint_timestamp = ?`,
		}
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, arg); err != nil {
			return classify("clean_block", err)
		}
	}
	return classify("clean_block", tx.Commit())
}
