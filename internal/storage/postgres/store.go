// Package postgres implements Storage on PostgreSQL through pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"starkScope/internal/model"
	"starkScope/internal/storage"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for indexed token state.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Store)(nil)

// NewStore connects to dsn and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storage.Wrap("connect", errors.Join(storage.ErrUnavailable, err))
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// classify maps driver failures onto the storage sentinels.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Wrap(op, storage.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
			return storage.Wrap(op, errors.Join(storage.ErrInvalidInput, err))
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57"):
			return storage.Wrap(op, errors.Join(storage.ErrUnavailable, err))
		}
		return storage.Wrap(op, err)
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return storage.Wrap(op, errors.Join(storage.ErrUnavailable, err))
	}
	return storage.Wrap(op, err)
}

func nullableInt(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func (s *Store) RegisterMint(ctx context.Context, contractAddress, tokenIDHex string, info model.TokenMintInfo) error {
	if err := storage.ValidateToken(contractAddress, tokenIDHex); err != nil {
		return storage.Wrap("register_mint", err)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_mint (
			contract_address, token_id_hex, mint_address, mint_timestamp, mint_transaction_hash, block_number
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (contract_address, token_id_hex)
		DO UPDATE SET
			mint_address = EXCLUDED.mint_address,
			mint_timestamp = EXCLUDED.mint_timestamp,
			mint_transaction_hash = EXCLUDED.mint_transaction_hash,
			block_number = EXCLUDED.block_number
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token (
			contract_address, token_id, token_id_hex, current_owner, block_timestamp, updated_at
		) VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (contract_address, token_id_hex)
		DO UPDATE SET
			token_id = EXCLUDED.token_id,
			current_owner = EXCLUDED.current_owner,
			block_timestamp = EXCLUDED.block_timestamp,
			updated_at = now()
		WHERE token.block_timestamp <= EXCLUDED.block_timestamp
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_event (
			event_id, contract_address, contract_type, from_address, to_address, transaction_hash,
			token_id, token_id_hex, event_type, block_number, block_timestamp, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (event_id)
		DO UPDATE SET
			contract_type = EXCLUDED.contract_type,
			block_number = COALESCE(EXCLUDED.block_number, token_event.block_number),
			updated_at = now()
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
	row := s.pool.QueryRow(ctx, `SELECT contract_type FROM contract WHERE contract_address = $1`, contractAddress)
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contract (
			contract_address, contract_type, name, symbol, image, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (contract_address)
		DO UPDATE SET
			contract_type = EXCLUDED.contract_type,
			name = COALESCE(EXCLUDED.name, contract.name),
			symbol = COALESCE(EXCLUDED.symbol, contract.symbol),
			image = COALESCE(EXCLUDED.image, contract.image),
			created_at = LEAST(contract.created_at, EXCLUDED.created_at),
			updated_at = now()
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO memecoin_created_event (
			memecoin_address, owner, name, symbol, initial_supply, block_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6)
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_block (
			block_number, block_timestamp, indexer_version, indexer_identifier, status, updated_at
		) VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (block_number)
		DO UPDATE SET
			block_timestamp = EXCLUDED.block_timestamp,
			indexer_version = EXCLUDED.indexer_version,
			indexer_identifier = EXCLUDED.indexer_identifier,
			status = EXCLUDED.status,
			updated_at = now()
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
	row := s.pool.QueryRow(ctx, `
		SELECT indexer_version, indexer_identifier, status
		FROM indexer_block WHERE block_number = $1
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
	batch := &pgx.Batch{}
	if blockNumber != nil {
		batch.Queue(`DELETE FROM token_event WHERE block_number = $1`, int64(*blockNumber))
		batch.Queue(`DELETE FROM token_mint WHERE block_number = $1`, int64(*blockNumber))
	} else {
		batch.Queue(`DELETE FROM token_event WHERE block_number IS NULL AND block_timestamp = $1`, int64(blockTimestamp))
		batch.Queue(`DELETE FROM token_mint WHERE block_number IS NULL AND mint_timestamp = $1`, int64(blockTimestamp))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return classify("clean_block", err)
		}
	}
	return nil
}
