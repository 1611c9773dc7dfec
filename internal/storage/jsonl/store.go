// Package jsonl provides an append-only JSONL journal Storage. Reads are
// served from an in-memory index rebuilt from the journal at open.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"starkScope/internal/model"
	"starkScope/internal/storage"
	"starkScope/internal/storage/memory"
)

const (
	kindMint      = "mint"
	kindToken     = "token"
	kindEvent     = "event"
	kindContract  = "contract"
	kindMemecoin  = "memecoin_created"
	kindBlockInfo = "block_info"
	kindClean     = "clean_block"
)

type record struct {
	Kind            string          `json:"kind"`
	BlockTimestamp  uint64          `json:"block_timestamp,omitempty"`
	BlockNumber     *uint64         `json:"block_number,omitempty"`
	ContractAddress string          `json:"contract_address,omitempty"`
	TokenIDHex      string          `json:"token_id_hex,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// Store appends every write to a JSONL file. A record is committed once its
// line, newline included, is flushed; only committed records reach the index.
type Store struct {
	path   string
	index  *memory.Store
	logger *zap.Logger

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	// size is the journal length up to the last committed line.
	size int64
}

var _ storage.Storage = (*Store)(nil)

// Open replays the journal at path, creating it if missing, and opens it for
// append. A torn final line left by an interrupted write is cut off.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	s := &Store{path: path, index: memory.New(), logger: logger}
	size, err := s.replay()
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	s.file = file
	s.writer = bufio.NewWriter(file)
	s.size = size
	return s, nil
}

// Close flushes and closes the journal.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	s.file = nil
	return errors.Join(flushErr, closeErr)
}

// Index exposes the in-memory view of the journal.
func (s *Store) Index() *memory.Store {
	return s.index
}

// replay applies every committed line and returns the journal size to
// append after. A line that lacks its newline or does not parse is torn; it
// is tolerated only as the last non-blank line and is then truncated away.
func (s *Store) replay() (int64, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 64*1024)
	var (
		read      int64
		committed int64
		line      int
		torn      error
		tornLine  int
	)
	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(raw) > 0 {
			line++
			read += int64(len(raw))
			complete := raw[len(raw)-1] == '\n'
			content := bytes.TrimSpace(raw)

			switch {
			case len(content) == 0:
				if torn == nil {
					committed = read
				}
			case torn != nil:
				return 0, fmt.Errorf("journal line %d: %w", tornLine, torn)
			default:
				var rec record
				err := json.Unmarshal(content, &rec)
				if err == nil && !complete {
					err = errors.New("missing newline")
				}
				if err != nil {
					torn, tornLine = err, line
					break
				}
				if err := s.apply(context.Background(), rec); err != nil {
					return 0, fmt.Errorf("journal line %d: %w", line, err)
				}
				committed = read
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return 0, fmt.Errorf("read journal: %w", readErr)
		}
	}

	if torn == nil {
		return read, nil
	}
	s.logger.Warn("truncating torn journal tail",
		zap.String("path", s.path),
		zap.Int("line", tornLine),
		zap.Int64("offset", committed),
		zap.Error(torn),
	)
	if err := os.Truncate(s.path, committed); err != nil {
		return 0, fmt.Errorf("truncate journal: %w", err)
	}
	return committed, nil
}

func (s *Store) apply(ctx context.Context, rec record) error {
	switch rec.Kind {
	case kindMint:
		var info model.TokenMintInfo
		if err := json.Unmarshal(rec.Payload, &info); err != nil {
			return err
		}
		return s.index.RegisterMint(ctx, rec.ContractAddress, rec.TokenIDHex, info)
	case kindToken:
		var token model.TokenInfo
		if err := json.Unmarshal(rec.Payload, &token); err != nil {
			return err
		}
		return s.index.RegisterToken(ctx, token, rec.BlockTimestamp)
	case kindEvent:
		var event model.TokenEvent
		if err := json.Unmarshal(rec.Payload, &event); err != nil {
			return err
		}
		return s.index.RegisterEvent(ctx, event, rec.BlockTimestamp)
	case kindContract:
		var info model.ContractInfo
		if err := json.Unmarshal(rec.Payload, &info); err != nil {
			return err
		}
		return s.index.RegisterContractInfo(ctx, info, rec.BlockTimestamp)
	case kindMemecoin:
		var event model.MemecoinCreatedEvent
		if err := json.Unmarshal(rec.Payload, &event); err != nil {
			return err
		}
		return s.index.RegisterMemecoinCreatedEvent(ctx, event, rec.BlockTimestamp)
	case kindBlockInfo:
		var info model.BlockInfo
		if err := json.Unmarshal(rec.Payload, &info); err != nil {
			return err
		}
		if rec.BlockNumber == nil {
			return errors.New("block info without block number")
		}
		return s.index.SetBlockInfo(ctx, *rec.BlockNumber, rec.BlockTimestamp, info)
	case kindClean:
		return s.index.CleanBlock(ctx, rec.BlockTimestamp, rec.BlockNumber)
	default:
		return fmt.Errorf("unknown record kind %q", rec.Kind)
	}
}

// validate rejects what the index would reject, before anything is journaled.
func validate(rec record, payload interface{}) error {
	switch p := payload.(type) {
	case model.TokenMintInfo:
		return storage.ValidateToken(rec.ContractAddress, rec.TokenIDHex)
	case model.TokenInfo:
		return storage.ValidateToken(p.ContractAddress, p.TokenIDHex)
	case model.TokenEvent:
		return storage.ValidateEvent(p)
	case model.ContractInfo:
		return storage.ValidateContract(p.ContractAddress)
	case model.MemecoinCreatedEvent:
		return storage.ValidateContract(p.MemecoinAddress)
	}
	return nil
}

// write journals rec and then applies it to the index.
func (s *Store) write(ctx context.Context, op string, rec record, payload interface{}) error {
	if err := validate(rec, payload); err != nil {
		return storage.Wrap(op, err)
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return storage.Wrap(op, fmt.Errorf("marshal %s: %w", rec.Kind, err))
		}
		rec.Payload = raw
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return storage.Wrap(op, fmt.Errorf("marshal record: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return storage.Wrap(op, fmt.Errorf("%w: journal closed", storage.ErrUnavailable))
	}
	if err := s.append(line); err != nil {
		return storage.Wrap(op, errors.Join(storage.ErrUnavailable, err))
	}
	if err := s.apply(ctx, rec); err != nil {
		return storage.Wrap(op, err)
	}
	return nil
}

// append writes and flushes one line. On failure the journal is cut back to
// its last committed size so no partial line is left behind.
func (s *Store) append(line []byte) error {
	_, err := s.writer.Write(line)
	if err == nil {
		err = s.writer.WriteByte('\n')
	}
	if err == nil {
		err = s.writer.Flush()
	}
	if err == nil {
		s.size += int64(len(line)) + 1
		return nil
	}

	s.writer.Reset(s.file)
	if truncErr := s.file.Truncate(s.size); truncErr != nil {
		return errors.Join(err, fmt.Errorf("truncate journal: %w", truncErr))
	}
	return err
}

func (s *Store) RegisterMint(ctx context.Context, contractAddress, tokenIDHex string, info model.TokenMintInfo) error {
	return s.write(ctx, "register_mint", record{
		Kind:            kindMint,
		ContractAddress: contractAddress,
		TokenIDHex:      tokenIDHex,
	}, info)
}

func (s *Store) RegisterToken(ctx context.Context, token model.TokenInfo, blockTimestamp uint64) error {
	return s.write(ctx, "register_token", record{Kind: kindToken, BlockTimestamp: blockTimestamp}, token)
}

func (s *Store) RegisterEvent(ctx context.Context, event model.TokenEvent, blockTimestamp uint64) error {
	return s.write(ctx, "register_event", record{Kind: kindEvent, BlockTimestamp: blockTimestamp}, event)
}

func (s *Store) GetContractType(ctx context.Context, contractAddress string) (model.ContractType, error) {
	return s.index.GetContractType(ctx, contractAddress)
}

func (s *Store) RegisterContractInfo(ctx context.Context, info model.ContractInfo, blockTimestamp uint64) error {
	return s.write(ctx, "register_contract_info", record{Kind: kindContract, BlockTimestamp: blockTimestamp}, info)
}

func (s *Store) RegisterMemecoinCreatedEvent(ctx context.Context, event model.MemecoinCreatedEvent, blockTimestamp uint64) error {
	return s.write(ctx, "register_memecoin_created_event", record{Kind: kindMemecoin, BlockTimestamp: blockTimestamp}, event)
}

func (s *Store) SetBlockInfo(ctx context.Context, blockNumber, blockTimestamp uint64, info model.BlockInfo) error {
	info.BlockNumber = blockNumber
	return s.write(ctx, "set_block_info", record{
		Kind:           kindBlockInfo,
		BlockTimestamp: blockTimestamp,
		BlockNumber:    &blockNumber,
	}, info)
}

func (s *Store) GetBlockInfo(ctx context.Context, blockNumber uint64) (model.BlockInfo, error) {
	return s.index.GetBlockInfo(ctx, blockNumber)
}

func (s *Store) CleanBlock(ctx context.Context, blockTimestamp uint64, blockNumber *uint64) error {
	return s.write(ctx, "clean_block", record{
		Kind:           kindClean,
		BlockTimestamp: blockTimestamp,
		BlockNumber:    blockNumber,
	}, nil)
}
