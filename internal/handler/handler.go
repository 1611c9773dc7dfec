// Package handler defines the indexing progress observer and its stock implementations.
package handler

import (
	"go.uber.org/zap"

	"starkScope/internal/model"
)

// EventHandler receives progress notifications. Calls are best effort and
// must return quickly; wrap slow implementations with NewAsync.
type EventHandler interface {
	OnBlockProcessing(blockTimestamp uint64, blockNumber *uint64)
	OnBlockProcessed(blockNumber uint64, progress float64)
	OnNewLatestBlock(blockNumber uint64)
	OnIndexationRangeCompleted()
	OnTokenRegistered(token model.TokenInfo)
	OnEventRegistered(event model.TokenEvent)
}

// Nop ignores every notification.
type Nop struct{}

var _ EventHandler = Nop{}

func (Nop) OnBlockProcessing(uint64, *uint64) {}
func (Nop) OnBlockProcessed(uint64, float64) {}
func (Nop) OnNewLatestBlock(uint64) {}
func (Nop) OnIndexationRangeCompleted() {}
func (Nop) OnTokenRegistered(model.TokenInfo) {}
func (Nop) OnEventRegistered(model.TokenEvent) {}

// Logging writes every notification to a zap logger.
type Logging struct {
	logger *zap.Logger
}

var _ EventHandler = (*Logging)(nil)

func NewLogging(logger *zap.Logger) *Logging {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logging{logger: logger}
}

func (h *Logging) OnBlockProcessing(blockTimestamp uint64, blockNumber *uint64) {
	fields := []zap.Field{zap.Uint64("block_timestamp", blockTimestamp)}
	if blockNumber != nil {
		fields = append(fields, zap.Uint64("block_number", *blockNumber))
	} else {
		fields = append(fields, zap.Bool("pending", true))
	}
	h.logger.Info("processing block", fields...)
}

func (h *Logging) OnBlockProcessed(blockNumber uint64, progress float64) {
	h.logger.Info("block processed", zap.Uint64("block_number", blockNumber), zap.Float64("progress", progress))
}

func (h *Logging) OnNewLatestBlock(blockNumber uint64) {
	h.logger.Info("new latest block", zap.Uint64("block_number", blockNumber))
}

func (h *Logging) OnIndexationRangeCompleted() {
	h.logger.Info("indexation range completed")
}

func (h *Logging) OnTokenRegistered(token model.TokenInfo) {
	h.logger.Debug("token registered",
		zap.String("contract", token.ContractAddress),
		zap.String("token_id", token.TokenID),
		zap.String("owner", token.Owner),
	)
}

func (h *Logging) OnEventRegistered(event model.TokenEvent) {
	h.logger.Debug("event registered",
		zap.String("event_id", event.EventID),
		zap.String("contract", event.ContractAddress),
		zap.String("type", string(event.EventType)),
		zap.String("token_id", event.TokenID),
	)
}
