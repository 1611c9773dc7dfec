package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"starkScope/internal/chain"
	"starkScope/internal/config"
	"starkScope/internal/events"
	"starkScope/internal/model"
)

// rawEvent is one input line: an emitted event as served by
// starknet_getEvents plus the timestamp of its block.
type rawEvent struct {
	chain.EmittedEvent
	BlockTimestamp uint64 `json:"block_timestamp"`
}

type recordWriter interface {
	Write(value interface{}) error
}

type decodeStats struct {
	total   int
	decoded int
	skipped int
	failed  int
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	contractType, err := model.ParseContractType(cfg.ContractType)
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := newJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("contract_type", string(contractType)),
	)

	stats, err := decodeStream(inputFile, outWriter, errWriter, contractType)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)

	return nil
}

// decodeStream classifies every event read from in. Transfers become token
// events on out; malformed lines and transfers that fail to decode go to
// errs. Other events are counted as skipped.
func decodeStream(in io.Reader, out, errs recordWriter, contractType model.ContractType) (decodeStats, error) {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var stats decodeStats
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		var raw rawEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			stats.failed++
			writeDecodeError(errs, model.DecodeError{Error: err.Error()})
			continue
		}

		if events.Classify(raw.EmittedEvent) != events.KindTransfer {
			stats.skipped++
			continue
		}

		transfer, err := events.DecodeTransfer(raw.Data)
		if err != nil {
			stats.failed++
			writeDecodeError(errs, decodeErrorFromEvent(raw.EmittedEvent, err))
			continue
		}

		tokenEvent := events.BuildTokenEvent(raw.EmittedEvent, transfer, contractType, raw.BlockTimestamp)
		if err := out.Write(tokenEvent); err != nil {
			return stats, err
		}
		stats.decoded++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func decodeErrorFromEvent(ev chain.EmittedEvent, err error) model.DecodeError {
	selector := ""
	if len(ev.Keys) > 0 {
		selector = ev.Keys[0].Hex()
	}

	return model.DecodeError{
		BlockNumber:     ev.BlockNumber,
		TransactionHash: ev.TransactionHash.Hex(),
		FromAddress:     ev.FromAddress.Hex(),
		Selector:        selector,
		Error:           err.Error(),
	}
}

func writeDecodeError(writer recordWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
