package file

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tradeforge/matching-engine/internal/logger"
	"github.com/tradeforge/matching-engine/internal/types"
)

// FileTradeStore implements TradeStore as an append-only JSON-lines
// audit log. Writes are asynchronous so the engine never waits on
// disk; Close drains every pending writer before closing the file.
// Reads return empty; layer an in-memory store in front via
// CompositeTradeStore for read access.
type FileTradeStore struct {
	file    *os.File
	encoder *json.Encoder
	mutex   sync.Mutex
	writers sync.WaitGroup
}

// NewFileTradeStore creates a new file-based trade store
func NewFileTradeStore(filePath string) (*FileTradeStore, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log: %w", err)
	}

	return &FileTradeStore{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

func (s *FileTradeStore) Save(trade *types.Trade) error {
	s.writers.Add(1)
	go func() {
		defer s.writers.Done()
		s.mutex.Lock()
		defer s.mutex.Unlock()
		s.encode(trade)
	}()
	return nil
}

func (s *FileTradeStore) SaveBatch(trades []*types.Trade) error {
	s.writers.Add(1)
	go func() {
		defer s.writers.Done()
		s.mutex.Lock()
		defer s.mutex.Unlock()
		for _, trade := range trades {
			s.encode(trade)
		}
	}()
	return nil
}

func (s *FileTradeStore) encode(trade *types.Trade) {
	if err := s.encoder.Encode(trade); err != nil {
		logger.Warn("Trade audit log write failed", map[string]interface{}{
			"trade_id": trade.TradeID,
			"error":    err.Error(),
		})
	}
}

func (s *FileTradeStore) GetRecent(limit int) ([]*types.Trade, error) {
	// Write-only audit log
	return []*types.Trade{}, nil
}

// Close waits for pending writers, then closes the log file
func (s *FileTradeStore) Close() error {
	s.writers.Wait()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}
