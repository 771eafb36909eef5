package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// MockChainStateReader implements outbound.ChainStateReader for testing.
// Pairs are served from Pairs keyed by vault address unless ReadFn is set;
// Errs forces a failure for a given asset.
type MockChainStateReader struct {
	mu     sync.Mutex
	ReadFn func(ctx context.Context, asset, vault common.Address) (*entity.VaultPair, error)
	Pairs  map[common.Address]*entity.VaultPair
	Errs   map[common.Address]error
	reads  []common.Address
}

func NewMockChainStateReader() *MockChainStateReader {
	return &MockChainStateReader{
		Pairs: make(map[common.Address]*entity.VaultPair),
		Errs:  make(map[common.Address]error),
	}
}

func (m *MockChainStateReader) ReadVaultPair(ctx context.Context, asset, vault common.Address) (*entity.VaultPair, error) {
	m.mu.Lock()
	m.reads = append(m.reads, asset)
	readFn := m.ReadFn
	err := m.Errs[asset]
	pair, ok := m.Pairs[vault]
	m.mu.Unlock()

	if readFn != nil {
		return readFn(ctx, asset, vault)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("ReadVaultPair not mocked for vault " + vault.Hex())
	}
	p := *pair
	p.Asset.Address = asset
	return &p, nil
}

// Reads returns the number of ReadVaultPair calls made so far.
func (m *MockChainStateReader) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reads)
}
