package outbound

import (
	"context"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
)

// AuctionArchive stores solved auctions. Archiving the same auction twice
// keeps the first copy.
type AuctionArchive interface {
	Archive(ctx context.Context, record *entity.AuctionRecord) error
}
