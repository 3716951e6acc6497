package workblock

import (
	"context"
	"io"
)

type WorkBlockService interface {
	// CreateBlock is direct entry. Admins may enter blocks for anyone; other
	// callers only for themselves.
	CreateBlock(ctx context.Context, req CreateWorkBlockRequest) (WorkBlockResponse, error)
	GetBlock(ctx context.Context, id string) (WorkBlockResponse, error)
	UpdateBlock(ctx context.Context, req UpdateWorkBlockRequest) (WorkBlockResponse, error)
	DeleteBlock(ctx context.Context, id string) error
	ListBlocks(ctx context.Context, filter WorkBlockFilter) (ListWorkBlockResponse, error)
	ListMyBlocks(ctx context.Context, filter WorkBlockFilter) (ListWorkBlockResponse, error)
}

type ImportService interface {
	Import(ctx context.Context, rows []ImportRow) (ImportResult, error)

	// ImportCSV parses a time clock export, archives it and imports its rows.
	ImportCSV(ctx context.Context, filename string, r io.Reader) (ImportResult, error)
}
