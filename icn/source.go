package icn

import (
	"context"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

// Snapshot is one read of the export.
type Snapshot struct {
	Items  []model.RawItem
	Digest string
	Origin string
}

// Source yields the raw export for a load.
type Source interface {
	Read(ctx context.Context) (Snapshot, error)
}

type FileSource struct {
	Path string
}

func (s FileSource) Read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	items, digest, err := ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Items: items, Digest: digest, Origin: s.Path}, nil
}

func (c *Client) Read(ctx context.Context) (Snapshot, error) {
	items, digest, err := c.Fetch(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Items: items, Digest: digest, Origin: c.url}, nil
}

// StaticSource serves items held in memory.
type StaticSource []model.RawItem

func (s StaticSource) Read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Items: []model.RawItem(s), Origin: "memory"}, nil
}
