package storage

import (
	"context"

	"kanban-api/domain"
)

// Disabled stands in for a real store when no storage connection is
// configured. Reads report an empty board indirectly (the controller keeps
// its empty state) and writes surface domain.ErrStorageDisabled.
type Disabled struct{}

func (Disabled) FetchCards(context.Context) ([]domain.Card, error) {
	return nil, domain.ErrStorageDisabled
}

func (Disabled) InsertCard(context.Context, string, string, domain.Column, int) (domain.Card, error) {
	return domain.Card{}, domain.ErrStorageDisabled
}

func (Disabled) UpdateCard(context.Context, string, domain.CardUpdate) error {
	return domain.ErrStorageDisabled
}

func (Disabled) DeleteCard(context.Context, string) error {
	return domain.ErrStorageDisabled
}
