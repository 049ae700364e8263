package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"kanban-api/domain"
)

// boardPartition keys every card entity; the service manages a single board.
const boardPartition = "board"

// Storage persists cards in an Azure Table.
type Storage struct {
	cards *aztables.Client
}

// New creates a Storage for the given connection string and table name.
func New(connStr, table string) (*Storage, error) {
	clientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &clientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{cards: svc.NewClient(table)}, nil
}

type cardEntity struct {
	aztables.Entity
	Title    string `json:"Title"`
	Content  string `json:"Content"`
	Column   string `json:"Column"`
	Position int    `json:"Position"`
}

// cardUpdateEntity carries a partial merge update; nil fields stay untouched.
type cardUpdateEntity struct {
	PartitionKey string  `json:"PartitionKey"`
	RowKey       string  `json:"RowKey"`
	Title        *string `json:"Title,omitempty"`
	Content      *string `json:"Content,omitempty"`
	Column       *string `json:"Column,omitempty"`
	Position     *int    `json:"Position,omitempty"`
}

func decodeCardEntity(data []byte) (domain.Card, error) {
	var ent cardEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Card{}, err
	}
	return domain.Card{
		ID:       ent.RowKey,
		Title:    ent.Title,
		Content:  ent.Content,
		Column:   domain.Column(ent.Column),
		Position: ent.Position,
	}, nil
}

func sortByPosition(cards []domain.Card) {
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Position < cards[j].Position })
}

// FetchCards retrieves every card on the board, sorted by ascending position.
func (s *Storage) FetchCards(ctx context.Context) ([]domain.Card, error) {
	filter := "PartitionKey eq '" + boardPartition + "'"
	pager := s.cards.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	cards := []domain.Card{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			card, err := decodeCardEntity(e)
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
		}
	}
	sortByPosition(cards)
	return cards, nil
}

// InsertCard persists a new card and returns it with its assigned id.
func (s *Storage) InsertCard(ctx context.Context, title, content string, column domain.Column, position int) (domain.Card, error) {
	id := uuid.NewString()
	ent := cardEntity{
		Entity:   aztables.Entity{PartitionKey: boardPartition, RowKey: id},
		Title:    title,
		Content:  content,
		Column:   string(column),
		Position: position,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Card{}, err
	}
	if _, err := s.cards.AddEntity(ctx, payload, nil); err != nil {
		return domain.Card{}, err
	}
	return domain.Card{ID: id, Title: title, Content: content, Column: column, Position: position}, nil
}

// UpdateCard merges the given fields into the card with the given id.
func (s *Storage) UpdateCard(ctx context.Context, id string, upd domain.CardUpdate) error {
	ent := cardUpdateEntity{
		PartitionKey: boardPartition,
		RowKey:       id,
		Title:        upd.Title,
		Content:      upd.Content,
		Position:     upd.Position,
	}
	if upd.Column != nil {
		col := string(*upd.Column)
		ent.Column = &col
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.cards.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return translateNotFound(err)
}

// DeleteCard removes the card with the given id.
func (s *Storage) DeleteCard(ctx context.Context, id string) error {
	_, err := s.cards.DeleteEntity(ctx, boardPartition, id, nil)
	return translateNotFound(err)
}

func translateNotFound(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 404 {
		return domain.ErrNotFound
	}
	return err
}
