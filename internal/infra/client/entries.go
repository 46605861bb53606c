package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// entryID accepts ids sent as JSON strings or numbers.
type entryID string

func (id *entryID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = entryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = entryID(n.String())
	return nil
}

// apiEntry is the backend representation of an entry. Depending on the
// backend the identifier arrives as "_id" or "id".
type apiEntry struct {
	MongoID   entryID         `json:"_id"`
	ID        entryID         `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	Timestamp string          `json:"timestamp"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	domain.DateLayout,
}

func (e apiEntry) toDomain() domain.Entry {
	id := string(e.MongoID)
	if id == "" {
		id = string(e.ID)
	}

	var ts time.Time
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, e.Timestamp); err == nil {
			ts = t
			break
		}
	}

	return domain.Entry{
		ID:        id,
		Type:      domain.EntryType(e.Type),
		Amount:    e.Amount,
		Note:      e.Note,
		Timestamp: ts,
	}
}

// createEntryBody is the body for POST /api/entries. The amount goes out
// as a JSON number.
type createEntryBody struct {
	Type      domain.EntryType `json:"type"`
	Amount    json.Number      `json:"amount"`
	Note      string           `json:"note"`
	Timestamp string           `json:"timestamp"`
}

// ListEntries fetches every entry visible to the token.
func (c *Client) ListEntries(ctx context.Context, token string) ([]domain.Entry, error) {
	ctx, span := tracer.Start(ctx, "Client.ListEntries")
	defer span.End()

	var rows []apiEntry
	if _, err := c.Do(ctx, "/entries", RequestOptions{Token: token, Operation: "list_entries"}, &rows); err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toDomain())
	}
	span.SetAttributes(attribute.Int("entries.count", len(entries)))
	return entries, nil
}

// CreateEntry posts a validated entry and returns the stored copy,
// including the backend-assigned id.
func (c *Client) CreateEntry(ctx context.Context, token string, entry *domain.NewEntry) (*domain.Entry, error) {
	ctx, span := tracer.Start(ctx, "Client.CreateEntry")
	defer span.End()
	span.SetAttributes(attribute.String("entry.type", string(entry.Type)))

	body := createEntryBody{
		Type:      entry.Type,
		Amount:    json.Number(entry.Amount.String()),
		Note:      entry.Note,
		Timestamp: entry.Timestamp,
	}

	var created apiEntry
	ok, err := c.Do(ctx, "/entries", RequestOptions{
		Method:    http.MethodPost,
		Body:      body,
		Token:     token,
		Operation: "create_entry",
	}, &created)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.ErrUnexpectedResponse{Operation: "create entry"}
	}

	e := created.toDomain()
	return &e, nil
}

// DeleteEntry removes an entry by id. Both 204 and an echoed entry count as success.
func (c *Client) DeleteEntry(ctx context.Context, token, id string) error {
	ctx, span := tracer.Start(ctx, "Client.DeleteEntry")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", id))

	_, err := c.Do(ctx, "/entries/"+url.PathEscape(id), RequestOptions{
		Method:    http.MethodDelete,
		Token:     token,
		Operation: "delete_entry",
	}, nil)
	return err
}
