package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

// PostgresStore persists ItemCollections as JSONB documents, per the schema
// in internal/store/migrations/. One row holds the whole normalized item
// map; $uniqueid and $type are promoted to indexed columns for fast
// lookup/filtering.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an already-open *sqlx.DB.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open opens a Postgres connection pool via lib/pq and wraps it in sqlx.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, apperrors.AccessDenied("store", fmt.Sprintf("connect postgres: %v", err))
	}
	return NewPostgresStore(db), nil
}

type documentRow struct {
	UniqueID string `db:"unique_id"`
	DocType  string `db:"doc_type"`
	Modified string `db:"modified"`
	Payload  []byte `db:"payload"`
}

func encodeDocument(doc *itemcollection.ItemCollection) ([]byte, error) {
	items := make(map[string][]map[string]any)
	for _, name := range doc.ItemNames() {
		values := doc.GetItemValue(name)
		encoded := make([]map[string]any, 0, len(values))
		for _, v := range values {
			ev, err := encodeValue(v)
			if err != nil {
				return nil, err
			}
			encoded = append(encoded, ev)
		}
		items[name] = encoded
	}
	return json.Marshal(items)
}

// encodeValue renders a Value as a {"kind", "value"} pair that round-trips
// through decodeValue without collapsing to a string, preserving Kind.
func encodeValue(v itemcollection.Value) (map[string]any, error) {
	switch v.Kind {
	case itemcollection.KindString:
		return map[string]any{"kind": int(v.Kind), "value": v.Str}, nil
	case itemcollection.KindInt64:
		return map[string]any{"kind": int(v.Kind), "value": v.I64}, nil
	case itemcollection.KindFloat64:
		return map[string]any{"kind": int(v.Kind), "value": v.F64}, nil
	case itemcollection.KindDecimal:
		return map[string]any{"kind": int(v.Kind), "value": v.Dec.String()}, nil
	case itemcollection.KindBool:
		return map[string]any{"kind": int(v.Kind), "value": v.Boolean}, nil
	case itemcollection.KindInstant:
		return map[string]any{"kind": int(v.Kind), "value": v.Instant.Format(time.RFC3339Nano)}, nil
	case itemcollection.KindBytes:
		return map[string]any{"kind": int(v.Kind), "value": base64.StdEncoding.EncodeToString(v.Bytes)}, nil
	case itemcollection.KindList:
		encoded := make([]map[string]any, len(v.List))
		for i, e := range v.List {
			em, err := encodeValue(e)
			if err != nil {
				return nil, err
			}
			encoded[i] = em
		}
		return map[string]any{"kind": int(v.Kind), "value": encoded}, nil
	case itemcollection.KindMap:
		encoded := make(map[string][]map[string]any, len(v.Map))
		for k, vs := range v.Map {
			el := make([]map[string]any, len(vs))
			for i, e := range vs {
				em, err := encodeValue(e)
				if err != nil {
					return nil, err
				}
				el[i] = em
			}
			encoded[k] = el
		}
		return map[string]any{"kind": int(v.Kind), "value": encoded}, nil
	default:
		return nil, fmt.Errorf("encode value: unknown kind %d", int(v.Kind))
	}
}

func decodeDocument(payload []byte) (*itemcollection.ItemCollection, error) {
	var raw map[string][]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	doc := itemcollection.New()
	for name, values := range raw {
		vals := make([]itemcollection.Value, 0, len(values))
		for _, rv := range values {
			v, err := decodeValue(rv)
			if err != nil {
				return nil, fmt.Errorf("decode item %q: %w", name, err)
			}
			vals = append(vals, v)
		}
		doc.SetRawValues(name, vals)
	}
	return doc, nil
}

// decodeValue reconstructs the Value variant named by raw["kind"], the
// inverse of encodeValue.
func decodeValue(raw map[string]any) (itemcollection.Value, error) {
	kindF, ok := raw["kind"].(float64)
	if !ok {
		return itemcollection.Value{}, fmt.Errorf("value missing numeric kind")
	}
	kind := itemcollection.Kind(int(kindF))
	switch kind {
	case itemcollection.KindString:
		s, _ := raw["value"].(string)
		return itemcollection.VString(s), nil
	case itemcollection.KindInt64:
		f, _ := raw["value"].(float64)
		return itemcollection.VInt64(int64(f)), nil
	case itemcollection.KindFloat64:
		f, _ := raw["value"].(float64)
		return itemcollection.VFloat64(f), nil
	case itemcollection.KindDecimal:
		s, _ := raw["value"].(string)
		d, err := decimal.NewFromString(s)
		if err != nil {
			return itemcollection.Value{}, err
		}
		return itemcollection.VDecimal(d), nil
	case itemcollection.KindBool:
		b, _ := raw["value"].(bool)
		return itemcollection.VBool(b), nil
	case itemcollection.KindInstant:
		s, _ := raw["value"].(string)
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return itemcollection.Value{}, err
		}
		return itemcollection.VInstant(t), nil
	case itemcollection.KindBytes:
		s, _ := raw["value"].(string)
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return itemcollection.Value{}, err
		}
		return itemcollection.VBytes(b), nil
	case itemcollection.KindList:
		rawList, _ := raw["value"].([]any)
		out := make([]itemcollection.Value, 0, len(rawList))
		for _, e := range rawList {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			v, err := decodeValue(em)
			if err != nil {
				return itemcollection.Value{}, err
			}
			out = append(out, v)
		}
		return itemcollection.VList(out), nil
	case itemcollection.KindMap:
		rawMap, _ := raw["value"].(map[string]any)
		out := make(map[string][]itemcollection.Value, len(rawMap))
		for k, vs := range rawMap {
			vsList, ok := vs.([]any)
			if !ok {
				continue
			}
			items := make([]itemcollection.Value, 0, len(vsList))
			for _, e := range vsList {
				em, ok := e.(map[string]any)
				if !ok {
					continue
				}
				v, err := decodeValue(em)
				if err != nil {
					return itemcollection.Value{}, err
				}
				items = append(items, v)
			}
			out[k] = items
		}
		return itemcollection.VMap(out), nil
	default:
		return itemcollection.Value{}, fmt.Errorf("decode value: unknown kind %d", int(kindF))
	}
}

// Save implements DocumentStore via an upsert on unique_id.
func (s *PostgresStore) Save(ctx context.Context, doc *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
	if !doc.HasItem(itemcollection.ItemUniqueID) {
		return nil, apperrors.ProcessingError("store", "document missing $uniqueid before save")
	}
	payload, err := encodeDocument(doc)
	if err != nil {
		return nil, apperrors.ProcessingErrorWrap("store", "encode document", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_documents (unique_id, doc_type, modified, payload)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (unique_id) DO UPDATE SET
			doc_type = EXCLUDED.doc_type,
			modified = now(),
			payload = EXCLUDED.payload
	`, doc.GetItemValueString(itemcollection.ItemUniqueID), doc.GetItemValueString("$type"), payload)
	if err != nil {
		return nil, apperrors.AccessDenied("store", fmt.Sprintf("save document: %v", err))
	}
	return doc.Clone(), nil
}

// Load implements DocumentStore.
func (s *PostgresStore) Load(ctx context.Context, id string) (*itemcollection.ItemCollection, bool, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT unique_id, doc_type, modified::text AS modified, payload
		FROM workflow_documents WHERE unique_id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.AccessDenied("store", fmt.Sprintf("load document: %v", err))
	}
	doc, err := decodeDocument(row.Payload)
	if err != nil {
		return nil, false, apperrors.ProcessingErrorWrap("store", "decode document", err)
	}
	return doc, true, nil
}

// Find implements DocumentStore. query supports a single "type=<value>"
// clause, matching MemoryStore's contract; richer predicates can extend the
// WHERE clause against the JSONB payload column.
func (s *PostgresStore) Find(ctx context.Context, query string, pageSize, pageIndex int, sortBy string, reverse bool) ([]*itemcollection.ItemCollection, error) {
	where := "1=1"
	args := []any{}
	if strings.HasPrefix(query, "type=") {
		where = "doc_type = $1"
		args = append(args, strings.TrimPrefix(query, "type="))
	}

	order := "modified"
	if reverse {
		order += " DESC"
	} else {
		order += " ASC"
	}

	sqlQuery := fmt.Sprintf(`
		SELECT unique_id, doc_type, modified::text AS modified, payload
		FROM workflow_documents WHERE %s ORDER BY %s
	`, where, order)
	if pageSize > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, pageIndex*pageSize)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, apperrors.AccessDenied("store", fmt.Sprintf("find documents: %v", err))
	}
	return decodeRows(rows)
}

// GetDocumentsByType implements DocumentStore.
func (s *PostgresStore) GetDocumentsByType(ctx context.Context, docType string) ([]*itemcollection.ItemCollection, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT unique_id, doc_type, modified::text AS modified, payload
		FROM workflow_documents WHERE doc_type = $1 ORDER BY modified ASC
	`, docType)
	if err != nil {
		return nil, apperrors.AccessDenied("store", fmt.Sprintf("get documents by type: %v", err))
	}
	return decodeRows(rows)
}

func decodeRows(rows []documentRow) ([]*itemcollection.ItemCollection, error) {
	out := make([]*itemcollection.ItemCollection, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeDocument(row.Payload)
		if err != nil {
			return nil, apperrors.ProcessingErrorWrap("store", "decode document", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

var _ DocumentStore = (*PostgresStore)(nil)
