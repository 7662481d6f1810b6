package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/Aleph-Alpha/vecdocs/v1/database"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// RegistryTable stores one row per collection with its immutable config.
const RegistryTable = "vecdocs_collections"

var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// ValidateName rejects names that cannot be used as a table name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return &vectordb.ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("collection name %q must start with a letter and contain at most 48 letters, digits or underscores", name),
		}
	}
	if strings.EqualFold(name, RegistryTable) {
		return &vectordb.ValidationError{Field: "name", Reason: fmt.Sprintf("%q is reserved", name)}
	}
	return nil
}

// ── Identifiers ───────────────────────────────────────────────

func tableIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func indexIdent(name string) string {
	return pq.QuoteIdentifier(name + "_embedding_idx")
}

// distanceOperator is the pgvector operator whose ascending order is the
// metric's nearest-first order.
func distanceOperator(m vectordb.Metric) string {
	switch m {
	case vectordb.MetricEuclidean:
		return "<->"
	case vectordb.MetricDotProduct:
		return "<#>"
	default:
		return "<=>"
	}
}

func operatorClass(m vectordb.Metric) string {
	switch m {
	case vectordb.MetricEuclidean:
		return "vector_l2_ops"
	case vectordb.MetricDotProduct:
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}

// ── DDL ───────────────────────────────────────────────────────

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS vector`

const createRegistrySQL = `CREATE TABLE IF NOT EXISTS ` + RegistryTable + ` (
	name text PRIMARY KEY,
	dimension integer NOT NULL,
	metric text NOT NULL,
	embedding_model text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now()
)`

func createTableSQL(name string, dimension int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	namespace text NOT NULL,
	id text NOT NULL,
	text text,
	metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
	embedding vector(%d) NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, id)
)`, tableIdent(name), dimension)
}

func createIndexSQL(name string, metric vectordb.Metric, hnsw HNSWConfig) string {
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding %s) WITH (m = %d, ef_construction = %d)`,
		indexIdent(name), tableIdent(name), operatorClass(metric), hnsw.M, hnsw.EfConstruction)
}

func dropTableSQL(name string) string {
	return `DROP TABLE IF EXISTS ` + tableIdent(name)
}

const (
	insertRegistrySQL = `INSERT INTO ` + RegistryTable + ` (name, dimension, metric, embedding_model) VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO NOTHING
RETURNING name, dimension, metric, embedding_model, created_at`

	selectRegistrySQL = `SELECT name, dimension, metric, embedding_model, created_at FROM ` + RegistryTable + ` WHERE name = ?`

	listRegistrySQL = `SELECT name, dimension, metric, embedding_model, created_at FROM ` + RegistryTable + ` ORDER BY name`

	deleteRegistrySQL = `DELETE FROM ` + RegistryTable + ` WHERE name = ? RETURNING name`
)

// ── DML ───────────────────────────────────────────────────────

func upsertSQL(table string) string {
	return `INSERT INTO ` + table + ` (namespace, id, text, metadata, embedding)
VALUES (?, ?, ?, ?::jsonb, ?::vector)
ON CONFLICT (namespace, id) DO UPDATE SET
	text = EXCLUDED.text,
	metadata = EXCLUDED.metadata,
	embedding = EXCLUDED.embedding,
	updated_at = now()`
}

// searchSQL selects the requested columns plus the raw distance, nearest
// first. Args: query vector, namespace, predicate args, limit.
func searchSQL(table string, metric vectordb.Metric, req vectordb.SearchRequest, predicate string) string {
	cols := []string{"id"}
	if req.IncludeText {
		cols = append(cols, "text")
	}
	if req.IncludeMetadata {
		cols = append(cols, "metadata::text AS metadata")
	}
	if req.IncludeVector {
		cols = append(cols, "embedding::text AS embedding")
	}
	cols = append(cols, fmt.Sprintf("(embedding %s ?::vector) AS distance", distanceOperator(metric)))

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)
	b.WriteString(" WHERE namespace = ?")
	if predicate != "" {
		b.WriteString(" AND ")
		b.WriteString(predicate)
	}
	b.WriteString(" ORDER BY distance LIMIT ?")
	return b.String()
}

func fetchSQL(table string, ids int) string {
	return `SELECT id, text, metadata::text AS metadata, embedding::text AS embedding FROM ` + table +
		` WHERE namespace = ? AND id IN (` + placeholders(ids) + `)`
}

// updateSQL sets text (and embedding) and/or metadata. Args: text, vector,
// metadata (each only when set), namespace, id.
func updateSQL(table string, text, metadata bool) string {
	var sets []string
	if text {
		sets = append(sets, "text = ?", "embedding = ?::vector")
	}
	if metadata {
		sets = append(sets, "metadata = ?::jsonb")
	}
	sets = append(sets, "updated_at = now()")
	return `UPDATE ` + table + ` SET ` + strings.Join(sets, ", ") + ` WHERE namespace = ? AND id = ? RETURNING id`
}

// countDeleted wraps a DELETE so the statement returns one row holding the
// number of removed rows.
func countDeleted(table, where string) string {
	return `WITH deleted AS (DELETE FROM ` + table + ` WHERE ` + where + ` RETURNING 1) SELECT count(*) AS n FROM deleted`
}

func deleteByIDsSQL(table string, ids int) string {
	return countDeleted(table, `namespace = ? AND id IN (`+placeholders(ids)+`)`)
}

func deleteByFilterSQL(table, predicate string) string {
	return countDeleted(table, `namespace = ? AND `+predicate)
}

func deleteAllSQL(table string) string {
	return countDeleted(table, `namespace = ?`)
}

func statsSQL(table string) string {
	return `SELECT namespace, count(*) AS n FROM ` + table + ` GROUP BY namespace ORDER BY namespace`
}

// placeholders renders "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// ── Values ────────────────────────────────────────────────────

// encodeVector rejects non-finite components and wraps v for binding as
// ?::vector. The text form prints each component with the shortest
// representation that parses back to the same float32.
func encodeVector(v []float32) (pgvector.Vector, error) {
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return pgvector.Vector{}, fmt.Errorf("component %d is not finite", i)
		}
	}
	return pgvector.NewVector(v), nil
}

// decodeVector reads the pgvector text form of an embedding::text column.
func decodeVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector %q", s)
	}
	var v pgvector.Vector
	if err := v.Parse(s); err != nil {
		return nil, fmt.Errorf("malformed vector %q: %w", s, err)
	}
	return v.Slice(), nil
}

// encodeMetadata renders metadata as a JSON object. nil becomes {}.
func encodeMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeMetadata parses a JSON object. Integral numbers that fit int64
// decode as int64, other numbers as float64.
func decodeMetadata(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return normalizeNumbers(m).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = normalizeNumbers(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = normalizeNumbers(x)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}

// nullableText maps "" to SQL NULL.
func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ── Row access ────────────────────────────────────────────────

func stringValue(row database.Row, col string) (string, error) {
	switch v := row[col].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func intValue(row database.Row, col string) (int64, error) {
	switch v := row[col].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func floatValue(row database.Row, col string) (float64, error) {
	switch v := row[col].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func timeValue(row database.Row, col string) (time.Time, error) {
	switch v := row[col].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		return time.Parse(time.RFC3339Nano, v)
	default:
		return time.Time{}, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

// registryEntry decodes a registry row.
func registryEntry(row database.Row) (vectordb.Collection, error) {
	name, err := stringValue(row, "name")
	if err != nil {
		return vectordb.Collection{}, err
	}
	dim, err := intValue(row, "dimension")
	if err != nil {
		return vectordb.Collection{}, err
	}
	metric, err := stringValue(row, "metric")
	if err != nil {
		return vectordb.Collection{}, err
	}
	model, err := stringValue(row, "embedding_model")
	if err != nil {
		return vectordb.Collection{}, err
	}
	created, err := timeValue(row, "created_at")
	if err != nil {
		return vectordb.Collection{}, err
	}

	return vectordb.Collection{
		Name: name,
		Config: vectordb.CollectionConfig{
			Dimension:      int(dim),
			Metric:         vectordb.Metric(metric),
			EmbeddingModel: model,
		},
		CreatedAt: created,
	}, nil
}

// documentFromRow decodes the columns present in row.
func documentFromRow(row database.Row) (vectordb.Document, error) {
	var doc vectordb.Document
	var err error

	if doc.ID, err = stringValue(row, "id"); err != nil {
		return doc, err
	}
	if doc.Text, err = stringValue(row, "text"); err != nil {
		return doc, err
	}
	if raw, ok := row["metadata"]; ok && raw != nil {
		s, err := stringValue(row, "metadata")
		if err != nil {
			return doc, err
		}
		if doc.Metadata, err = decodeMetadata(s); err != nil {
			return doc, fmt.Errorf("column metadata: %w", err)
		}
	}
	if raw, ok := row["embedding"]; ok && raw != nil {
		s, err := stringValue(row, "embedding")
		if err != nil {
			return doc, err
		}
		if doc.Vector, err = decodeVector(s); err != nil {
			return doc, fmt.Errorf("column embedding: %w", err)
		}
	}
	return doc, nil
}
