// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists source records and unified records per policy topic
// in a SQLite database, and exports unified datasets as CSV.
//
// See docs/ARCHITECTURE.md § Record Store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/policy-unify/pkg/types"
)

const (
	indexDir   = "index"
	unifiedDir = "unified"
	dbFile     = "policy.db"
)

// Store manages the record store SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// NewStore opens or creates the SQLite database at dataDir/index/policy.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: cfg.DataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS source_records (
			policy_abbreviation TEXT NOT NULL,
			source TEXT NOT NULL,
			source_index INTEGER NOT NULL,
			source_id TEXT,
			title TEXT,
			abstract TEXT,
			abstract_source TEXT,
			doi_raw TEXT,
			authors TEXT,
			author_count INTEGER,
			publication_year INTEGER,
			publication_date TEXT,
			venue TEXT,
			cited_by_count INTEGER,
			open_access_url TEXT,
			search_term TEXT,
			policy_name TEXT,
			policy_year INTEGER,
			policy_category TEXT,
			PRIMARY KEY (policy_abbreviation, source, source_index)
		)`,
		`CREATE TABLE IF NOT EXISTS unified_records (
			policy_abbreviation TEXT NOT NULL,
			unified_id INTEGER NOT NULL,
			title TEXT,
			normalized_title TEXT,
			abstract TEXT,
			abstract_source TEXT,
			doi TEXT,
			open_access_url TEXT,
			authors TEXT,
			author_count INTEGER,
			publication_year INTEGER,
			publication_date TEXT,
			venue TEXT,
			cited_by_count INTEGER,
			search_terms TEXT,
			in_openalex INTEGER NOT NULL,
			in_semantic_scholar INTEGER NOT NULL,
			in_nber INTEGER NOT NULL,
			match_method TEXT,
			openalex_id TEXT,
			semantic_scholar_id TEXT,
			nber_id TEXT,
			policy_name TEXT,
			policy_year INTEGER,
			policy_category TEXT,
			PRIMARY KEY (policy_abbreviation, unified_id)
		)`,
		`CREATE TABLE IF NOT EXISTS match_registry (
			policy_abbreviation TEXT NOT NULL,
			unified_id INTEGER NOT NULL,
			source TEXT NOT NULL,
			source_index INTEGER NOT NULL,
			match_method TEXT NOT NULL,
			doi_key TEXT,
			title_key TEXT,
			PRIMARY KEY (policy_abbreviation, source, source_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unified_policy ON unified_records(policy_abbreviation)`,
		`CREATE INDEX IF NOT EXISTS idx_registry_unified ON match_registry(policy_abbreviation, unified_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveSourceRecords replaces the stored source collections for one policy
// topic in a single transaction.
func (s *Store) SaveSourceRecords(ctx context.Context, abbr string, collections map[types.Source][]types.SourceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM source_records WHERE policy_abbreviation = ?`, abbr); err != nil {
		return fmt.Errorf("deleting old source records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO source_records (
			policy_abbreviation, source, source_index, source_id, title,
			abstract, abstract_source, doi_raw, authors, author_count,
			publication_year, publication_date, venue, cited_by_count,
			open_access_url, search_term, policy_name, policy_year, policy_category
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, src := range types.AllSources {
		for i, r := range collections[src] {
			_, err := stmt.ExecContext(ctx,
				abbr, string(src), i, r.SourceID, r.Title,
				r.Abstract, r.AbstractSource, r.DOIRaw, r.Authors, nullInt(r.AuthorCount),
				nullInt(r.PublicationYear), r.PublicationDate, r.Venue, nullInt(r.CitedByCount),
				r.OpenAccessURL, r.SearchTerm, r.PolicyName, nullInt(r.PolicyYear), r.PolicyCategory,
			)
			if err != nil {
				return fmt.Errorf("inserting source record %s/%d: %w", src, i, err)
			}
		}
	}
	return tx.Commit()
}

// LoadSourceRecords returns the stored source collections for one policy
// topic, ordered by source index within each collection.
func (s *Store) LoadSourceRecords(ctx context.Context, abbr string) (map[types.Source][]types.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, source_id, title, abstract, abstract_source, doi_raw,
			authors, author_count, publication_year, publication_date, venue,
			cited_by_count, open_access_url, search_term, policy_name,
			policy_year, policy_category
		 FROM source_records WHERE policy_abbreviation = ?
		 ORDER BY source, source_index`, abbr)
	if err != nil {
		return nil, fmt.Errorf("querying source records: %w", err)
	}
	defer rows.Close()

	collections := make(map[types.Source][]types.SourceRecord)
	for rows.Next() {
		var r types.SourceRecord
		var source string
		var authorCount, pubYear, citedBy, policyYear sql.NullInt64
		err := rows.Scan(&source, &r.SourceID, &r.Title, &r.Abstract, &r.AbstractSource, &r.DOIRaw,
			&r.Authors, &authorCount, &pubYear, &r.PublicationDate, &r.Venue,
			&citedBy, &r.OpenAccessURL, &r.SearchTerm, &r.PolicyName,
			&policyYear, &r.PolicyCategory)
		if err != nil {
			return nil, fmt.Errorf("scanning source record: %w", err)
		}
		r.Source = types.Source(source)
		r.AuthorCount = intFromNull(authorCount)
		r.PublicationYear = intFromNull(pubYear)
		r.CitedByCount = intFromNull(citedBy)
		r.PolicyYear = intFromNull(policyYear)
		r.PolicyAbbreviation = abbr
		collections[r.Source] = append(collections[r.Source], r)
	}
	return collections, rows.Err()
}

// SaveUnified replaces the unified records and match registry for one policy
// topic in a single transaction.
func (s *Store) SaveUnified(ctx context.Context, abbr string, unified []types.UnifiedRecord, registry []types.RegistryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"unified_records", "match_registry"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE policy_abbreviation = ?`, abbr); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO unified_records (
			policy_abbreviation, unified_id, title, normalized_title, abstract,
			abstract_source, doi, open_access_url, authors, author_count,
			publication_year, publication_date, venue, cited_by_count,
			search_terms, in_openalex, in_semantic_scholar, in_nber,
			match_method, openalex_id, semantic_scholar_id, nber_id,
			policy_name, policy_year, policy_category
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing unified insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range unified {
		_, err := stmt.ExecContext(ctx,
			abbr, u.UnifiedID, u.Title, u.NormalizedTitle, u.Abstract,
			u.AbstractSource, u.DOI, u.OpenAccessURL, u.Authors, nullInt(u.AuthorCount),
			nullInt(u.PublicationYear), u.PublicationDate, u.Venue, nullInt(u.CitedByCount),
			u.SearchTerms, u.InOpenAlex, u.InSemanticScholar, u.InNBER,
			string(u.Method), u.OpenAlexID, u.SemanticScholarID, u.NBERID,
			u.PolicyName, nullInt(u.PolicyYear), u.PolicyCategory,
		)
		if err != nil {
			return fmt.Errorf("inserting unified record %d: %w", u.UnifiedID, err)
		}
	}

	regStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_registry (
			policy_abbreviation, unified_id, source, source_index,
			match_method, doi_key, title_key
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing registry insert: %w", err)
	}
	defer regStmt.Close()

	for _, e := range registry {
		_, err := regStmt.ExecContext(ctx,
			abbr, e.UnifiedID, string(e.Source), e.SourceIndex,
			string(e.Method), e.DOIKey, e.TitleKey,
		)
		if err != nil {
			return fmt.Errorf("inserting registry entry %s/%d: %w", e.Source, e.SourceIndex, err)
		}
	}

	return tx.Commit()
}

// LoadUnified returns the unified records for one policy topic ordered by
// unified ID.
func (s *Store) LoadUnified(ctx context.Context, abbr string) ([]types.UnifiedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unified_id, title, normalized_title, abstract, abstract_source,
			doi, open_access_url, authors, author_count, publication_year,
			publication_date, venue, cited_by_count, search_terms,
			in_openalex, in_semantic_scholar, in_nber, match_method,
			openalex_id, semantic_scholar_id, nber_id,
			policy_name, policy_year, policy_category
		 FROM unified_records WHERE policy_abbreviation = ?
		 ORDER BY unified_id`, abbr)
	if err != nil {
		return nil, fmt.Errorf("querying unified records: %w", err)
	}
	defer rows.Close()

	var unified []types.UnifiedRecord
	for rows.Next() {
		var u types.UnifiedRecord
		var method string
		var authorCount, pubYear, citedBy, policyYear sql.NullInt64
		err := rows.Scan(&u.UnifiedID, &u.Title, &u.NormalizedTitle, &u.Abstract, &u.AbstractSource,
			&u.DOI, &u.OpenAccessURL, &u.Authors, &authorCount, &pubYear,
			&u.PublicationDate, &u.Venue, &citedBy, &u.SearchTerms,
			&u.InOpenAlex, &u.InSemanticScholar, &u.InNBER, &method,
			&u.OpenAlexID, &u.SemanticScholarID, &u.NBERID,
			&u.PolicyName, &policyYear, &u.PolicyCategory)
		if err != nil {
			return nil, fmt.Errorf("scanning unified record: %w", err)
		}
		u.Method = types.MatchMethod(method)
		u.AuthorCount = intFromNull(authorCount)
		u.PublicationYear = intFromNull(pubYear)
		u.CitedByCount = intFromNull(citedBy)
		u.PolicyYear = intFromNull(policyYear)
		u.PolicyAbbreviation = abbr
		unified = append(unified, u)
	}
	return unified, rows.Err()
}

// LoadRegistry returns the match registry for one policy topic ordered by
// unified ID, then source, then source index.
func (s *Store) LoadRegistry(ctx context.Context, abbr string) ([]types.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unified_id, source, source_index, match_method, doi_key, title_key
		 FROM match_registry WHERE policy_abbreviation = ?
		 ORDER BY unified_id, source, source_index`, abbr)
	if err != nil {
		return nil, fmt.Errorf("querying match registry: %w", err)
	}
	defer rows.Close()

	var registry []types.RegistryEntry
	for rows.Next() {
		var e types.RegistryEntry
		var source, method string
		if err := rows.Scan(&e.UnifiedID, &source, &e.SourceIndex, &method, &e.DOIKey, &e.TitleKey); err != nil {
			return nil, fmt.Errorf("scanning registry entry: %w", err)
		}
		e.Source = types.Source(source)
		e.Method = types.MatchMethod(method)
		registry = append(registry, e)
	}
	return registry, rows.Err()
}

// Policies returns the distinct policy abbreviations that have unified
// records, sorted.
func (s *Store) Policies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT policy_abbreviation FROM unified_records ORDER BY policy_abbreviation`)
	if err != nil {
		return nil, fmt.Errorf("querying policies: %w", err)
	}
	defer rows.Close()

	var abbrs []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}
		abbrs = append(abbrs, a)
	}
	return abbrs, rows.Err()
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
