// Package models defines core data structures for clauses, documents, queries, and answers.
package models

import "time"

// Clause is one retrievable span of document text together with the document it came from.
// Its position in the clause store equals its row in the vector index.
type Clause struct {
	Text       string `json:"text"`
	SourceFile string `json:"source_file"`
}

// ClauseMatch is a clause returned by a nearest-neighbor query.
type ClauseMatch struct {
	Position   int     `json:"position"`
	Distance   float64 `json:"distance"`
	Text       string  `json:"text"`
	SourceFile string  `json:"source_file"`
}

// Document is a ledger entry for one ingested document.
type Document struct {
	ID          string    `json:"id" db:"id"`
	SourceID    string    `json:"source_id" db:"source_id"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	ClauseCount int       `json:"clause_count" db:"clause_count"`
	AddedCount  int       `json:"added_count" db:"added_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ClauseComparison pairs a clause of one document with its closest clause in another.
type ClauseComparison struct {
	ClauseFromFile1 string  `json:"clause_from_file1"`
	ClauseFromFile2 string  `json:"clause_from_file2"`
	Similarity      float64 `json:"similarity"`
}
