package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeGenre trims and title-cases a genre name so "rock", " ROCK" and
// "Rock" are all stored as "Rock".
func NormalizeGenre(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	return cases.Title(language.Und).String(name)
}

// genreID returns the id of the genre `name`, inserting it when missing.
// `name` must already be normalized.
func genreID(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO genres (name) VALUES (@name)`,
		sql.Named("name", name),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting genre %q: %w", name, err)
	}

	var id int64
	err = tx.GetContext(ctx, &id,
		`SELECT id FROM genres WHERE name = @name`,
		sql.Named("name", name),
	)
	if err != nil {
		return 0, fmt.Errorf("selecting genre %q: %w", name, err)
	}

	return id, nil
}

// Genres returns all genres with the number of songs and albums in each.
func (s *Store) Genres(ctx context.Context) ([]Genre, error) {
	var genres []Genre
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &genres, `
			SELECT
				g.id,
				g.name,
				COUNT(DISTINCT s.id) AS songcount,
				COUNT(DISTINCT s.albumid) AS albumcount
			FROM genres g
			LEFT JOIN songs s ON s.genre = g.id
			GROUP BY g.id
			ORDER BY g.name
		`)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}

	return genres, nil
}
