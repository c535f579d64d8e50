package catalog

import (
	"database/sql"
	"fmt"
	"strings"
)

// SortKey is one of the orderings supported by the list operations.
type SortKey string

// All supported sort keys. Anything else is rejected by ParseSortKey so
// no caller input ever reaches an ORDER BY clause.
const (
	SortDefault   SortKey = ""
	SortName      SortKey = "name"
	SortAdded     SortKey = "added"
	SortPlayed    SortKey = "played"
	SortPlayCount SortKey = "play-count"
	SortRandom    SortKey = "random"
)

// ParseSortKey converts `key` into a SortKey.
func ParseSortKey(key string) (SortKey, error) {
	switch sk := SortKey(key); sk {
	case SortDefault, SortName, SortAdded, SortPlayed, SortPlayCount, SortRandom:
		return sk, nil
	default:
		return SortDefault, fmt.Errorf("unknown sort key %q", key)
	}
}

// Filter describes which rows a list operation returns and in what order.
// Zero values mean "no restriction". Every list operation applies the
// fields which make sense for its entity and ignores the rest.
type Filter struct {
	ID        int64
	LibraryID int64
	ArtistID  int64
	AlbumID   int64
	GenreID   int64
	Genre     string
	FromYear  int
	ToYear    int
	StarredBy int64
	Search    string

	Sort SortKey
	Desc bool

	// Offset and Count limit the result. Count of zero means no limit.
	Offset int
	Count  int
}

// Limit returns `f` with a plain count limit.
func (f Filter) Limit(count int) Filter {
	f.Offset = 0
	f.Count = count
	return f
}

// Page returns `f` limited to `count` rows after skipping `offset`.
func (f Filter) Page(offset, count int) Filter {
	f.Offset = offset
	f.Count = count
	return f
}

// queryParts accumulates WHERE conditions and their named arguments.
type queryParts struct {
	where []string
	args  []any
}

func (q *queryParts) add(cond string, args ...any) {
	q.where = append(q.where, cond)
	q.args = append(q.args, args...)
}

func (q *queryParts) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(q.where, " AND ")
}

// orderClause returns the ORDER BY clause for `f` using the fixed column
// mapping `columns`. Unknown keys fall back to the default ordering.
func orderClause(f Filter, columns map[SortKey]string, tieBreaker string) string {
	column, ok := columns[f.Sort]
	if !ok {
		column = columns[SortDefault]
	}

	if f.Sort == SortRandom {
		return "ORDER BY " + column
	}

	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}

	return fmt.Sprintf("ORDER BY %s %s, %s", column, direction, tieBreaker)
}

// limitClause adds the named offset and count arguments to `q` when `f`
// has a limit.
func limitClause(f Filter, q *queryParts) string {
	if f.Count <= 0 {
		return ""
	}

	q.args = append(q.args,
		sql.Named("offset", f.Offset),
		sql.Named("count", f.Count),
	)
	return "LIMIT @offset, @count"
}

func likePattern(search string) string {
	search = strings.ReplaceAll(search, `\`, `\\`)
	search = strings.ReplaceAll(search, `%`, `\%`)
	search = strings.ReplaceAll(search, `_`, `\_`)
	return "%" + search + "%"
}
