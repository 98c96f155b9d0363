package reviews

import (
	"strconv"
	"strings"

	"github.com/uptrace/bun"
)

// TitleFilter narrows title listings. Zero values match everything.
type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     int
}

// ParseTitleFilter builds a filter from query values, a year that is not
// a number is ignored
func ParseTitleFilter(get func(key string) string) TitleFilter {
	filter := TitleFilter{
		Category: strings.TrimSpace(get("category")),
		Genre:    strings.TrimSpace(get("genre")),
		Name:     strings.TrimSpace(get("name")),
	}
	if year, err := strconv.Atoi(strings.TrimSpace(get("year"))); err == nil {
		filter.Year = year
	}
	return filter
}

// IsZero reports an empty filter
func (f TitleFilter) IsZero() bool {
	return f.Category == "" && f.Genre == "" && f.Name == "" && f.Year == 0
}

func (f TitleFilter) apply(q *bun.SelectQuery) *bun.SelectQuery {
	if f.Category != "" {
		q = q.Where("?TableAlias.category_id IN (SELECT c.id FROM categories AS c WHERE c.slug = ?)", f.Category)
	}
	if f.Genre != "" {
		q = q.Where("?TableAlias.id IN (SELECT gt.title_id FROM genre_title AS gt JOIN genres AS g ON g.id = gt.genre_id WHERE g.slug = ?)", f.Genre)
	}
	if f.Name != "" {
		q = q.Where("LOWER(?TableAlias.name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.Year != 0 {
		q = q.Where("?TableAlias.year = ?", f.Year)
	}
	return q
}

// NameSearch matches a category or genre by its exact name
type NameSearch string

func (s NameSearch) apply(q *bun.SelectQuery) *bun.SelectQuery {
	term := strings.TrimSpace(string(s))
	if term == "" {
		return q
	}
	return q.Where("?TableAlias.name = ?", term)
}
