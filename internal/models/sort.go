package models

import "fmt"

// Sort is the ordering key of a post listing.
type Sort string

// MaxPageSize is the largest page the backend serves.
const MaxPageSize = 50

const (
	SortNew  Sort = "new"
	SortTop  Sort = "top"
	SortBest Sort = "best"
)

func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case SortNew, SortTop, SortBest:
		return Sort(s), nil
	case "":
		return SortNew, nil
	}
	return "", fmt.Errorf("unknown sort %q (want new, top or best)", s)
}

// Order is the SQL ordering used by the backend for the sort. Ties fall back
// to the newest post.
func (s Sort) Order() string {
	switch s {
	case SortTop:
		return "points DESC, created_at DESC, id DESC"
	case SortBest:
		return "points / GREATEST(EXTRACT(EPOCH FROM (now() - created_at)), 1) DESC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}
