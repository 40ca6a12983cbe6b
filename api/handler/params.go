package handler

import (
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/usecase/query"
)

const dateLayout = "2006-01-02"

// archived card visibility on card listings
const (
	archivedExclude = ""
	archivedInclude = "include"
	archivedOnly    = "only"
)

type cardQuery struct {
	Term     string
	Filters  query.Filters
	Archived string
}

func parseCardQuery(args *fasthttp.Args, loc *time.Location) (cardQuery, error) {
	q := cardQuery{
		Term: string(args.Peek("q")),
		Filters: query.Filters{
			AssigneeIDs: multi(args, "assignee"),
			Priorities:  multi(args, "priority"),
			Labels:      multi(args, "label"),
			Overdue:     args.GetBool("overdue"),
			DueSoon:     args.GetBool("due_soon"),
		},
	}
	for _, p := range q.Filters.Priorities {
		if !domain.Priority(p).Valid() {
			return q, domain.NewError(domain.ErrCodeInvalid, "unknown priority "+p)
		}
	}

	from, err := parseTime(string(args.Peek("due_from")), loc, false)
	if err != nil {
		return q, err
	}
	to, err := parseTime(string(args.Peek("due_to")), loc, true)
	if err != nil {
		return q, err
	}
	q.Filters.DueDateRange = query.DateRange{Start: from, End: to}

	switch v := strings.ToLower(string(args.Peek("archived"))); v {
	case archivedExclude, archivedInclude, archivedOnly:
		q.Archived = v
	default:
		return q, domain.NewError(domain.ErrCodeInvalid, "archived must be include or only")
	}
	return q, nil
}

// multi collects repeated and comma-separated values of key.
func multi(args *fasthttp.Args, key string) []string {
	var out []string
	for _, raw := range args.PeekMulti(key) {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseTime accepts RFC3339 or a bare date in loc. A bare date used as an
// upper bound covers the whole day.
func parseTime(raw string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid date "+raw, err)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
