package query

import (
	"math"
	"net/url"
	"strconv"
	"testing"
)

func TestParsePage(t *testing.T) {
	p, err := ParsePage(url.Values{"page": {"3"}, "size": {"500"}, "sort": {"salary,desc", "name"}})
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if p.Number != 3 || p.Size != MaxPageSize {
		t.Fatalf("page = %+v", p)
	}
	if len(p.Sort) != 2 || !p.Sort[0].Desc || p.Sort[1].Desc {
		t.Fatalf("sort = %+v", p.Sort)
	}
	if p.Offset() != 200 {
		t.Fatalf("offset = %d, want 200", p.Offset())
	}

	order, err := p.OrderSQL(jobColumns, "jobs.id DESC")
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if order != "jobs.salary DESC, jobs.name ASC" {
		t.Fatalf("order = %q", order)
	}

	for _, bad := range []url.Values{{"page": {"0"}}, {"size": {"x"}}, {"sort": {"name,sideways"}}} {
		if _, err := ParsePage(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestApplyPaginatesAndSorts(t *testing.T) {
	items := []record{
		{Name: "a", Salary: 10, Active: true},
		{Name: "b", Salary: 30, Active: true},
		{Name: "c", Salary: 20, Active: false},
		{Name: "d", Salary: 40, Active: true},
	}
	f := MustParse("active:true")
	p := Page{Number: 1, Size: 2, Sort: []SortField{{Field: "salary", Desc: true}}}

	res, err := Apply(items, f, p, recordGetter)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Meta.Total != 3 || res.Meta.Pages != 2 {
		t.Fatalf("meta = %+v", res.Meta)
	}
	if len(res.Result) != 2 || res.Result[0].Name != "d" || res.Result[1].Name != "b" {
		t.Fatalf("result = %+v", res.Result)
	}

	p.Number = 5
	res, err = Apply(items, f, p, recordGetter)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Result) != 0 || res.Meta.Page != 5 {
		t.Fatalf("out of range page = %+v", res)
	}

	if _, err := Apply(items, nil, Page{Number: 1, Size: 2, Sort: []SortField{{Field: "nope"}}}, recordGetter); err == nil {
		t.Fatalf("expected unknown sort field error")
	}
}

func TestHugePageNumbers(t *testing.T) {
	if _, err := ParsePage(url.Values{"page": {"92233720368547760"}, "size": {"100"}}); err == nil {
		t.Fatalf("expected error for page beyond %d", MaxPageNumber)
	}
	if _, err := ParsePage(url.Values{"page": {strconv.Itoa(MaxPageNumber)}, "size": {"100"}}); err != nil {
		t.Fatalf("max page rejected: %v", err)
	}

	p := Page{Number: math.MaxInt / 10, Size: MaxPageSize}
	if p.Offset() < 0 {
		t.Fatalf("offset overflowed: %d", p.Offset())
	}
	res, err := Apply([]record{{Name: "a"}, {Name: "b"}}, nil, p, recordGetter)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Result) != 0 || res.Meta.Total != 2 {
		t.Fatalf("result = %+v", res)
	}
}
