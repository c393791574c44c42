package query

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var jobColumns = map[string]string{
	"name":      "jobs.name",
	"salary":    "jobs.salary",
	"level":     "jobs.level",
	"active":    "jobs.active",
	"enddate":   "jobs.end_date",
	"createdat": "jobs.created_at",
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse("   ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f != nil {
		t.Fatalf("expected nil filter")
	}
	clause, args, err := f.SQL(jobColumns)
	if err != nil || clause != "" || args != nil {
		t.Fatalf("nil filter SQL = %q %v %v", clause, args, err)
	}
}

func TestSQL(t *testing.T) {
	cases := []struct {
		name   string
		filter string
		clause string
		args   []interface{}
	}{
		{"equal string", "name:'Go Dev'", "jobs.name = ?", []interface{}{"Go Dev"}},
		{"contains", "name~'Java'", "LOWER(jobs.name) LIKE ?", []interface{}{"%java%"}},
		{"escape like", "name~'100%_'", "LOWER(jobs.name) LIKE ?", []interface{}{`%100\%\_%`}},
		{"and binds tighter", "salary>:1000 and level:'SENIOR' or active:true",
			"(jobs.salary >= ? AND jobs.level = ? OR jobs.active = ?)", []interface{}{1000.0, "SENIOR", true}},
		{"grouping and not", "not (active:false or enddate<'2024-01-01')",
			"NOT (jobs.active = ? OR jobs.end_date < ?)", []interface{}{false, "2024-01-01"}},
		{"null", "enddate:null and name!null", "jobs.end_date IS NULL AND jobs.name IS NOT NULL", nil},
		{"case insensitive keywords", "Name:'x' AND Active:TRUE", "jobs.name = ? AND jobs.active = ?", []interface{}{"x", true}},
		{"quoted quote", `name:'it\'s'`, "jobs.name = ?", []interface{}{"it's"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Parse(tc.filter)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.filter, err)
			}
			clause, args, err := f.SQL(jobColumns)
			if err != nil {
				t.Fatalf("sql: %v", err)
			}
			if clause != tc.clause {
				t.Fatalf("clause = %q, want %q", clause, tc.clause)
			}
			if diff := cmp.Diff(tc.args, args); diff != "" {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSQLRejectsUnknownField(t *testing.T) {
	f := MustParse("password:'x'")
	if _, _, err := f.SQL(jobColumns); err == nil || !strings.Contains(err.Error(), "password") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"name", "name:", "name:'x' and", "(name:'x'", "name=='x'"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("expected parse error for %q", in)
		}
	}
}

type record struct {
	Name   string
	Salary float64
	Active bool
	End    *time.Time
}

func recordGetter(r record) Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "name":
			return r.Name, true
		case "salary":
			return r.Salary, true
		case "active":
			return r.Active, true
		case "enddate":
			return r.End, true
		}
		return nil, false
	}
}

func TestMatch(t *testing.T) {
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := record{Name: "Senior Golang Engineer", Salary: 2500, Active: true, End: &end}

	cases := []struct {
		filter string
		want   bool
	}{
		{"name~'golang'", true},
		{"name!~'golang'", false},
		{"salary>2000 and active:true", true},
		{"salary<:2000 or active:false", false},
		{"not active:false", true},
		{"enddate<'2024-07-01'", true},
		{"enddate>:'2024-06-02T00:00:00Z'", false},
		{"enddate:null", false},
		{"name:'senior golang engineer'", true},
	}
	for _, tc := range cases {
		got, err := MustParse(tc.filter).Match(recordGetter(rec))
		if err != nil {
			t.Fatalf("match %q: %v", tc.filter, err)
		}
		if got != tc.want {
			t.Fatalf("match %q = %v, want %v", tc.filter, got, tc.want)
		}
	}

	if _, err := MustParse("unknown:1").Match(recordGetter(rec)); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFields(t *testing.T) {
	f := MustParse("name~'a' and (Salary>1 or name:'b')")
	if diff := cmp.Diff([]string{"name", "salary"}, f.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}
