package system

import (
	"context"
	"errors"
	"testing"
)

func recorder(name string, log *[]string, startErr error) Func {
	return Func{
		ServiceName: name,
		OnStart: func(context.Context) error {
			*log = append(*log, "start "+name)
			return startErr
		},
		OnStop: func(context.Context) error {
			*log = append(*log, "stop "+name)
			return nil
		},
	}
}

func TestManagerOrder(t *testing.T) {
	var log []string
	m := NewManager()
	for _, n := range []string{"a", "b", "c"} {
		if err := m.Register(recorder(n, &log, nil)); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	if err := m.Register(recorder("a", &log, nil)); err == nil {
		t.Fatalf("expected duplicate name to fail")
	}
	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Register(recorder("d", &log, nil)); err == nil {
		t.Fatalf("expected register after start to fail")
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	want := []string{"start a", "start b", "start c", "stop c", "stop b", "stop a"}
	if len(log) != len(want) {
		t.Fatalf("got %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("step %d: got %s want %s", i, log[i], want[i])
		}
	}
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var log []string
	m := NewManager()
	m.Register(recorder("db", &log, nil))
	m.Register(recorder("http", &log, errors.New("port in use")))

	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected start failure")
	}
	if log[len(log)-1] != "stop db" {
		t.Fatalf("started services not stopped: %v", log)
	}
}
