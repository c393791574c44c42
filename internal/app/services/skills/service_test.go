package skills

import (
	"context"
	"testing"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/storage/memory"
	"github.com/R3E-Network/jobhunter/internal/errors"
)

func TestSkillLifecycle(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	golang, err := svc.Create(ctx, Request{Name: "Go"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, Request{Name: "go"}); errors.GetServiceError(err) == nil || errors.GetServiceError(err).Code != errors.CodeConflict {
		t.Fatalf("expected case insensitive conflict, got %v", err)
	}
	java, _ := svc.Create(ctx, Request{Name: "Java"})
	if _, err := svc.Update(ctx, Request{ID: java.ID, Name: "GO"}); err == nil {
		t.Fatalf("expected rename onto existing name to fail")
	}
	if _, err := svc.Update(ctx, Request{ID: golang.ID, Name: "Golang"}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	j, _ := store.CreateJob(ctx, job.Job{Name: "Backend", Active: true, Skills: []skill.Skill{{ID: golang.ID}, {ID: java.ID}}})
	if err := svc.Delete(ctx, golang.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := store.GetJob(ctx, j.ID)
	if len(got.Skills) != 1 || got.Skills[0].ID != java.ID {
		t.Fatalf("expected skill detached from job, got %+v", got.Skills)
	}
	if err := svc.Delete(ctx, golang.ID); err == nil {
		t.Fatalf("expected second delete to fail")
	}
}
