package services

import (
	"context"
	"testing"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/plan"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

func TestPlanService_Create(t *testing.T) {
	repo := testutil.NewMockPlanRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	svc := NewPlanService(repo, log)

	tests := []struct {
		name     string
		plan     *plan.Plan
		wantCode string
	}{
		{
			name: "valid plan",
			plan: &plan.Plan{
				Name:      "Iron",
				Resources: ledger.Resources{Memory: 4096, Servers: 1},
				Price:     300,
				Visible:   true,
			},
		},
		{
			name: "free plan",
			plan: &plan.Plan{Name: "Starter", Price: 0},
		},
		{
			name: "monthly plan",
			plan: &plan.Plan{Name: "Iron Monthly", Price: 300, DurationDays: 30},
		},
		{
			name:     "missing name",
			plan:     &plan.Plan{Price: 100},
			wantCode: errors.ErrCodeBadRequest,
		},
		{
			name:     "negative price",
			plan:     &plan.Plan{Name: "Broken", Price: -1},
			wantCode: errors.ErrCodeBadRequest,
		},
		{
			name:     "negative duration",
			plan:     &plan.Plan{Name: "Broken", DurationDays: -1},
			wantCode: errors.ErrCodeBadRequest,
		},
		{
			name: "negative resources",
			plan: &plan.Plan{
				Name:      "Broken",
				Resources: ledger.Resources{Memory: -1024},
			},
			wantCode: errors.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tt.plan)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Create() error = %v", err)
				} else if tt.plan.ID == 0 {
					t.Error("Create() returned 0 id")
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Create() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestPlanService_List(t *testing.T) {
	repo := testutil.NewMockPlanRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	svc := NewPlanService(repo, log)
	ctx := context.Background()

	svc.Create(ctx, &plan.Plan{Name: "Public", Visible: true})
	svc.Create(ctx, &plan.Plan{Name: "Hidden", Visible: false})

	visible, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("List(visible) error = %v", err)
	}
	if len(visible) != 1 || visible[0].Name != "Public" {
		t.Errorf("List(visible) = %+v", visible)
	}

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(all) returned %d plans, want 2", len(all))
	}
}
