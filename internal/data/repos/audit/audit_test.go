package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/testutil"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/audit"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

func TestAuditLogRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewAuditLogRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	other := testutil.SeedTenant(t, ctx, tx, "Outra")

	old := time.Now().Add(-100 * 24 * time.Hour)
	entries := []*types.AuditLog{
		{TenantID: &tenant.ID, Action: audit.ActionCreate, Resource: "residents", Method: "POST", Path: "/api/residents", StatusCode: 201},
		{TenantID: &tenant.ID, Action: audit.ActionUpdate, Resource: "residents", Method: "PATCH", Path: "/api/residents/x", StatusCode: 200},
		{TenantID: &other.ID, Action: audit.ActionCreate, Resource: "pops", Method: "POST", Path: "/api/pops", StatusCode: 201},
		{TenantID: &tenant.ID, Action: audit.ActionDelete, Resource: "pops", Method: "DELETE", Path: "/api/pops/x", StatusCode: 200, CreatedAt: old},
	}
	for _, e := range entries {
		if err := repo.Create(dbc, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rows, total, err := repo.List(dbc, &tenant.ID, AuditLogFilter{Resource: "residents", Page: paging.Page{Page: 1, Limit: 10}})
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("List: err=%v total=%d len=%d", err, total, len(rows))
	}
	_, total, err = repo.List(dbc, nil, AuditLogFilter{Action: audit.ActionCreate})
	if err != nil || total != 2 {
		t.Fatalf("List all tenants: err=%v total=%d", err, total)
	}

	n, err := repo.DeleteBefore(dbc, time.Now().Add(-90*24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteBefore: err=%v n=%d", err, n)
	}
}

func TestNotificationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	ctx := context.Background()

	repo := NewNotificationRepo(db, testutil.Logger(t))
	tenant := testutil.SeedTenant(t, ctx, tx, "Casa")
	alice := uuid.New()
	bob := uuid.New()

	broadcast := &types.Notification{TenantID: tenant.ID, Type: "SENTINEL_EVENT", Severity: audit.SeverityCritical, Title: "Queda", Message: "Queda com lesao"}
	direct := &types.Notification{TenantID: tenant.ID, UserID: &alice, Type: "PRESCRIPTION_EXPIRING", Severity: audit.SeverityWarning, Title: "Receita", Message: "Vence em 3 dias"}
	forBob := &types.Notification{TenantID: tenant.ID, UserID: &bob, Type: "POP_REVIEW", Severity: audit.SeverityInfo, Title: "POP", Message: "Revisar"}
	for _, n := range []*types.Notification{broadcast, direct, forBob} {
		if err := repo.Create(dbc, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rows, total, err := repo.ListForUser(dbc, tenant.ID, alice, NotificationFilter{})
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("ListForUser: err=%v total=%d len=%d", err, total, len(rows))
	}

	ok, err := repo.MarkRead(dbc, tenant.ID, alice, forBob.ID, time.Now())
	if err != nil || ok {
		t.Fatalf("MarkRead foreign: err=%v ok=%v", err, ok)
	}
	ok, err = repo.MarkRead(dbc, tenant.ID, alice, direct.ID, time.Now())
	if err != nil || !ok {
		t.Fatalf("MarkRead: err=%v ok=%v", err, ok)
	}
	unread, err := repo.CountUnread(dbc, tenant.ID, alice)
	if err != nil || unread != 1 {
		t.Fatalf("CountUnread: err=%v n=%d", err, unread)
	}

	n, err := repo.MarkAllRead(dbc, tenant.ID, alice, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("MarkAllRead: err=%v n=%d", err, n)
	}
	_, total, err = repo.ListForUser(dbc, tenant.ID, bob, NotificationFilter{UnreadOnly: true})
	if err != nil || total != 1 {
		t.Fatalf("ListForUser bob unread: err=%v total=%d", err, total)
	}
}
