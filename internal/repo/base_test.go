package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/pkg/db"
	"github.com/techcreator/storefront/pkg/db/models"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	client, err := db.OpenMemory(t.Name(), &models.Inquiry{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return client.DB()
}

func TestNewBaseStoresConnection(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)

	if base.db != conn {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil {
		t.Fatalf("expected non-nil DB when context provided")
	}
	if withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	withoutCtx := base.DB(nil)
	if withoutCtx != conn {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseFirstMapsMissingRows(t *testing.T) {
	base := NewBase(newTestDB(t))
	ctx := context.Background()

	inquiry := &models.Inquiry{ClientName: "Ravi", Email: "ravi@example.com", ProjectType: "web", Message: "hello"}
	if err := base.DB(ctx).Create(inquiry).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var found models.Inquiry
	if err := base.First(ctx, &found, "inquiry not found", "id = ?", inquiry.ID); err != nil {
		t.Fatalf("first: %v", err)
	}
	if found.Email != inquiry.Email {
		t.Fatalf("unexpected row %+v", found)
	}

	err := base.First(ctx, &found, "inquiry not found", "id = ?", uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBaseDeleteByID(t *testing.T) {
	base := NewBase(newTestDB(t))
	ctx := context.Background()

	inquiry := &models.Inquiry{ClientName: "Ravi", Email: "ravi@example.com", ProjectType: "web", Message: "hello"}
	if err := base.DB(ctx).Create(inquiry).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := base.DeleteByID(ctx, &models.Inquiry{}, inquiry.ID, "inquiry not found"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err := base.DeleteByID(ctx, &models.Inquiry{}, inquiry.ID, "inquiry not found")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
