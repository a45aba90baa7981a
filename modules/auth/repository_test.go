package auth

import (
	"errors"
	"testing"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testUser(username string) *domain.User {
	return &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "$2a$12$fakehashfakehashfakehash",
		CreatedAt:    time.Now(),
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	user := testUser("alice")
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Username != "alice" {
		t.Errorf("expected username %q, got %q", "alice", found.Username)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	first := testUser("alice")
	if err := repo.Create(first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := testUser("alice")
	err := repo.Create(second)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Create() duplicate error = %v, want ErrUsernameTaken", err)
	}

	// The original record is untouched
	found, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if found.ID != first.ID {
		t.Errorf("existing record changed: id %q, want %q", found.ID, first.ID)
	}
}

func TestUserRepository_FindByUsername(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	user := testUser("bob")
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("existing user", func(t *testing.T) {
		found, err := repo.FindByUsername("bob")
		if err != nil {
			t.Fatalf("FindByUsername() error = %v", err)
		}
		if found.ID != user.ID {
			t.Errorf("expected ID %q, got %q", user.ID, found.ID)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.FindByUsername("nobody")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("FindByUsername() error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestUserRepository_FindByID_Missing(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	_, err := repo.FindByID("no-such-id")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByID() error = %v, want ErrUserNotFound", err)
	}
}
