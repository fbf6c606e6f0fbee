package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func validInput() CreateInput {
	return CreateInput{Username: "akua", Password: "correct-horse", FullName: "Akua Boateng", Role: "nurse"}
}

func TestCreate_HashesPassword(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PasswordHash == "correct-horse" || u.PasswordHash == "" {
		t.Error("expected password to be hashed")
	}
	if !u.Active {
		t.Error("expected new account active")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing username", CreateInput{Password: "longenough", Role: "nurse"}},
		{"short password", CreateInput{Username: "x", Password: "short", Role: "nurse"}},
		{"bad role", CreateInput{Username: "x", Password: "longenough", Role: "janitor"}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.in); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup := validInput()
	dup.Username = "AKUA"
	if _, err := svc.Create(context.Background(), dup); err == nil {
		t.Error("expected duplicate username rejection")
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := svc.Authenticate(context.Background(), "akua", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != created.ID {
		t.Error("unexpected account returned")
	}

	if _, err := svc.Authenticate(context.Background(), "akua", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticate_InactiveAccount(t *testing.T) {
	svc, repo := newTestService()
	u, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.users[u.ID].Active = false

	if _, err := svc.Authenticate(context.Background(), "akua", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected inactive account rejection, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	role := "doctor"
	inactive := false
	updated, err := svc.Update(context.Background(), u.ID, UpdateInput{Role: &role, Active: &inactive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Role != "doctor" || updated.Active {
		t.Errorf("unexpected update result: %+v", updated)
	}

	bad := "janitor"
	if _, err := svc.Update(context.Background(), u.ID, UpdateInput{Role: &bad}); err == nil {
		t.Error("expected invalid role rejection")
	}
	if _, err := svc.Update(context.Background(), uuid.New(), UpdateInput{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_PasswordChange(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newPw := "another-long-one"
	if _, err := svc.Update(context.Background(), u.ID, UpdateInput{Password: &newPw}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "akua", "another-long-one"); err != nil {
		t.Errorf("expected new password to work: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "akua", "correct-horse"); err == nil {
		t.Error("expected old password rejected")
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(context.Background(), u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
