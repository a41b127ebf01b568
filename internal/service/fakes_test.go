package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/auth"
	"github.com/sakif/car-listings/internal/media"
	"github.com/sakif/car-listings/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory repository.Store. Cars are kept per account, so
// the fake is just as unable to reach across accounts as the real backends.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	cars     map[string][]model.Car // keyed by account ID, insertion order
	nextID   int

	// set to a non-nil error to simulate a database failure
	getByEmailErr error
	addCarErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*model.Account),
		cars:     make(map[string][]model.Car),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateAccount(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return apperror.Duplicate("user", "email")
		}
	}
	a.ID = f.id("acct")
	a.CreatedAt = time.Now().UTC()
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *fakeStore) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByEmailErr != nil {
		return nil, f.getByEmailErr
	}
	for _, a := range f.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "account not found"}
}

func (f *fakeStore) AddCar(_ context.Context, accountID string, c *model.Car) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addCarErr != nil {
		return f.addCarErr
	}
	if _, ok := f.accounts[accountID]; !ok {
		return apperror.NotFound("account", accountID)
	}
	c.ID = f.id("car")
	c.CreatedAt = time.Now().UTC()
	f.cars[accountID] = append(f.cars[accountID], *c)
	return nil
}

func (f *fakeStore) ListCars(_ context.Context, accountID string) ([]model.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[accountID]; !ok {
		return nil, apperror.NotFound("account", accountID)
	}
	return append([]model.Car{}, f.cars[accountID]...), nil
}

func (f *fakeStore) index(accountID, carID string) (int, error) {
	if _, ok := f.accounts[accountID]; !ok {
		return -1, apperror.NotFound("account", accountID)
	}
	for i, c := range f.cars[accountID] {
		if c.ID == carID {
			return i, nil
		}
	}
	return -1, apperror.NotFound("car", carID)
}

func (f *fakeStore) FindCar(_ context.Context, accountID, carID string) (*model.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(accountID, carID)
	if err != nil {
		return nil, err
	}
	c := f.cars[accountID][i]
	return &c, nil
}

func (f *fakeStore) UpdateCar(_ context.Context, accountID, carID string, patch model.CarPatch) (*model.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(accountID, carID)
	if err != nil {
		return nil, err
	}
	applyPatch(&f.cars[accountID][i], patch)
	c := f.cars[accountID][i]
	return &c, nil
}

// applyPatch copies the non-nil fields of patch onto c.
func applyPatch(c *model.Car, patch model.CarPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Tags != nil {
		c.Tags = *patch.Tags
	}
}

func (f *fakeStore) DeleteCar(_ context.Context, accountID, carID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(accountID, carID)
	if err != nil {
		return err
	}
	cars := f.cars[accountID]
	f.cars[accountID] = append(cars[:i], cars[i+1:]...)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) accountCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

// fakeUploader returns one URL per file and records how often it ran.
type fakeUploader struct {
	calls int
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, accountID string, files []media.File) ([]string, error) {
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = fmt.Sprintf("https://media.test/%s/%d-%s", accountID, i, f.Name)
	}
	return urls, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// newTestAccountService returns an AccountService wired with fakes.
// Cost 4 is the bcrypt minimum, which keeps tests fast.
func newTestAccountService(t *testing.T, store *fakeStore) (*AccountService, *auth.TokenService) {
	t.Helper()
	ts := newTestTokenService(t)
	return NewAccountService(store, ts, auth.NewPasswordServiceForTest(4), testLogger()), ts
}

func newTestCarService(store *fakeStore, up *fakeUploader) *CarService {
	return NewCarService(store, store, up, 3, testLogger())
}
