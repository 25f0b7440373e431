package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/database/testdb"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/storage"
	"gorm.io/gorm"
)

// memoryStore is a FileStore that keeps URLs in memory
type memoryStore struct {
	mu        sync.Mutex
	next      int
	files     map[string]bool
	removeErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[string]bool)}
}

func (m *memoryStore) Save(purpose storage.Purpose, header *multipart.FileHeader, allowed []string) (*storage.Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	url := fmt.Sprintf("%s/%s/file-%d", storage.URLPrefix, purpose, m.next)
	m.files[url] = true
	return &storage.Stored{URL: url, OriginalName: header.Filename, Size: header.Size, MimeType: allowed[0]}, nil
}

func (m *memoryStore) Remove(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.files, url)
	return nil
}

func (m *memoryStore) Path(url string) (string, error) {
	return "/tmp" + url, nil
}

func (m *memoryStore) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[url]
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

var errDiskGone = errors.New("disk unavailable")

func upload(name string) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: 2048}
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	hashed, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := models.User{Name: email, Email: email, Password: hashed, Role: role, IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testdb.New(t)
}

// ownerScope is the scope of routes declared OwnerOrRole(bypass...)
func ownerScope(user models.User, bypass ...models.Role) authz.Scope {
	p := authz.Principal{UserID: user.ID, Role: user.Role}
	return authz.NewScope(p, authz.OwnerOrRole(bypass...))
}

func wantKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if !apperrors.IsKind(err, kind) {
		t.Fatalf("error = %v, want kind %s", err, kind)
	}
}

func ptr[T any](v T) *T {
	return &v
}
