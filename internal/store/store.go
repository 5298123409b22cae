// Package store persists the three report-service collections (reports,
// users, and the current session user) as JSON blobs in a single sqlite
// table. Every operation is a read-modify-write of a whole collection behind
// one mutex: with a single local session there is no concurrent writer, and
// the mutex keeps it that way if one ever appears.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/civicfix/report-service/internal/domain"
)

const (
	reportsKey     = "reports"
	usersKey       = "users"
	currentUserKey = "current-user"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrUserNotFound   = errors.New("user not found")
)

// collectionRow is one named collection serialized as a JSON blob. There is
// no schema versioning; decoded records are backfilled via Normalize.
type collectionRow struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (collectionRow) TableName() string { return "collections" }

// Store is the single-writer repository over the collection table.
type Store struct {
	db     *gorm.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// Open opens (or creates) the sqlite database at path and migrates the
// collection table. Use ":memory:" for throwaway test stores.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&collectionRow{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// read decodes the named collection into v. A missing row means the
// collection has never been written and leaves v untouched.
func (s *Store) read(ctx context.Context, key string, v any) error {
	var row collectionRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read collection %q: %w", key, err)
	}
	if err := json.Unmarshal(row.Value, v); err != nil {
		return fmt.Errorf("decode collection %q: %w", key, err)
	}
	return nil
}

// write replaces the named collection with the JSON encoding of v.
func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode collection %q: %w", key, err)
	}
	row := collectionRow{Key: key, Value: data}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("write collection %q: %w", key, err)
	}
	return nil
}

func (s *Store) readReports(ctx context.Context) ([]domain.Report, error) {
	var reports []domain.Report
	if err := s.read(ctx, reportsKey, &reports); err != nil {
		return nil, err
	}
	for i := range reports {
		reports[i].Normalize()
	}
	return reports, nil
}

func (s *Store) readUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.read(ctx, usersKey, &users); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

// Reports returns every stored report, schema-backfilled.
func (s *Store) Reports(ctx context.Context) ([]domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readReports(ctx)
}

// AppendReport adds a report to the collection.
func (s *Store) AppendReport(ctx context.Context, r domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.readReports(ctx)
	if err != nil {
		return err
	}
	return s.write(ctx, reportsKey, append(reports, r))
}

// UpdateReport applies fn to the report with the given id and persists the
// collection, returning the updated report.
func (s *Store) UpdateReport(ctx context.Context, id string, fn func(*domain.Report)) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.readReports(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	for i := range reports {
		if reports[i].ID == id {
			fn(&reports[i])
			if err := s.write(ctx, reportsKey, reports); err != nil {
				return domain.Report{}, err
			}
			return reports[i], nil
		}
	}
	return domain.Report{}, ErrReportNotFound
}

// Users returns every stored user, schema-backfilled.
func (s *Store) Users(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUsers(ctx)
}

// UserByEmail looks a user up by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, ErrUserNotFound
}

// UpsertUser replaces the stored user with the same email, or appends a new
// one, and keeps the current session user in sync.
func (s *Store) UpsertUser(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range users {
		if users[i].Email == u.Email {
			users[i] = u
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, u)
	}
	if err := s.write(ctx, usersKey, users); err != nil {
		return err
	}
	return s.syncCurrentUser(ctx, u.Email, func(cu *domain.User) { *cu = u })
}

// UpdateUserByEmail applies fn to the stored user with the given email and
// mirrors the change onto the current session user when the emails match.
func (s *Store) UpdateUserByEmail(ctx context.Context, email string, fn func(*domain.User)) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for i := range users {
		if users[i].Email == email {
			fn(&users[i])
			if err := s.write(ctx, usersKey, users); err != nil {
				return domain.User{}, err
			}
			updated := users[i]
			if err := s.syncCurrentUser(ctx, email, func(cu *domain.User) { *cu = updated }); err != nil {
				return domain.User{}, err
			}
			return updated, nil
		}
	}
	return domain.User{}, ErrUserNotFound
}

// AppendNotification prepends a notification to the target user's inbox.
// An unknown email is not an error: a report may reference a user that no
// longer exists, and the current session user is still updated on a match.
func (s *Store) AppendNotification(ctx context.Context, email string, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Email == email {
			users[i].Notifications = append([]domain.Notification{n}, users[i].Notifications...)
			if err := s.write(ctx, usersKey, users); err != nil {
				return err
			}
			break
		}
	}
	return s.syncCurrentUser(ctx, email, func(cu *domain.User) {
		cu.Notifications = append([]domain.Notification{n}, cu.Notifications...)
	})
}

// CurrentUser returns the session user, or nil when nobody is signed in.
func (s *Store) CurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCurrentUser(ctx)
}

// SetCurrentUser stores the session user; nil signs out.
func (s *Store) SetCurrentUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, currentUserKey, u)
}

func (s *Store) readCurrentUser(ctx context.Context) (*domain.User, error) {
	var u *domain.User
	if err := s.read(ctx, currentUserKey, &u); err != nil {
		return nil, err
	}
	if u != nil {
		u.Normalize()
	}
	return u, nil
}

// syncCurrentUser applies fn to the current session user when their email
// matches. Callers hold the store mutex.
func (s *Store) syncCurrentUser(ctx context.Context, email string, fn func(*domain.User)) error {
	current, err := s.readCurrentUser(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.Email != email {
		return nil
	}
	fn(current)
	return s.write(ctx, currentUserKey, current)
}
