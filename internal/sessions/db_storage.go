package sessions

import (
	"sync"
	"time"

	"rrnagar-backend/internal/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStorage keeps session payloads in the session_records table so sessions
// survive restarts and are shared between processes using the same database.
type DBStorage struct {
	db        *gorm.DB
	done      chan struct{}
	closeOnce sync.Once
}

// NewDBStorage returns a storage over db. When gcInterval is positive a
// background loop purges expired rows at that interval until Close.
func NewDBStorage(db *gorm.DB, gcInterval time.Duration) *DBStorage {
	s := &DBStorage{db: db, done: make(chan struct{})}
	if gcInterval > 0 {
		go s.gcLoop(gcInterval)
	}
	return s
}

func (s *DBStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var rec models.SessionRecord
	err := s.db.Where("id = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if rec.ExpiresAt != 0 && rec.ExpiresAt <= time.Now().Unix() {
		return nil, nil
	}
	return rec.Data, nil
}

func (s *DBStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	rec := models.SessionRecord{ID: key, Data: val}
	if exp > 0 {
		rec.ExpiresAt = time.Now().Add(exp).Unix()
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&rec).Error
	return errors.Wrap(err, "save session")
}

func (s *DBStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return errors.Wrap(s.db.Where("id = ?", key).Delete(&models.SessionRecord{}).Error, "delete session")
}

func (s *DBStorage) Reset() error {
	return errors.Wrap(s.db.Where("1 = 1").Delete(&models.SessionRecord{}).Error, "reset sessions")
}

func (s *DBStorage) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *DBStorage) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.purgeExpired(time.Now()); err != nil {
				zap.L().Warn("session gc failed", zap.Error(err))
			}
		}
	}
}

func (s *DBStorage) purgeExpired(now time.Time) error {
	return s.db.
		Where("expires_at > 0 AND expires_at <= ?", now.Unix()).
		Delete(&models.SessionRecord{}).Error
}
