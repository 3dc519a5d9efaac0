package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
)

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ForViewer returns a GORM scope restricting complaints to those vis allows.
func ForViewer(vis policy.Visibility) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case vis.All:
			return db
		case vis.AssignedTo != "":
			return db.Where("assigned_to = ?", vis.AssignedTo)
		default:
			return db.Where("1 = 0")
		}
	}
}

func byTimeline(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC, id ASC")
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) CreateComplaint(ctx context.Context, c *models.Complaint, audit *models.AuditLog) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Plain INSERT: a colliding tracking ID must fail, never overwrite.
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		if audit != nil {
			return tx.Create(audit).Error
		}
		return nil
	})
	if err = translate(err); err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

func (s *GormStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	return s.FindVisible(ctx, policy.Visibility{All: true}, id)
}

func (s *GormStore) FindVisible(ctx context.Context, vis policy.Visibility, id string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.db.WithContext(ctx).
		Scopes(ForViewer(vis)).
		Preload("PublicUpdates", byTimeline).
		Where("complaint_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// likeWildcards makes a search term match literally under LIKE/ILIKE, whose
// default escape character in PostgreSQL is the backslash.
var likeWildcards = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func containsPattern(term string) string {
	return "%" + likeWildcards.Replace(term) + "%"
}

// filtered builds the listing query for q within what vis allows.
func filtered(db *gorm.DB, vis policy.Visibility, q ListQuery) *gorm.DB {
	base := db.Model(&models.Complaint{}).Scopes(ForViewer(vis))
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		if q.Category == models.CategoryOther {
			base = base.Where("category LIKE ?", models.CategoryOther+"%")
		} else {
			base = base.Where("category = ?", q.Category)
		}
	}
	if q.Severity != "" {
		base = base.Where("severity = ?", q.Severity)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		like := containsPattern(term)
		base = base.Where("complaint_id ILIKE ? OR description ILIKE ? OR location ILIKE ?", like, like, like)
	}
	return base
}

func (s *GormStore) ListComplaints(ctx context.Context, vis policy.Visibility, q ListQuery) ([]models.Complaint, int64, error) {
	base := filtered(s.db.WithContext(ctx), vis, q)
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := base.Preload("PublicUpdates", byTimeline).Order("created_at DESC")
	if q.Limit > 0 {
		find = find.Limit(q.Limit).Offset(q.Offset)
	}
	var out []models.Complaint
	if err := find.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *GormStore) Mutate(ctx context.Context, vis policy.Visibility, id string, m Mutation) (*models.Complaint, error) {
	var out models.Complaint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Complaint
		if err := lockVisible(tx, vis, id, &current).Error; err != nil {
			return err
		}
		if m.ExpectedVersion != nil && *m.ExpectedVersion != current.Version {
			return ErrVersionConflict
		}

		var audit *models.AuditLog
		if m.Prepare != nil {
			var err error
			if audit, err = m.Prepare(&current); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"updated_at": now,
			"version":    current.Version + 1,
		}
		if m.Status != nil {
			updates["status"] = *m.Status
		}
		if m.AssignedTo != nil {
			if *m.AssignedTo == "" {
				updates["assigned_to"] = nil
			} else {
				updates["assigned_to"] = *m.AssignedTo
			}
		}
		res := updateAtVersion(tx, id, current.Version, updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if m.PublicUpdate != nil {
			m.PublicUpdate.ComplaintID = id
			if err := tx.Create(m.PublicUpdate).Error; err != nil {
				return err
			}
		}
		if m.Note != nil {
			m.Note.ComplaintID = id
			if err := tx.Create(m.Note).Error; err != nil {
				return err
			}
		}
		if audit != nil {
			if err := tx.Create(audit).Error; err != nil {
				return err
			}
		}

		return tx.Preload("PublicUpdates", byTimeline).
			Where("complaint_id = ?", id).
			First(&out).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// lockVisible reads id for update, within what vis allows.
func lockVisible(tx *gorm.DB, vis policy.Visibility, id string, dest *models.Complaint) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(ForViewer(vis)).
		Where("complaint_id = ?", id).
		First(dest)
}

// updateAtVersion writes updates only while the row still carries version.
func updateAtVersion(tx *gorm.DB, id string, version int, updates map[string]interface{}) *gorm.DB {
	return tx.Model(&models.Complaint{}).
		Where("complaint_id = ? AND version = ?", id, version).
		Updates(updates)
}

func (s *GormStore) ListInternalNotes(ctx context.Context, id string) ([]models.InternalNote, error) {
	var notes []models.InternalNote
	err := s.db.WithContext(ctx).
		Where("complaint_id = ?", id).
		Order("date ASC, id ASC").
		Find(&notes).Error
	return notes, err
}

func (s *GormStore) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) ListAudit(ctx context.Context, id string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("complaint_id = ?", id).
		Order("timestamp ASC").
		Find(&entries).Error
	return entries, err
}

func (s *GormStore) CreateStaff(ctx context.Context, u *models.StaffUser) error {
	if err := translate(s.db.WithContext(ctx).Create(u).Error); err != nil {
		return fmt.Errorf("failed to create staff user: %w", err)
	}
	return nil
}

func (s *GormStore) GetStaff(ctx context.Context, uid string) (*models.StaffUser, error) {
	var u models.StaffUser
	if err := s.db.WithContext(ctx).First(&u, "uid = ?", uid).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetStaffByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	var u models.StaffUser
	if err := s.db.WithContext(ctx).First(&u, "LOWER(email) = ?", strings.ToLower(email)).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) ListStaff(ctx context.Context) ([]models.StaffUser, error) {
	var users []models.StaffUser
	err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error
	return users, err
}

func (s *GormStore) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *GormStore) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND revoked = false", tokenHash).
		First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *GormStore) WriteSystemLogs(ctx context.Context, entries []models.SystemLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(entries, 50).Error
}

func (s *GormStore) PruneSystemLogs(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("timestamp < ?", before).Delete(&models.SystemLog{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
