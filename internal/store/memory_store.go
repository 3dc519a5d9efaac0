package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
)

// MemoryStore keeps everything in process memory. It serves local
// development (STORE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu sync.RWMutex

	complaints map[string]*models.Complaint
	notes      map[string][]models.InternalNote
	audit      map[string][]models.AuditLog
	staff      map[string]*models.StaffUser
	tokens     map[string]*models.RefreshToken
	logs       []models.SystemLog
	seq        uint

	// Clock stamps created/updated times. Defaults to time.Now in UTC.
	Clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		complaints: make(map[string]*models.Complaint),
		notes:      make(map[string][]models.InternalNote),
		audit:      make(map[string][]models.AuditLog),
		staff:      make(map[string]*models.StaffUser),
		tokens:     make(map[string]*models.RefreshToken),
		Clock:      func() time.Time { return time.Now().UTC() },
	}
}

func cloneComplaint(c *models.Complaint) *models.Complaint {
	out := *c
	out.PasscodeHash = cloneString(c.PasscodeHash)
	out.AssignedTo = cloneString(c.AssignedTo)
	out.AttachmentURL = cloneString(c.AttachmentURL)
	out.StoragePath = cloneString(c.StoragePath)
	out.PublicUpdates = append([]models.PublicUpdate(nil), c.PublicUpdates...)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (s *MemoryStore) nextID() uint {
	s.seq++
	return s.seq
}

func (s *MemoryStore) CreateComplaint(_ context.Context, c *models.Complaint, audit *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.complaints[c.ComplaintID]; exists {
		return ErrDuplicate
	}
	now := s.Clock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Status == "" {
		c.Status = models.StatusSubmitted
	}
	s.complaints[c.ComplaintID] = cloneComplaint(c)
	if audit != nil {
		s.audit[c.ComplaintID] = append(s.audit[c.ComplaintID], *audit)
	}
	return nil
}

func (s *MemoryStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	return s.FindVisible(ctx, policy.Visibility{All: true}, id)
}

func (s *MemoryStore) FindVisible(_ context.Context, vis policy.Visibility, id string) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.complaints[id]
	if !ok || !vis.Allows(c) {
		return nil, ErrNotFound
	}
	return cloneComplaint(c), nil
}

func (s *MemoryStore) ListComplaints(_ context.Context, vis policy.Visibility, q ListQuery) ([]models.Complaint, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]models.Complaint, 0)
	for _, c := range s.complaints {
		if !vis.Allows(c) || !matches(c, q, term) {
			continue
		}
		matched = append(matched, *cloneComplaint(c))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ComplaintID < matched[j].ComplaintID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if q.Limit > 0 {
		start := q.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func matches(c *models.Complaint, q ListQuery, term string) bool {
	if q.Status != "" && c.Status != q.Status {
		return false
	}
	if q.Category != "" {
		if q.Category == models.CategoryOther {
			if !strings.HasPrefix(c.Category, models.CategoryOther) {
				return false
			}
		} else if c.Category != q.Category {
			return false
		}
	}
	if q.Severity != "" && c.Severity != q.Severity {
		return false
	}
	if term != "" {
		haystack := strings.ToLower(c.ComplaintID + "\n" + c.Description + "\n" + c.Location)
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func (s *MemoryStore) Mutate(_ context.Context, vis policy.Visibility, id string, m Mutation) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.complaints[id]
	if !ok || !vis.Allows(stored) {
		return nil, ErrNotFound
	}
	if m.ExpectedVersion != nil && *m.ExpectedVersion != stored.Version {
		return nil, ErrVersionConflict
	}

	var audit *models.AuditLog
	if m.Prepare != nil {
		var err error
		if audit, err = m.Prepare(cloneComplaint(stored)); err != nil {
			return nil, err
		}
	}

	now := s.Clock()
	applyMutation(stored, m, now)
	if m.PublicUpdate != nil {
		m.PublicUpdate.ID = s.nextID()
		m.PublicUpdate.ComplaintID = id
		stored.PublicUpdates = append(stored.PublicUpdates, *m.PublicUpdate)
	}
	if m.Note != nil {
		m.Note.ID = s.nextID()
		m.Note.ComplaintID = id
		s.notes[id] = append(s.notes[id], *m.Note)
	}
	if audit != nil {
		s.audit[id] = append(s.audit[id], *audit)
	}
	return cloneComplaint(stored), nil
}

func (s *MemoryStore) ListInternalNotes(_ context.Context, id string) ([]models.InternalNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.InternalNote(nil), s.notes[id]...), nil
}

func (s *MemoryStore) AppendAudit(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit[entry.ComplaintID] = append(s.audit[entry.ComplaintID], *entry)
	return nil
}

func (s *MemoryStore) ListAudit(_ context.Context, id string) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.audit[id]...), nil
}

func (s *MemoryStore) CreateStaff(_ context.Context, u *models.StaffUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	if _, exists := s.staff[u.UID]; exists {
		return ErrDuplicate
	}
	for _, existing := range s.staff {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	now := s.Clock()
	u.CreatedAt, u.UpdatedAt = now, now
	copied := *u
	s.staff[u.UID] = &copied
	return nil
}

func (s *MemoryStore) GetStaff(_ context.Context, uid string) (*models.StaffUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.staff[uid]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) GetStaffByEmail(_ context.Context, email string) (*models.StaffUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.staff {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListStaff(_ context.Context) ([]models.StaffUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StaffUser, 0, len(s.staff))
	for _, u := range s.staff {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CreateRefreshToken(_ context.Context, t *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[t.TokenHash]; exists {
		return ErrDuplicate
	}
	t.CreatedAt = s.Clock()
	copied := *t
	s.tokens[t.TokenHash] = &copied
	return nil
}

func (s *MemoryStore) FindRefreshToken(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.Revoked {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *MemoryStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (s *MemoryStore) WriteSystemLogs(_ context.Context, entries []models.SystemLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entries...)
	return nil
}

func (s *MemoryStore) PruneSystemLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.logs[:0]
	var pruned int64
	for _, entry := range s.logs {
		if entry.Timestamp.Before(before) {
			pruned++
			continue
		}
		kept = append(kept, entry)
	}
	s.logs = kept
	return pruned, nil
}

// SystemLogs returns a copy of the buffered log entries.
func (s *MemoryStore) SystemLogs() []models.SystemLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SystemLog(nil), s.logs...)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
