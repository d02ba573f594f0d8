package contact

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-contacts-api/internal/domain"
)

const (
	fieldName     = "name"
	fieldSurname  = "surname"
	fieldEmail    = "email"
	fieldPhone    = "phone"
	fieldBirthday = "birthday"
)

const defaultListLimit = 10

// birthdayWindow is the number of days ahead scanned for upcoming birthdays.
const birthdayWindow = 7

// ListFilter narrows and pages a contact listing. Name, Surname and Email
// match case-insensitively as substrings.
type ListFilter struct {
	Limit   int
	Offset  int
	Name    string
	Surname string
	Email   string
}

type Service interface {
	List(ctx context.Context, ownerID string, filter ListFilter) ([]domain.Contact, error)
	Get(ctx context.Context, ownerID, contactID string) (*domain.Contact, error)
	Create(ctx context.Context, ownerID string, req domain.ContactRequest) (*domain.Contact, error)
	Update(ctx context.Context, ownerID, contactID string, req domain.ContactRequest) (*domain.Contact, error)
	Delete(ctx context.Context, ownerID, contactID string) (*domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID string) ([]domain.Contact, error)
}

type contactStore interface {
	Put(ctx context.Context, c *domain.Contact) error
	Get(ctx context.Context, contactID string) (*domain.Contact, error)
	GetByEmail(ctx context.Context, email string) (*domain.Contact, error)
	QueryByOwner(ctx context.Context, userID string) ([]domain.Contact, error)
	Update(ctx context.Context, contactID string, updates map[string]interface{}) error
	Delete(ctx context.Context, contactID string) error
}

type idGenerator func() string

type service struct {
	repo  contactStore
	newID idGenerator
	now   func() time.Time
}

type ServiceDeps struct {
	ContactRepo contactStore
	NewID       idGenerator
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:  deps.ContactRepo,
		newID: deps.NewID,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns the owner's contacts ordered by contact id, filtered and
// paged in memory. An empty result is a valid page, not an error.
func (s *service) List(ctx context.Context, ownerID string, filter ListFilter) ([]domain.Contact, error) {
	all, err := s.repo.QueryByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Contact, 0, len(all))
	for _, c := range all {
		if !matchesFilter(c, filter) {
			continue
		}
		matched = append(matched, c)
	}
	// ULIDs sort lexicographically by creation time.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ContactID < matched[j].ContactID })

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Contact{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// Get fetches one contact. A contact owned by someone else is reported as
// absent rather than forbidden, so ids cannot be probed across accounts.
func (s *service) Get(ctx context.Context, ownerID, contactID string) (*domain.Contact, error) {
	c, err := s.repo.Get(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if c.UserID != ownerID {
		return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, ownerID string, req domain.ContactRequest) (*domain.Contact, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("contact email already exists: %w", domain.ErrConflict)
	}
	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := &domain.Contact{
		ContactID: s.newID(),
		UserID:    ownerID,
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  birthday,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces every mutable field of the contact with the request body.
func (s *service) Update(ctx context.Context, ownerID, contactID string, req domain.ContactRequest) (*domain.Contact, error) {
	existing, err := s.Get(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	if req.Email != existing.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, fmt.Errorf("contact email already exists: %w", domain.ErrConflict)
		}
	}
	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		fieldName:     req.Name,
		fieldSurname:  req.Surname,
		fieldEmail:    req.Email,
		fieldPhone:    req.Phone,
		fieldBirthday: birthday.Format(time.RFC3339),
	}
	if err := s.repo.Update(ctx, contactID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, contactID)
}

// Delete removes the contact and returns its last state.
func (s *service) Delete(ctx context.Context, ownerID, contactID string) (*domain.Contact, error) {
	c, err := s.Get(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, contactID); err != nil {
		return nil, err
	}
	return c, nil
}

// UpcomingBirthdays returns contacts whose birthday falls within the next
// seven days. The comparison is on month and day only; the stored year is
// ignored. Month and day are compared independently, which can over-match
// when the whole window sits inside one month.
func (s *service) UpcomingBirthdays(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	all, err := s.repo.QueryByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	end := now.AddDate(0, 0, birthdayWindow)

	result := make([]domain.Contact, 0)
	for _, c := range all {
		b := c.Birthday
		inCurrent := b.Month() == now.Month() && b.Day() >= now.Day()
		inNext := b.Month() == end.Month() && b.Day() <= end.Day()
		if inCurrent || inNext {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ContactID < result[j].ContactID })
	return result, nil
}

func matchesFilter(c domain.Contact, f ListFilter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Surname != "" && !strings.Contains(strings.ToLower(c.Surname), strings.ToLower(f.Surname)) {
		return false
	}
	if f.Email != "" && !strings.Contains(strings.ToLower(c.Email), strings.ToLower(f.Email)) {
		return false
	}
	return true
}

func parseBirthday(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birthday %q: %w", s, domain.ErrBadRequest)
	}
	return t, nil
}
