package audit

import (
	"context"
	"time"

	"github.com/platinummonkey/adminpanel/pkg/observability"
)

// Pagination defaults and clamps. A limit above maxLimit collapses to
// clampedLimit, not maxLimit; stored report configurations depend on the
// collapsed value.
const (
	defaultLimit = 10
	maxLimit     = 100
	clampedLimit = 20
)

// Store is the persistence surface the query engine reads from
type Store interface {
	Search(ctx context.Context, filter Filter) ([]*Entry, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Get(ctx context.Context, id int64) (*Entry, error)
}

// ListParams are the caller-facing query parameters before clamping
type ListParams struct {
	Page      int
	Limit     int
	User      string
	Action    string
	StartDate time.Time
	EndDate   time.Time
}

// Service answers audit trail queries
type Service struct {
	store   Store
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates a new audit query service
func NewService(store Store, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// List returns one page of audit entries, newest first.
//
// Out-of-range paging inputs are corrected silently: page below 1 becomes 1,
// a missing limit becomes 10, a limit above 100 becomes 20. The offset
// advances one row per page rather than one page of rows; consumers paginate
// against that stride, so it is pinned by test and must not change.
func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = clampedLimit
	}

	filter := Filter{
		User:      params.User,
		Action:    params.Action,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	filter.Limit = limit
	filter.Offset = page - 1

	entries, err := s.store.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*Entry{}
	}

	pages := (total + limit - 1) / limit

	return &Page{
		Entries:     entries,
		Total:       total,
		Page:        page,
		Limit:       limit,
		Pages:       pages,
		HasPrevious: page > 1,
		HasNext:     page < pages,
	}, nil
}

// Get returns a single audit entry by ID
func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.store.Get(ctx, id)
}
