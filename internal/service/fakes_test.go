package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"vidstream-server/internal/models"
	"vidstream-server/internal/repository"
)

func uuidMustNew(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	history map[uuid.UUID][]models.WatchEntry

	failCreate error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[uuid.UUID]*models.User),
		history: make(map[uuid.UUID][]models.WatchEntry),
	}
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return models.ErrUserAlreadyExists
		}
		if existing.Email == user.Email {
			return models.ErrEmailAlreadyExists
		}
	}
	user.ID = uuid.New()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (r *fakeUserRepo) GetUserByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == identifier || user.Email == identifier {
			clone := *user
			return &clone, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, userID uuid.UUID, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.RefreshToken = refreshToken
	return nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, userID uuid.UUID, fullName, email *string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	if email != nil {
		for id, existing := range r.users {
			if id != userID && existing.Email == *email {
				return nil, models.ErrEmailAlreadyExists
			}
		}
		user.Email = *email
	}
	if fullName != nil {
		user.FullName = *fullName
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) UpdateAvatarURL(_ context.Context, userID uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.AvatarURL = url
	return nil
}

func (r *fakeUserRepo) UpdateCoverURL(_ context.Context, userID uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.CoverURL = url
	return nil
}

func (r *fakeUserRepo) AddWatchEvent(_ context.Context, userID, videoID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return models.ErrUserNotFound
	}
	entry := models.WatchEntry{Video: models.Video{ID: videoID}}
	r.history[userID] = append([]models.WatchEntry{entry}, r.history[userID]...)
	return nil
}

func (r *fakeUserRepo) ListWatchHistory(_ context.Context, userID uuid.UUID, limit int) ([]models.WatchEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.history[userID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]models.WatchEntry, len(entries))
	copy(out, entries)
	return out, nil
}

type subKey struct {
	subscriber uuid.UUID
	channel    uuid.UUID
}

// fakeSubRepo is an in-memory SubscriptionRepository.
type fakeSubRepo struct {
	mu    sync.Mutex
	edges map[subKey]bool
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{edges: make(map[subKey]bool)}
}

var _ repository.SubscriptionRepository = (*fakeSubRepo)(nil)

func (r *fakeSubRepo) Toggle(_ context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := subKey{subscriberID, channelID}
	if r.edges[key] {
		delete(r.edges, key)
		return false, nil
	}
	r.edges[key] = true
	return true, nil
}

func (r *fakeSubRepo) ChannelStats(_ context.Context, channelID uuid.UUID) (*repository.ChannelStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.ChannelStats{}
	for key := range r.edges {
		if key.channel == channelID {
			stats.SubscriberCount++
		}
		if key.subscriber == channelID {
			stats.SubscribedToCount++
		}
	}
	return stats, nil
}

func (r *fakeSubRepo) IsSubscribed(_ context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edges[subKey{subscriberID, channelID}], nil
}

// fakeStatsCache records reads, writes and invalidations.
type fakeStatsCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*repository.ChannelStats
	hits        int
	misses      int
	invalidated []uuid.UUID
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{entries: make(map[uuid.UUID]*repository.ChannelStats)}
}

var _ repository.StatsCache = (*fakeStatsCache)(nil)

func (c *fakeStatsCache) GetChannelStats(_ context.Context, channelID uuid.UUID) (*repository.ChannelStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.entries[channelID]
	if !ok {
		c.misses++
		return nil, repository.ErrCacheMiss
	}
	c.hits++
	clone := *stats
	return &clone, nil
}

func (c *fakeStatsCache) SetChannelStats(_ context.Context, channelID uuid.UUID, stats *repository.ChannelStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *stats
	c.entries[channelID] = &clone
	return nil
}

func (c *fakeStatsCache) InvalidateChannelStats(_ context.Context, channelID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, channelID)
	c.invalidated = append(c.invalidated, channelID)
	return nil
}
