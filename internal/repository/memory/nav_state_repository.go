package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// NavState is the per-session navigation cursor kept in memory between
// requests. Dirty marks that an external edit notification arrived, so
// the next navigation runs the cheap anchor-adjustment sweep first.
type NavState struct {
	SessionId    uuid.UUID
	CurrentIndex int
	Dirty        bool
	LastAccess   time.Time
}

type NavStateRepository struct {
	cache *cache.Cache
}

func NewNavStateRepository() *NavStateRepository {
	// Default expiration of 1 hour, purge every 10 minutes. Expiry only
	// drops the cursor cache; the durable index lives on the session row.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &NavStateRepository{
		cache: c,
	}
}

func (r *NavStateRepository) Save(state *NavState) {
	state.LastAccess = time.Now()
	r.cache.Set(state.SessionId.String(), state, cache.DefaultExpiration)
}

func (r *NavStateRepository) Get(sessionId uuid.UUID) (*NavState, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*NavState), true
	}
	return nil, false
}

func (r *NavStateRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}
