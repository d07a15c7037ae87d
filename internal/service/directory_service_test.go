package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/events"
	"github.com/mutooni/mutooni-api/internal/observability"
	"github.com/mutooni/mutooni-api/internal/repository/repositorytest"
	"github.com/mutooni/mutooni-api/internal/service"
)

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func newDispatcher() (events.Dispatcher, *eventLog) {
	d := events.NewInMemoryDispatcher(zap.NewNop())
	log := &eventLog{}
	d.SubscribeAll(log.handle)
	return d, log
}

func TestDirectoryService_GetOrCreateIsIdempotent(t *testing.T) {
	users := repositorytest.NewUsers()
	dispatcher, log := newDispatcher()
	svc := service.NewDirectoryService(users, dispatcher, observability.NewMetrics(), zap.NewNop(), "")
	claims := &domain.IdentityClaims{Subject: "firebase-uid-42"}

	first, err := svc.GetOrCreate(context.Background(), claims)
	require.NoError(t, err)
	second, err := svc.GetOrCreate(context.Background(), claims)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, users.Count())
	assert.Equal(t, []events.EventType{events.EventUserProvisioned}, log.types())

	assert.Equal(t, "firebase-uid-42@firebase.local", first.Email)
	assert.Equal(t, domain.RoleStandard, first.Role)
	assert.True(t, first.Active)
}

func TestDirectoryService_UsesClaimEmail(t *testing.T) {
	svc := service.NewDirectoryService(repositorytest.NewUsers(), nil, nil, nil, "example.org")

	user, err := svc.GetOrCreate(context.Background(), &domain.IdentityClaims{Subject: "uid-1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	user, err = svc.GetOrCreate(context.Background(), &domain.IdentityClaims{Subject: "uid-2"})
	require.NoError(t, err)
	assert.Equal(t, "uid-2@example.org", user.Email)
}

func TestDirectoryService_ConcurrentFirstRequestsShareOneUser(t *testing.T) {
	const callers = 8

	users := repositorytest.NewUsers()
	var missed sync.WaitGroup
	missed.Add(callers)
	users.AfterLookupMiss = func(string) {
		// hold every caller between lookup and insert so all of them race on Create
		missed.Done()
		missed.Wait()
	}
	svc := service.NewDirectoryService(users, nil, observability.NewMetrics(), zap.NewNop(), "")

	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := svc.GetOrCreate(context.Background(), &domain.IdentityClaims{Subject: "same-subject"})
			errs[i] = err
			if user != nil {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, users.Count())
	assert.Equal(t, 1, users.Creates())
}

func TestDirectoryService_RejectsEmptySubject(t *testing.T) {
	svc := service.NewDirectoryService(repositorytest.NewUsers(), nil, nil, nil, "")

	_, err := svc.GetOrCreate(context.Background(), &domain.IdentityClaims{Subject: "  "})
	assert.ErrorIs(t, err, service.ErrEmptySubject)
}

func TestDirectoryService_PropagatesStoreFailure(t *testing.T) {
	users := repositorytest.NewUsers()
	users.Err = assert.AnError
	svc := service.NewDirectoryService(users, nil, nil, nil, "")

	_, err := svc.GetOrCreate(context.Background(), &domain.IdentityClaims{Subject: "uid"})
	assert.ErrorIs(t, err, assert.AnError)
}
