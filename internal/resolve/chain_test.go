package resolve

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ashureev/profiledesk/internal/apperr"
	"github.com/ashureev/profiledesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	person    *domain.ExternalProfile
	personErr error

	dependentCalls atomic.Int32
	lastPersonID   string
}

func (f *fakeAPI) GetPerson(_ context.Context, _ string) (*domain.ExternalProfile, error) {
	return f.person, f.personErr
}

func (f *fakeAPI) PersonSearchHistory(_ context.Context, personID string) (*domain.SearchHistory, error) {
	f.dependentCalls.Add(1)
	f.lastPersonID = personID
	return &domain.SearchHistory{Entries: []domain.SearchEntry{{Query: "q"}}}, nil
}

func (f *fakeAPI) PersonServiceStatus(_ context.Context, personID string) (*domain.ServiceStatus, error) {
	f.dependentCalls.Add(1)
	f.lastPersonID = personID
	return &domain.ServiceStatus{Status: "active"}, nil
}

func (f *fakeAPI) PersonPersonalityAnalysis(_ context.Context, personID string) (*domain.AnalysisReport, error) {
	f.dependentCalls.Add(1)
	f.lastPersonID = personID
	return &domain.AnalysisReport{PersonalityType: "Driver"}, nil
}

func TestRunChainsResolvedID(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{person: &domain.ExternalProfile{ID: "p-9"}}
	c := NewChain(api, nil)

	id, doc, err := c.Run(context.Background(), " https://www.linkedin.com/in/x ", PersonalityAnalysis)
	require.NoError(t, err)
	assert.Equal(t, "p-9", id.PersonID)
	assert.Equal(t, "https://www.linkedin.com/in/x", id.ProfileURL)
	require.NotNil(t, doc.Analysis)
	assert.Equal(t, "Driver", doc.Analysis.PersonalityType)
	assert.Equal(t, "p-9", api.lastPersonID)
}

func TestRunShortCircuitsOnBadStatus(t *testing.T) {
	t.Parallel()

	upstream := apperr.BadStatus(404, "not found")
	api := &fakeAPI{personErr: upstream}
	c := NewChain(api, nil)

	_, _, err := c.Run(context.Background(), "https://www.linkedin.com/in/missing", SearchHistory)
	require.Error(t, err)
	assert.Same(t, upstream, err)
	assert.Equal(t, int32(0), api.dependentCalls.Load())
}

func TestRunShortCircuitsOnMissingID(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{person: &domain.ExternalProfile{Name: "No ID"}}
	c := NewChain(api, nil)

	_, _, err := c.Run(context.Background(), "https://www.linkedin.com/in/noid", ServiceStatus)
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))
	assert.Equal(t, int32(0), api.dependentCalls.Load())
}

func TestResolveIdentityRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	c := NewChain(&fakeAPI{}, nil)
	_, err := c.ResolveIdentity(context.Background(), "   ")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestFetchDependentKinds(t *testing.T) {
	t.Parallel()

	c := NewChain(&fakeAPI{}, nil)
	id := domain.ResolvedIdentity{PersonID: "p-1"}

	doc, err := c.FetchDependent(context.Background(), id, SearchHistory)
	require.NoError(t, err)
	assert.NotNil(t, doc.SearchHistory)

	doc, err = c.FetchDependent(context.Background(), id, ServiceStatus)
	require.NoError(t, err)
	assert.Equal(t, "active", doc.ServiceStatus.Status)

	_, err = c.FetchDependent(context.Background(), id, DependentKind("bogus"))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
