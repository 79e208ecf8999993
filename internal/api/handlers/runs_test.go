package handlers

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/RMahshie/noisemap/internal/repository/memory"
	"github.com/RMahshie/noisemap/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmissionRepository implements repository.EmissionRepository for testing
type MockEmissionRepository struct {
	mock.Mock
}

func (m *MockEmissionRepository) CreateRun(ctx context.Context, run *models.EmissionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockEmissionRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.EmissionRun, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.EmissionRun), args.Error(1)
}

func (m *MockEmissionRepository) UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockEmissionRepository) CompleteRun(ctx context.Context, id uuid.UUID, sourceCount, failedRows int, exportKey *string) error {
	args := m.Called(ctx, id, sourceCount, failedRows, exportKey)
	return args.Error(0)
}

func (m *MockEmissionRepository) FailRun(ctx context.Context, id uuid.UUID, errorMsg string) error {
	args := m.Called(ctx, id, errorMsg)
	return args.Error(0)
}

func (m *MockEmissionRepository) StoreEmissions(ctx context.Context, records []*models.EmissionRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockEmissionRepository) GetEmission(ctx context.Context, runID uuid.UUID, sourceID int64) (*models.EmissionRecord, error) {
	args := m.Called(ctx, runID, sourceID)
	return args.Get(0).(*models.EmissionRecord), args.Error(1)
}

// MockEmissionService implements processing.EmissionService for testing
type MockEmissionService struct {
	mock.Mock
}

func (m *MockEmissionService) StartRun(ctx context.Context) (*models.EmissionRun, error) {
	args := m.Called(ctx)
	return args.Get(0).(*models.EmissionRun), args.Error(1)
}

func (m *MockEmissionService) ProcessRun(ctx context.Context, run *models.EmissionRun, table repository.SourceTable) error {
	args := m.Called(ctx, run, table)
	return args.Error(0)
}

func (m *MockEmissionService) ProcessTable(ctx context.Context, table repository.SourceTable) (*models.EmissionRun, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(*models.EmissionRun), args.Error(1)
}

func tableOf(table repository.SourceTable, err error) TableOpener {
	return func(context.Context) (repository.SourceTable, error) {
		return table, err
	}
}

func TestCreateRun(t *testing.T) {
	repo := new(MockEmissionRepository)
	svc := new(MockEmissionService)
	table := memory.NewTable([]string{"PK"})

	run := &models.EmissionRun{ID: uuid.New().String(), Status: models.RunPending}
	done := make(chan struct{})
	svc.On("StartRun", mock.Anything).Return(run, nil)
	svc.On("ProcessRun", mock.Anything, run, table).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	h := NewRunHandler(repo, svc, tableOf(table, nil))
	resp, err := h.CreateRun(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, run.ID, resp.Body.ID)
	assert.NotEmpty(t, resp.Body.Message)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background run did not start")
	}
	svc.AssertExpectations(t)
}

func TestCreateRunOpenTableFailure(t *testing.T) {
	repo := new(MockEmissionRepository)
	svc := new(MockEmissionService)

	runID := uuid.New()
	done := make(chan struct{})
	svc.On("StartRun", mock.Anything).Return(&models.EmissionRun{ID: runID.String()}, nil)
	repo.On("FailRun", mock.Anything, runID, mock.AnythingOfType("string")).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	h := NewRunHandler(repo, svc, tableOf(nil, errors.New("relation does not exist")))
	_, err := h.CreateRun(context.Background(), &struct{}{})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run was not marked failed")
	}
	svc.AssertNotCalled(t, "ProcessRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRunFailRunError(t *testing.T) {
	repo := new(MockEmissionRepository)
	svc := new(MockEmissionService)

	runID := uuid.New()
	done := make(chan struct{})
	svc.On("StartRun", mock.Anything).Return(&models.EmissionRun{ID: runID.String()}, nil)
	repo.On("FailRun", mock.Anything, runID, mock.AnythingOfType("string")).
		Run(func(mock.Arguments) { close(done) }).
		Return(errors.New("connection reset"))

	h := NewRunHandler(repo, svc, tableOf(nil, errors.New("relation does not exist")))
	resp, err := h.CreateRun(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, runID.String(), resp.Body.ID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("failure was not recorded")
	}
	repo.AssertNumberOfCalls(t, "FailRun", 1)
	svc.AssertNotCalled(t, "ProcessRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRunStartFailure(t *testing.T) {
	svc := new(MockEmissionService)
	svc.On("StartRun", mock.Anything).Return((*models.EmissionRun)(nil), errors.New("db down"))

	h := NewRunHandler(new(MockEmissionRepository), svc, tableOf(nil, nil))
	_, err := h.CreateRun(context.Background(), &struct{}{})
	require.Error(t, err)
	assert.Equal(t, 500, statusOf(t, err))
}

func TestGetRun(t *testing.T) {
	runID := uuid.New()
	tests := []struct {
		name       string
		id         string
		mockSetup  func(*MockEmissionRepository)
		wantStatus int
	}{
		{
			name: "found",
			id:   runID.String(),
			mockSetup: func(repo *MockEmissionRepository) {
				repo.On("GetRun", mock.Anything, runID).Return(&models.EmissionRun{ID: runID.String(), Status: models.RunProcessing}, nil)
			},
		},
		{
			name:       "invalid id",
			id:         "not-a-uuid",
			mockSetup:  func(*MockEmissionRepository) {},
			wantStatus: 400,
		},
		{
			name: "not found",
			id:   runID.String(),
			mockSetup: func(repo *MockEmissionRepository) {
				repo.On("GetRun", mock.Anything, runID).Return((*models.EmissionRun)(nil), sql.ErrNoRows)
			},
			wantStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockEmissionRepository)
			tt.mockSetup(repo)
			h := NewRunHandler(repo, new(MockEmissionService), tableOf(nil, nil))

			resp, err := h.GetRun(context.Background(), &models.GetRunRequest{ID: tt.id})
			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.RunProcessing, resp.Body.Status)
			repo.AssertExpectations(t)
		})
	}
}

func TestGetSourceEmission(t *testing.T) {
	runID := uuid.New()
	completed := &models.EmissionRun{ID: runID.String(), Status: models.RunCompleted}
	record := &models.EmissionRecord{
		RunID:    runID.String(),
		SourceID: 17,
		Ordinal:  3,
		Emission: models.SourceEmission{Lden: []float64{1, 2}},
	}

	tests := []struct {
		name       string
		mockSetup  func(*MockEmissionRepository)
		wantStatus int
	}{
		{
			name: "stored source",
			mockSetup: func(repo *MockEmissionRepository) {
				repo.On("GetRun", mock.Anything, runID).Return(completed, nil)
				repo.On("GetEmission", mock.Anything, runID, int64(17)).Return(record, nil)
			},
		},
		{
			name: "run still processing",
			mockSetup: func(repo *MockEmissionRepository) {
				repo.On("GetRun", mock.Anything, runID).Return(&models.EmissionRun{ID: runID.String(), Status: models.RunProcessing}, nil)
			},
			wantStatus: 409,
		},
		{
			name: "unknown source",
			mockSetup: func(repo *MockEmissionRepository) {
				repo.On("GetRun", mock.Anything, runID).Return(completed, nil)
				repo.On("GetEmission", mock.Anything, runID, int64(17)).Return((*models.EmissionRecord)(nil), sql.ErrNoRows)
			},
			wantStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockEmissionRepository)
			tt.mockSetup(repo)
			h := NewRunHandler(repo, new(MockEmissionService), tableOf(nil, nil))

			resp, err := h.GetSourceEmission(context.Background(), &models.GetSourceEmissionRequest{ID: runID.String(), SourceID: 17})
			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 3, resp.Body.Ordinal)
			assert.Equal(t, []float64{1, 2}, resp.Body.Power.Lden)
			repo.AssertExpectations(t)
		})
	}
}
