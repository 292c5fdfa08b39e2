package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"equipment-console/internal/model"
	"equipment-console/internal/repository"
	"equipment-console/internal/view"
	"equipment-console/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockEquipmentList is a mock implementation of EquipmentList
type MockEquipmentList struct {
	ApplyFunc         func(ctx context.Context, query view.Query) error
	ToggleSortFunc    func(ctx context.Context, column string) error
	ReloadFunc        func(ctx context.Context) error
	ConfirmDeleteFunc func(ctx context.Context, id int64) error

	Items   []model.Equipment
	State   view.ListState
	Pending *int64

	Applied   []view.Query
	Toggled   []string
	Reloads   int
	Cancelled int
	Confirmed []int64
}

func (m *MockEquipmentList) Apply(ctx context.Context, query view.Query) (view.ListState, error) {
	m.Applied = append(m.Applied, query)
	if m.ApplyFunc != nil {
		if err := m.ApplyFunc(ctx, query); err != nil {
			return view.ListState{}, err
		}
	}
	return m.snapshot(), nil
}

func (m *MockEquipmentList) ToggleSort(ctx context.Context, column string) (view.ListState, error) {
	m.Toggled = append(m.Toggled, column)
	if m.ToggleSortFunc != nil {
		if err := m.ToggleSortFunc(ctx, column); err != nil {
			return view.ListState{}, err
		}
	}
	return m.snapshot(), nil
}

func (m *MockEquipmentList) Reload(ctx context.Context) (view.ListState, error) {
	m.Reloads++
	if m.ReloadFunc != nil {
		if err := m.ReloadFunc(ctx); err != nil {
			return view.ListState{}, err
		}
	}
	return m.snapshot(), nil
}

func (m *MockEquipmentList) snapshot() view.ListState {
	state := m.State
	state.Items = m.Items
	state.PendingDelete = m.Pending
	return state
}

func (m *MockEquipmentList) RequestDelete(id int64) {
	m.Pending = &id
}

func (m *MockEquipmentList) CancelDelete() {
	m.Cancelled++
	m.Pending = nil
}

func (m *MockEquipmentList) ConfirmDelete(ctx context.Context, id int64) error {
	m.Confirmed = append(m.Confirmed, id)
	if m.ConfirmDeleteFunc != nil {
		return m.ConfirmDeleteFunc(ctx, id)
	}
	if m.Pending == nil || *m.Pending != id {
		return view.ErrNoPendingDelete
	}
	m.Pending = nil
	return nil
}

// MockListSessions hands the same list to every session and records the keys
type MockListSessions struct {
	Shared   *MockEquipmentList
	Sessions []string
}

func (m *MockListSessions) List(session string) EquipmentList {
	m.Sessions = append(m.Sessions, session)
	return m.Shared
}

type MockEquipmentDetail struct {
	LoadFunc func(ctx context.Context, id int64) (*view.Detail, error)
}

func (m *MockEquipmentDetail) Load(ctx context.Context, id int64) (*view.Detail, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, id)
	}
	return &view.Detail{Equipment: &model.Equipment{ID: id}}, nil
}

type MockEquipmentLookup struct {
	GetByCodeFunc func(ctx context.Context, code string) (*model.Equipment, error)
}

func (m *MockEquipmentLookup) GetByCode(ctx context.Context, code string) (*model.Equipment, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	return &model.Equipment{ID: 1, Code: code}, nil
}

type MockSubmitter struct {
	SubmitFunc            func(ctx context.Context, draft model.EquipmentDraft) (*workflow.Outcome, error)
	AttachableOptionsFunc func(ctx context.Context, typeID, brandID int64) (*workflow.AttachableOptions, error)
}

func (m *MockSubmitter) Submit(ctx context.Context, draft model.EquipmentDraft) (*workflow.Outcome, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, draft)
	}
	return &workflow.Outcome{Status: workflow.StatusSucceeded, Equipment: &model.Equipment{ID: 1}}, nil
}

func (m *MockSubmitter) AttachableOptions(ctx context.Context, typeID, brandID int64) (*workflow.AttachableOptions, error) {
	if m.AttachableOptionsFunc != nil {
		return m.AttachableOptionsFunc(ctx, typeID, brandID)
	}
	return &workflow.AttachableOptions{}, nil
}

type MockCharacteristicCatalog struct {
	ListCatalogFunc func(ctx context.Context, search, sortBy string, ascending bool) ([]model.Characteristic, error)
	CreateFunc      func(ctx context.Context, item model.Characteristic) (*model.Characteristic, error)
	UpdateFunc      func(ctx context.Context, id int64, item model.Characteristic) error
	CanDeleteFunc   func(ctx context.Context, id int64) (bool, error)
	DeleteFunc      func(ctx context.Context, id int64) error
	CountFunc       func(ctx context.Context) (int, error)

	Deleted []int64
}

func (m *MockCharacteristicCatalog) ListCatalog(ctx context.Context, search, sortBy string, ascending bool) ([]model.Characteristic, error) {
	if m.ListCatalogFunc != nil {
		return m.ListCatalogFunc(ctx, search, sortBy, ascending)
	}
	return nil, nil
}

func (m *MockCharacteristicCatalog) Create(ctx context.Context, item model.Characteristic) (*model.Characteristic, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, item)
	}
	item.ID = 1
	return &item, nil
}

func (m *MockCharacteristicCatalog) Update(ctx context.Context, id int64, item model.Characteristic) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, item)
	}
	return nil
}

func (m *MockCharacteristicCatalog) CanDelete(ctx context.Context, id int64) (bool, error) {
	if m.CanDeleteFunc != nil {
		return m.CanDeleteFunc(ctx, id)
	}
	return true, nil
}

func (m *MockCharacteristicCatalog) Delete(ctx context.Context, id int64) error {
	m.Deleted = append(m.Deleted, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCharacteristicCatalog) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

type MockReferenceSource struct {
	AllFunc func(ctx context.Context) (*model.References, error)
}

func (m *MockReferenceSource) All(ctx context.Context) (*model.References, error) {
	if m.AllFunc != nil {
		return m.AllFunc(ctx)
	}
	return &model.References{}, nil
}

type MockRunJournal struct {
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*repository.WorkflowRun, error)
	ListPaginatedFunc func(ctx context.Context, params repository.PaginationParams) (*repository.PaginatedResult, error)
}

func (m *MockRunJournal) GetByID(ctx context.Context, id uuid.UUID) (*repository.WorkflowRun, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrWorkflowRunNotFound
}

func (m *MockRunJournal) ListPaginated(ctx context.Context, params repository.PaginationParams) (*repository.PaginatedResult, error) {
	if m.ListPaginatedFunc != nil {
		return m.ListPaginatedFunc(ctx, params)
	}
	return &repository.PaginatedResult{}, nil
}

type MockHealthChecker struct {
	Healthy bool
}

func (m *MockHealthChecker) IsHealthy(ctx context.Context) bool {
	return m.Healthy
}

type testMocks struct {
	list            *MockEquipmentList
	sessions        *MockListSessions
	detail          *MockEquipmentDetail
	lookup          *MockEquipmentLookup
	workflow        *MockSubmitter
	characteristics *MockCharacteristicCatalog
	references      *MockReferenceSource
	journal         *MockRunJournal
	remote          *MockHealthChecker
	notifier        *MockHealthChecker
}

func createTestHandler() (*ConsoleHandler, *testMocks) {
	m := &testMocks{
		list:            &MockEquipmentList{State: view.ListState{Status: view.ListLoaded, SortBy: view.DefaultSortColumn, Ascending: true}},
		detail:          &MockEquipmentDetail{},
		lookup:          &MockEquipmentLookup{},
		workflow:        &MockSubmitter{},
		characteristics: &MockCharacteristicCatalog{},
		references:      &MockReferenceSource{},
		journal:         &MockRunJournal{},
		remote:          &MockHealthChecker{Healthy: true},
		notifier:        &MockHealthChecker{Healthy: true},
	}

	m.sessions = &MockListSessions{Shared: m.list}

	handler := NewConsoleHandler(Dependencies{
		Lists:           m.sessions,
		Detail:          m.detail,
		Lookup:          m.lookup,
		Workflow:        m.workflow,
		Characteristics: m.characteristics,
		References:      m.references,
		Journal:         m.journal,
		RemoteAPI:       m.remote,
		Notifier:        m.notifier,
		States:          []string{"operationnel", "en panne"},
	}, zap.NewNop())
	return handler, m
}

func createJSONRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}
