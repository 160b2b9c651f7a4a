package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/patient"
	v1 "github.com/wardflow/wardflow/internal/handler/v1"
	"github.com/wardflow/wardflow/internal/service"
	"github.com/wardflow/wardflow/pkg/metrics"
	"go.uber.org/zap"
)

// One collector per test binary; prometheus rejects duplicate registration.
var testCollector = metrics.NewCollector("wardflow_handler_test")

type stubPatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
	listErr  error
}

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{patients: map[uuid.UUID]*patient.Patient{}}
}

func (s *stubPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.patients[p.ID] = p
	return nil
}

func (s *stubPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (s *stubPatientRepo) Update(_ context.Context, p *patient.Patient) error {
	s.patients[p.ID] = p
	return nil
}

func (s *stubPatientRepo) AppendLog(_ context.Context, _ *patient.LogEntry) error {
	return nil
}

func (s *stubPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.patients, id)
	return nil
}

func (s *stubPatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*patient.Patient
	for _, p := range s.patients {
		out = append(out, p)
	}
	return &patient.PagedPatients{
		Patients:   out,
		TotalCount: int64(len(out)),
		Page:       q.Page,
		PageSize:   q.PageSize,
	}, nil
}

func (s *stubPatientRepo) ExistsByEmail(_ context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	for _, p := range s.patients {
		if p.Email == email && (excludeID == nil || p.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

type stubDepartmentRepo struct{}

func (stubDepartmentRepo) Create(_ context.Context, _ *patient.Department) error { return nil }
func (stubDepartmentRepo) GetByID(_ context.Context, _ uuid.UUID) (*patient.Department, error) {
	return nil, patient.ErrDepartmentNotFound
}
func (stubDepartmentRepo) List(_ context.Context) ([]*patient.Department, error) { return nil, nil }

type stubDoctorRepo struct{}

func (stubDoctorRepo) Create(_ context.Context, _ *patient.Doctor) error { return nil }
func (stubDoctorRepo) GetByIDs(_ context.Context, _ []uuid.UUID) ([]patient.Doctor, error) {
	return nil, nil
}
func (stubDoctorRepo) List(_ context.Context) ([]*patient.Doctor, error) { return nil, nil }

type stubInvoiceRepo struct {
	byPatient map[uuid.UUID][]*billing.Invoice
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{byPatient: map[uuid.UUID][]*billing.Invoice{}}
}

func (s *stubInvoiceRepo) Create(_ context.Context, i *billing.Invoice) error {
	s.byPatient[i.PatientID] = append(s.byPatient[i.PatientID], i)
	return nil
}

func (s *stubInvoiceRepo) GetByID(_ context.Context, _ uuid.UUID) (*billing.Invoice, error) {
	return nil, billing.ErrInvoiceNotFound
}

func (s *stubInvoiceRepo) FindDraftByPatient(_ context.Context, _ uuid.UUID) (*billing.Invoice, error) {
	return nil, billing.ErrInvoiceNotFound
}

func (s *stubInvoiceRepo) Update(_ context.Context, _ *billing.Invoice) error { return nil }

func (s *stubInvoiceRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*billing.Invoice, error) {
	return s.byPatient[patientID], nil
}

type stubAuditRepo struct{}

func (stubAuditRepo) Create(_ context.Context, _ *domain.AuditLog) error { return nil }

func newPatientRouter(repo *stubPatientRepo, invoices *stubInvoiceRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auditSvc := service.NewAuditService(stubAuditRepo{}, testCollector, zap.NewNop())
	patientSvc := service.NewPatientService(repo, stubDepartmentRepo{}, stubDoctorRepo{}, invoices, auditSvc, zap.NewNop())
	h := v1.NewPatientHandler(patientSvc, zap.NewNop())

	r := gin.New()
	patients := r.Group("/api/v1/patients")
	{
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
		patients.POST("/:id/delete", h.Delete)
	}
	return r
}

func seedPatient(t *testing.T, repo *stubPatientRepo) *patient.Patient {
	t.Helper()
	p := &patient.Patient{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane.doe@example.com",
		BirthDate: time.Date(1980, time.March, 14, 0, 0, 0, 0, time.UTC),
		BloodType: patient.BloodTypeOPos,
		Doctors:   []patient.Doctor{{ID: uuid.New(), Name: "Dr. House"}},
		LogHistory: []patient.LogEntry{
			{Description: "State changed to: good"},
		},
		Condition: patient.ConditionGood,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListPatientsEmptyRespondsNoRecords(t *testing.T) {
	r := newPatientRouter(newStubPatientRepo(), newStubInvoiceRepo())

	w := doRequest(r, http.MethodGet, "/api/v1/patients")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "There are no records", body["message"])
	assert.NotContains(t, body, "data")
}

func TestListPatientsRepoErrorRespondsNoRecords(t *testing.T) {
	repo := newStubPatientRepo()
	repo.listErr = errors.New("select patients: connection reset")
	r := newPatientRouter(repo, newStubInvoiceRepo())

	w := doRequest(r, http.MethodGet, "/api/v1/patients")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "There are no records", body["message"])
}

func TestListPatientsProjectsRecords(t *testing.T) {
	repo := newStubPatientRepo()
	p := seedPatient(t, repo)
	r := newPatientRouter(repo, newStubInvoiceRepo())

	w := doRequest(r, http.MethodGet, "/api/v1/patients")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []struct {
			ID         uuid.UUID `json:"id"`
			FirstName  string    `json:"first_name"`
			Doctors    []string  `json:"doctors"`
			LogHistory []string  `json:"log_history"`
			State      string    `json:"state"`
		} `json:"data"`
		TotalCount int64 `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(1), body.TotalCount)
	assert.Equal(t, p.ID, body.Data[0].ID)
	assert.Equal(t, "Jane", body.Data[0].FirstName)
	assert.Equal(t, []string{"Dr. House"}, body.Data[0].Doctors)
	assert.Equal(t, []string{"State changed to: good"}, body.Data[0].LogHistory)
	assert.Equal(t, "good", body.Data[0].State)
}

func TestDeletePatientInvalidIDStaysHTTP200(t *testing.T) {
	r := newPatientRouter(newStubPatientRepo(), newStubInvoiceRepo())

	w := doRequest(r, http.MethodPost, "/api/v1/patients/not-a-uuid/delete")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid patient id", body["error"])
	assert.NotContains(t, body, "success")
}

func TestDeletePatientServiceErrorStaysHTTP200(t *testing.T) {
	r := newPatientRouter(newStubPatientRepo(), newStubInvoiceRepo())

	w := doRequest(r, http.MethodPost, "/api/v1/patients/"+uuid.NewString()+"/delete")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, patient.ErrPatientNotFound.Error(), body["error"])
}

func TestDeletePatientWithInvoicesRefused(t *testing.T) {
	repo := newStubPatientRepo()
	p := seedPatient(t, repo)
	invoices := newStubInvoiceRepo()
	require.NoError(t, invoices.Create(context.Background(), &billing.Invoice{
		ID: uuid.New(), Number: "INV00001", PatientID: p.ID, State: billing.StateDraft, Currency: "USD",
	}))
	r := newPatientRouter(repo, invoices)

	w := doRequest(r, http.MethodPost, "/api/v1/patients/"+p.ID.String()+"/delete")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, patient.ErrPatientHasRecords.Error(), body["error"])

	_, err := repo.GetByID(context.Background(), p.ID)
	assert.NoError(t, err, "a refused deletion keeps the record")
}

func TestDeletePatientSucceeds(t *testing.T) {
	repo := newStubPatientRepo()
	p := seedPatient(t, repo)
	r := newPatientRouter(repo, newStubInvoiceRepo())

	w := doRequest(r, http.MethodPost, "/api/v1/patients/"+p.ID.String()+"/delete")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])

	_, err := repo.GetByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
}
