package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/discount"
	"github.com/wardflow/wardflow/internal/domain/insurance"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/service"
	"github.com/wardflow/wardflow/pkg/metrics"
	"go.uber.org/zap"
)

// One collector per test binary; prometheus rejects duplicate registration.
var testCollector = metrics.NewCollector("wardflow_test")

// recordingTx runs the unit of work directly and remembers whether it would
// have rolled back.
type recordingTx struct {
	rolledBack bool
}

func (r *recordingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		r.rolledBack = true
		return err
	}
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func newTestAuditService() *service.AuditService {
	return service.NewAuditService(&fakeAuditRepo{}, testCollector, zap.NewNop())
}

type failingPaymentRepo struct {
	err error
}

func (f *failingPaymentRepo) Create(_ context.Context, _ *billing.Payment) error {
	return f.err
}

func (f *failingPaymentRepo) ListByInvoice(_ context.Context, _ uuid.UUID) ([]*billing.Payment, error) {
	return nil, nil
}

type fakeCompanyRepo struct {
	companies map[uuid.UUID]*insurance.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: map[uuid.UUID]*insurance.Company{}}
}

func (f *fakeCompanyRepo) Create(_ context.Context, c *insurance.Company) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.companies[c.ID] = c
	return nil
}

func (f *fakeCompanyRepo) GetByID(_ context.Context, id uuid.UUID) (*insurance.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, insurance.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeCompanyRepo) Update(_ context.Context, c *insurance.Company) error {
	f.companies[c.ID] = c
	return nil
}

func (f *fakeCompanyRepo) List(_ context.Context) ([]*insurance.Company, error) {
	var out []*insurance.Company
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompanyRepo) ExistsByName(_ context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	for _, c := range f.companies {
		if c.Name == name && (excludeID == nil || c.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

// fakeClaimRepo returns copies from GetByID so in-memory mutations by a
// caller only persist through Update, the way a real store behaves.
type fakeClaimRepo struct {
	claims  map[uuid.UUID]*insurance.Claim
	updates int
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: map[uuid.UUID]*insurance.Claim{}}
}

func (f *fakeClaimRepo) Create(_ context.Context, c *insurance.Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	stored := *c
	f.claims[c.ID] = &stored
	return nil
}

func (f *fakeClaimRepo) GetByID(_ context.Context, id uuid.UUID) (*insurance.Claim, error) {
	c, ok := f.claims[id]
	if !ok {
		return nil, insurance.ErrClaimNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClaimRepo) Update(_ context.Context, c *insurance.Claim) error {
	f.updates++
	stored := *c
	f.claims[c.ID] = &stored
	return nil
}

func (f *fakeClaimRepo) List(_ context.Context, _ *insurance.ListClaimsQuery) (*insurance.PagedClaims, error) {
	var out []*insurance.Claim
	for _, c := range f.claims {
		cp := *c
		out = append(out, &cp)
	}
	return &insurance.PagedClaims{Claims: out, TotalCount: int64(len(out))}, nil
}

func (f *fakeClaimRepo) CountByInvoice(_ context.Context, invoiceID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range f.claims {
		if c.InvoiceID == invoiceID {
			n++
		}
	}
	return n, nil
}

func mustPatient(id uuid.UUID, insurerID *uuid.UUID) *patient.Patient {
	return &patient.Patient{
		ID:                 id,
		FirstName:          "Jane",
		LastName:           "Doe",
		BirthDate:          time.Date(1980, time.March, 14, 0, 0, 0, 0, time.UTC),
		InsuranceCompanyID: insurerID,
	}
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
	logs     []*patient.LogEntry
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: map[uuid.UUID]*patient.Patient{}}
}

func (f *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (f *fakePatientRepo) Update(_ context.Context, p *patient.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) AppendLog(_ context.Context, e *patient.LogEntry) error {
	f.logs = append(f.logs, e)
	return nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.patients, id)
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, _ *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	var out []*patient.Patient
	for _, p := range f.patients {
		out = append(out, p)
	}
	return &patient.PagedPatients{Patients: out, TotalCount: int64(len(out))}, nil
}

func (f *fakePatientRepo) ExistsByEmail(_ context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	for _, p := range f.patients {
		if p.Email == email && (excludeID == nil || p.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

type fakeAdmissionRepo struct {
	admissions map[uuid.UUID]*admission.Admission
}

func newFakeAdmissionRepo() *fakeAdmissionRepo {
	return &fakeAdmissionRepo{admissions: map[uuid.UUID]*admission.Admission{}}
}

func (f *fakeAdmissionRepo) Create(_ context.Context, a *admission.Admission) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.admissions[a.ID] = a
	return nil
}

func (f *fakeAdmissionRepo) GetByID(_ context.Context, id uuid.UUID) (*admission.Admission, error) {
	a, ok := f.admissions[id]
	if !ok {
		return nil, admission.ErrAdmissionNotFound
	}
	return a, nil
}

func (f *fakeAdmissionRepo) Update(_ context.Context, a *admission.Admission) error {
	f.admissions[a.ID] = a
	return nil
}

func (f *fakeAdmissionRepo) List(_ context.Context, _ *admission.ListAdmissionsQuery) (*admission.PagedAdmissions, error) {
	var out []*admission.Admission
	for _, a := range f.admissions {
		out = append(out, a)
	}
	return &admission.PagedAdmissions{Admissions: out, TotalCount: int64(len(out))}, nil
}

func (f *fakeAdmissionRepo) HasActive(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, a := range f.admissions {
		if a.PatientID == patientID && !a.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

type fakeRoomRepo struct {
	rooms map[uuid.UUID]*room.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: map[uuid.UUID]*room.Room{}}
}

func (f *fakeRoomRepo) Create(_ context.Context, r *room.Room) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.rooms[r.ID] = r
	return nil
}

func (f *fakeRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*room.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	return r, nil
}

func (f *fakeRoomRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRoomRepo) Update(_ context.Context, r *room.Room) error {
	f.rooms[r.ID] = r
	return nil
}

func (f *fakeRoomRepo) ReplaceBasicServices(_ context.Context, r *room.Room, services []room.Service) error {
	r.BasicServices = services
	return nil
}

func (f *fakeRoomRepo) List(_ context.Context, _ *room.ListRoomsQuery) (*room.PagedRooms, error) {
	var out []*room.Room
	for _, r := range f.rooms {
		out = append(out, r)
	}
	return &room.PagedRooms{Rooms: out, TotalCount: int64(len(out))}, nil
}

type fakeRoomServiceRepo struct {
	services map[uuid.UUID]room.Service
}

func newFakeRoomServiceRepo() *fakeRoomServiceRepo {
	return &fakeRoomServiceRepo{services: map[uuid.UUID]room.Service{}}
}

func (f *fakeRoomServiceRepo) Create(_ context.Context, s *room.Service) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.services[s.ID] = *s
	return nil
}

func (f *fakeRoomServiceRepo) GetByID(_ context.Context, id uuid.UUID) (*room.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, room.ErrServiceNotFound
	}
	return &s, nil
}

func (f *fakeRoomServiceRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]room.Service, error) {
	var out []room.Service
	for _, id := range ids {
		if s, ok := f.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRoomServiceRepo) Update(_ context.Context, s *room.Service) error {
	f.services[s.ID] = *s
	return nil
}

func (f *fakeRoomServiceRepo) ListByType(_ context.Context, t room.ServiceType) ([]room.Service, error) {
	var out []room.Service
	for _, s := range f.services {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeDiscountRepo struct {
	requests map[uuid.UUID]*discount.Request
	updates  int
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{requests: map[uuid.UUID]*discount.Request{}}
}

func (f *fakeDiscountRepo) Create(_ context.Context, r *discount.Request) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	stored := *r
	f.requests[r.ID] = &stored
	return nil
}

func (f *fakeDiscountRepo) GetByID(_ context.Context, id uuid.UUID) (*discount.Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, discount.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeDiscountRepo) Update(_ context.Context, r *discount.Request) error {
	f.updates++
	stored := *r
	f.requests[r.ID] = &stored
	return nil
}

func (f *fakeDiscountRepo) List(_ context.Context, _ *discount.ListRequestsQuery) (*discount.PagedRequests, error) {
	var out []*discount.Request
	for _, r := range f.requests {
		cp := *r
		out = append(out, &cp)
	}
	return &discount.PagedRequests{Requests: out, TotalCount: int64(len(out))}, nil
}
