package patient

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

func (b BloodType) IsValid() bool {
	switch b {
	case BloodTypeAPos, BloodTypeANeg, BloodTypeBPos, BloodTypeBNeg,
		BloodTypeABPos, BloodTypeABNeg, BloodTypeOPos, BloodTypeONeg:
		return true
	}
	return false
}

// Condition is the clinical state of the patient. Every change appends a
// log-history entry.
type Condition string

const (
	ConditionUndetermined Condition = "undetermined"
	ConditionGood         Condition = "good"
	ConditionFair         Condition = "fair"
	ConditionSerious      Condition = "serious"
)

func (c Condition) IsValid() bool {
	switch c {
	case ConditionUndetermined, ConditionGood, ConditionFair, ConditionSerious:
		return true
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// ValidateEmail checks the address format. An empty email is allowed.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	FirstName string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName  string    `gorm:"column:last_name;type:varchar(100);not null"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex"`
	BirthDate time.Time `gorm:"column:birth_date;not null"`

	History   string    `gorm:"column:history;type:text"`
	PCR       bool      `gorm:"column:pcr;not null;default:false"`
	CRRatio   float64   `gorm:"column:cr_ratio"`
	BloodType BloodType `gorm:"column:blood_type;type:varchar(3)"`
	Address   string    `gorm:"column:address;type:text"`

	DepartmentID       *uuid.UUID `gorm:"column:department_id;type:uuid;index"`
	InsuranceCompanyID *uuid.UUID `gorm:"column:insurance_company_id;type:uuid;index"`

	Doctors    []Doctor   `gorm:"many2many:clinical.patient_doctors"`
	LogHistory []LogEntry `gorm:"foreignKey:PatientID"`

	Condition Condition `gorm:"column:condition;type:varchar(15);not null;default:'undetermined';index"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Patient) Age() int {
	return p.AgeAt(time.Now())
}

func (p *Patient) AgeAt(now time.Time) int {
	if p.BirthDate.IsZero() {
		return 0
	}
	years := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() ||
		(now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		years--
	}
	return years
}

// ApplyPCRRule forces the PCR flag for patients under 30, mirroring the
// intake rule applied on every create and update.
func (p *Patient) ApplyPCRRule() {
	age := p.Age()
	p.PCR = age != 0 && age < 30
}

// SetCondition changes the clinical condition and returns the log entry to
// append alongside it.
func (p *Patient) SetCondition(c Condition) (*LogEntry, error) {
	if !c.IsValid() {
		return nil, ErrInvalidCondition
	}
	p.Condition = c
	return &LogEntry{
		PatientID:   p.ID,
		Description: "State changed to: " + string(c),
	}, nil
}

// LogEntry is an append-only note on the patient's record.
type LogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID   uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	Description string    `gorm:"column:description;type:text;not null"`
}

func (LogEntry) TableName() string {
	return "clinical.patient_log_history"
}

type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name     string `gorm:"column:name;type:varchar(100);not null"`
	Capacity int    `gorm:"column:capacity;not null;default:0"`
	IsOpened bool   `gorm:"column:is_opened;not null;default:true"`
}

func (Department) TableName() string {
	return "clinical.departments"
}

type Doctor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name string `gorm:"column:name;type:varchar(100);not null"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

type CreatePatientCommand struct {
	FirstName          string
	LastName           string
	Email              string
	BirthDate          time.Time
	History            string
	CRRatio            float64
	BloodType          BloodType
	Address            string
	DepartmentID       *uuid.UUID
	InsuranceCompanyID *uuid.UUID
	DoctorIDs          []uuid.UUID
}

type UpdatePatientCommand struct {
	FirstName          *string
	LastName           *string
	Email              *string
	History            *string
	CRRatio            *float64
	BloodType          *BloodType
	Address            *string
	DepartmentID       *uuid.UUID
	InsuranceCompanyID *uuid.UUID
	DoctorIDs          *[]uuid.UUID
}

type ListPatientsQuery struct {
	Search       string
	Condition    *Condition
	DepartmentID *uuid.UUID
	Page         int
	PageSize     int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
}
