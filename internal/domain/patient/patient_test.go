package patient_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardflow/wardflow/internal/domain/patient"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, patient.ValidateEmail(""))
	assert.NoError(t, patient.ValidateEmail("jane.doe+tag@example.com"))
	assert.NoError(t, patient.ValidateEmail("a_b-c@sub.domain.org"))

	assert.ErrorIs(t, patient.ValidateEmail("not-an-email"), patient.ErrInvalidEmail)
	assert.ErrorIs(t, patient.ValidateEmail("missing@tld"), patient.ErrInvalidEmail)
	assert.ErrorIs(t, patient.ValidateEmail("@example.com"), patient.ErrInvalidEmail)
}

func TestAgeAt(t *testing.T) {
	p := &patient.Patient{BirthDate: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 35, p.AgeAt(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 35, p.AgeAt(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 34, p.AgeAt(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)))
}

func TestAgeZeroBirthDate(t *testing.T) {
	p := &patient.Patient{}
	assert.Zero(t, p.AgeAt(time.Now()))
}

func TestApplyPCRRule(t *testing.T) {
	now := time.Now()

	young := &patient.Patient{BirthDate: now.AddDate(-25, 0, 0)}
	young.ApplyPCRRule()
	assert.True(t, young.PCR)

	older := &patient.Patient{BirthDate: now.AddDate(-35, 0, 0)}
	older.PCR = true
	older.ApplyPCRRule()
	assert.False(t, older.PCR)

	// Age zero means the birth date is unusable; the rule does not fire.
	newborn := &patient.Patient{BirthDate: now.AddDate(0, -6, 0)}
	newborn.ApplyPCRRule()
	assert.False(t, newborn.PCR)
}

func TestSetConditionAppendsLogEntry(t *testing.T) {
	p := &patient.Patient{Condition: patient.ConditionUndetermined}

	entry, err := p.SetCondition(patient.ConditionGood)
	require.NoError(t, err)
	assert.Equal(t, patient.ConditionGood, p.Condition)
	assert.Equal(t, "State changed to: good", entry.Description)
}

func TestSetConditionRejectsUnknown(t *testing.T) {
	p := &patient.Patient{Condition: patient.ConditionGood}

	_, err := p.SetCondition(patient.Condition("critical"))
	assert.ErrorIs(t, err, patient.ErrInvalidCondition)
	assert.Equal(t, patient.ConditionGood, p.Condition)
}

func TestBloodTypeValidation(t *testing.T) {
	for _, b := range []patient.BloodType{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"} {
		assert.True(t, b.IsValid(), "blood type %s", b)
	}
	assert.False(t, patient.BloodType("C+").IsValid())
}

func TestFullName(t *testing.T) {
	p := &patient.Patient{FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", p.FullName())
}
