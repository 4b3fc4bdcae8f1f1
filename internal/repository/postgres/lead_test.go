package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadline/leadline/internal/domain"
	"github.com/leadline/leadline/internal/service/reconcile"
)

func TestLeadKeysByTenant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT company_name, contact_person FROM leads WHERE tenant_id = \$1`).
		WithArgs(testTenant).
		WillReturnRows(sqlmock.NewRows([]string{"company_name", "contact_person"}).
			AddRow("Acme Corp", "Jane Smith").
			AddRow("Globex", "Hank Scorpio"))

	out, err := NewLeadRepo(db, "").LeadKeysByTenant(context.Background(), testTenant)
	require.NoError(t, err)

	require.Len(t, out, 2)
	_, ok := out[domain.LeadKey(testTenant, "ACME CORP", "jane smith")]
	assert.True(t, ok, "keys are case-insensitive")
	_, ok = out[domain.LeadKey(testTenant, "Globex", "Hank Scorpio")]
	assert.True(t, ok)
}

func TestInsertLeadsBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`VALUES \(\$1,(\$\d+,){9}\$11,NOW\(\),NOW\(\)\),\(\$12,`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	out, err := NewLeadRepo(db, "").InsertLeads(context.Background(), []domain.Lead{
		{TenantID: testTenant, CompanyName: "Acme", ContactPerson: "Jane Smith", Role: "CTO"},
		{TenantID: testTenant, CompanyName: "Acme", ContactPerson: "Hank Hill", Role: "VP"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.NotEmpty(t, out[0].ID)
	assert.NotEqual(t, out[0].ID, out[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLeadsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO leads`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err = NewLeadRepo(db, "").InsertLeads(context.Background(), []domain.Lead{
		{TenantID: testTenant, CompanyName: "Acme", ContactPerson: "Jane Smith"},
	})
	assert.ErrorIs(t, err, reconcile.ErrConflict)
}

func TestInsertLeadSingle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO dev_leads`).
		WithArgs(sqlmock.AnyArg(), testTenant, "Acme", "Jane Smith", "jane@acme.test",
			"CTO", "contacted", "good", "", "", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := NewLeadRepo(db, "dev_").InsertLead(context.Background(), domain.Lead{
		TenantID:            testTenant,
		CompanyName:         "Acme",
		ContactPerson:       "Jane Smith",
		ContactEmail:        "jane@acme.test",
		Role:                "CTO",
		Status:              domain.StatusContacted,
		Tier:                domain.TierGood,
		IsConnectedToTenant: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
