package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/internal/spreadsheet"
	"github.com/goguixter/leads-backend/internal/tenant"
)

const (
	testPartnerID     = "11111111-1111-1111-1111-111111111111"
	otherPartnerID    = "22222222-2222-2222-2222-222222222222"
	testUploaderID    = "33333333-3333-3333-3333-333333333333"
	testMasterUserID  = "44444444-4444-4444-4444-444444444444"
	testValidPhoneBR  = "+5511987654321"
	testValidPhoneBR2 = "+5511912345678"
	testValidPhoneUS  = "+12125550123"
)

func importHeaders() []string {
	return []string{"student_name", "email", "phone", "school", "city"}
}

func sheetRow(name, email, phone, school, city string) spreadsheet.Row {
	return spreadsheet.Row{
		"student_name": name,
		"email":        email,
		"phone":        phone,
		"school":       school,
		"city":         city,
	}
}

func masterActor() tenant.Actor {
	return tenant.Actor{UserID: testMasterUserID, Role: model.RoleMaster}
}

func partnerActor(partnerID string) tenant.Actor {
	pid := partnerID
	return tenant.Actor{UserID: testUploaderID, Role: model.RolePartner, PartnerID: &pid}
}

func newImportFixture() (*ImportService, *fakeLeadRepo, *fakeImportRepo) {
	leads := newFakeLeadRepo()
	batches := newFakeImportRepo(leads)
	svc := NewImportService(batches, NewDuplicateDetector(leads), zap.NewNop())
	return svc, leads, batches
}

func TestPreviewMissingColumns(t *testing.T) {
	svc, _, _ := newImportFixture()

	sheet := &spreadsheet.Sheet{
		Headers: []string{"student_name", "email", "phone"},
		Rows:    []spreadsheet.Row{sheetRow("Ana Souza", "ana@example.com", testValidPhoneBR, "EC Toronto", "Toronto")},
	}

	_, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	appErr, ok := apperror.Is(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Colunas obrigatorias ausentes", appErr.Message)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"school", "city"}, details["missing_columns"])
}

func TestPreviewClassifiesRows(t *testing.T) {
	svc, leads, batches := newImportFixture()

	// Existing lead in the same tenant that collides on phone.
	require.NoError(t, leads.Create(context.Background(), &model.Lead{
		PartnerID:       testPartnerID,
		CreatedByUserID: testUploaderID,
		StudentName:     "Bruno Lima",
		Email:           "bruno@example.com",
		PhoneRaw:        testValidPhoneBR2,
		PhoneE164:       testValidPhoneBR2,
		PhoneCountry:    "BR",
		PhoneValid:      true,
		School:          "Kaplan",
		City:            "Dublin",
		Status:          model.LeadStatusNew,
	}))

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows: []spreadsheet.Row{
			sheetRow("Ana Souza", "ana@example.com", testValidPhoneBR, "EC Toronto", "Toronto"),
			sheetRow("Carla Dias", "not-an-email", testValidPhoneUS, "ILAC", "Vancouver"),
			sheetRow("Novo Nome", "novo@example.com", testValidPhoneBR2, "Kaplan", "Dublin"),
		},
	}

	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 1, res.ValidRows)
	// Duplicates count as invalid too, so invalid = total - valid.
	assert.Equal(t, 2, res.InvalidRows)
	assert.Equal(t, 1, res.DuplicateRows)
	assert.Equal(t, res.TotalRows-res.ValidRows, res.InvalidRows)

	// Row numbers count the header, so data starts at 2.
	require.Len(t, res.PreviewRows, 3)
	assert.Equal(t, 2, res.PreviewRows[0].RowNumber)
	assert.Equal(t, 3, res.PreviewRows[1].RowNumber)
	assert.Equal(t, 4, res.PreviewRows[2].RowNumber)

	assert.True(t, res.PreviewRows[0].Success)
	assert.False(t, res.PreviewRows[0].IsDuplicate)
	require.NotNil(t, res.PreviewRows[1].ErrorMessage)
	assert.Equal(t, "Campos invalidos na linha", *res.PreviewRows[1].ErrorMessage)
	assert.False(t, res.PreviewRows[1].IsDuplicate)
	require.NotNil(t, res.PreviewRows[2].ErrorMessage)
	assert.True(t, strings.HasPrefix(*res.PreviewRows[2].ErrorMessage, "DUPLICATE_LEAD: "))
	assert.Contains(t, *res.PreviewRows[2].ErrorMessage, "telefone")
	assert.True(t, res.PreviewRows[2].IsDuplicate)
	assert.Equal(t, []MatchedField{MatchPhone}, res.PreviewRows[2].DuplicateFields)

	assert.Len(t, res.ErrorsSample, 2)

	// The batch is persisted in DRAFT with all rows, nothing materialized.
	batch, err := batches.FindBatch(context.Background(), res.ImportID)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, model.ImportStatusDraft, batch.Status)
	assert.Equal(t, 3, batch.TotalRows)
	rows, err := batches.FindBatchRows(context.Background(), res.ImportID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Len(t, leads.leads, 1)
}

func TestPreviewRejectsEmptySheet(t *testing.T) {
	svc, _, batches := newImportFixture()

	// A header-only upload has nothing to import and must not leave a DRAFT
	// batch behind.
	sheet := &spreadsheet.Sheet{Headers: importHeaders()}

	_, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	appErr, ok := apperror.Is(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Planilha nao contem linhas de dados", appErr.Message)
	assert.Empty(t, batches.batches)
}

func TestPreviewRejectsPhoneWithoutPlus(t *testing.T) {
	svc, _, _ := newImportFixture()

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows: []spreadsheet.Row{
			sheetRow("Ana Souza", "ana@example.com", "11987654321", "EC Toronto", "Toronto"),
		},
	}

	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)
	require.NotNil(t, res.PreviewRows[0].ErrorMessage)
	assert.Equal(t, "Telefone deve iniciar com +", *res.PreviewRows[0].ErrorMessage)
}

func TestConfirmRejectsDuplicatesUnlessIgnored(t *testing.T) {
	svc, leads, batches := newImportFixture()

	require.NoError(t, leads.Create(context.Background(), &model.Lead{
		PartnerID:   testPartnerID,
		StudentName: "Bruno Lima",
		Email:       "bruno@example.com",
		PhoneE164:   testValidPhoneBR2,
		PhoneValid:  true,
		School:      "Kaplan",
		City:        "Dublin",
		Status:      model.LeadStatusNew,
	}))

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows: []spreadsheet.Row{
			sheetRow("Ana Souza", "ana@example.com", testValidPhoneBR, "EC Toronto", "Toronto"),
			sheetRow("Carla Dias", "not-an-email", testValidPhoneUS, "ILAC", "Vancouver"),
			sheetRow("Novo Nome", "novo@example.com", testValidPhoneBR2, "Kaplan", "Dublin"),
		},
	}
	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)

	// Without the flag the batch stays DRAFT and nothing is created.
	_, err = svc.Confirm(context.Background(), masterActor(), res.ImportID, false)
	appErr, ok := apperror.Is(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, appErr.Message, "duplicados")

	batch, _ := batches.FindBatch(context.Background(), res.ImportID)
	assert.Equal(t, model.ImportStatusDraft, batch.Status)
	assert.Len(t, leads.leads, 1)

	// With the flag: valid row becomes a lead, invalid and duplicate rows
	// count as errors.
	out, err := svc.Confirm(context.Background(), masterActor(), res.ImportID, true)
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusDone, out.Status)
	assert.Equal(t, 3, out.TotalRows)
	assert.Equal(t, 1, out.SuccessRows)
	assert.Equal(t, 2, out.ErrorRows)
	assert.Len(t, leads.leads, 2)

	created := leads.leads[1]
	assert.Equal(t, testPartnerID, created.PartnerID)
	assert.Equal(t, "Ana Souza", created.StudentName)
	assert.Equal(t, testValidPhoneBR, created.PhoneE164)
	assert.Equal(t, model.LeadStatusNew, created.Status)
	assert.Equal(t, testUploaderID, created.CreatedByUserID)
}

func TestConfirmOnlyDraft(t *testing.T) {
	svc, leads, batches := newImportFixture()

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows:    []spreadsheet.Row{sheetRow("Ana Souza", "ana@example.com", testValidPhoneBR, "EC Toronto", "Toronto")},
	}
	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)

	require.NoError(t, batches.SetStatus(context.Background(), res.ImportID, model.ImportStatusDone))

	_, err = svc.Confirm(context.Background(), masterActor(), res.ImportID, false)
	appErr, ok := apperror.Is(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Apenas importacoes DRAFT podem ser confirmadas", appErr.Message)
	assert.Empty(t, leads.leads)
}

func TestConfirmRowFailureIsIsolated(t *testing.T) {
	svc, leads, batches := newImportFixture()

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows: []spreadsheet.Row{
			sheetRow("Ana Souza", "ana@example.com", testValidPhoneBR, "EC Toronto", "Toronto"),
			sheetRow("Joao Pedro", "joao@example.com", testValidPhoneUS, "ILAC", "Vancouver"),
		},
	}
	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)

	batches.failLeadForRows[2] = true

	out, err := svc.Confirm(context.Background(), masterActor(), res.ImportID, false)
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusDone, out.Status)
	assert.Equal(t, 1, out.SuccessRows)
	assert.Equal(t, 1, out.ErrorRows)
	require.Len(t, leads.leads, 1)
	assert.Equal(t, "Joao Pedro", leads.leads[0].StudentName)

	rows, err := batches.FindBatchRows(context.Background(), res.ImportID)
	require.NoError(t, err)
	assert.False(t, rows[0].Success)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.Equal(t, "Falha ao criar lead", *rows[0].ErrorMessage)
	assert.True(t, rows[1].Success)
}

func TestConfirmAllRowsFailedMarksBatchFailed(t *testing.T) {
	svc, _, batches := newImportFixture()

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows: []spreadsheet.Row{
			sheetRow("A", "bad", "x", "s", "c"),
			sheetRow("B", "also-bad", "y", "s", "c"),
		},
	}
	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)
	assert.Equal(t, 2, res.InvalidRows)

	out, err := svc.Confirm(context.Background(), masterActor(), res.ImportID, false)
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusFailed, out.Status)
	assert.Equal(t, 0, out.SuccessRows)
	assert.Equal(t, 2, out.ErrorRows)

	batch, _ := batches.FindBatch(context.Background(), res.ImportID)
	assert.Equal(t, model.ImportStatusFailed, batch.Status)
}

func TestConfirmCrossTenantForbidden(t *testing.T) {
	svc, leads, _ := newImportFixture()

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows:    []spreadsheet.Row{sheetRow("Ana Souza", "ana@example.com", testValidPhoneBR, "EC Toronto", "Toronto")},
	}
	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), partnerActor(otherPartnerID), res.ImportID, false)
	appErr, ok := apperror.Is(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Status)
	assert.Empty(t, leads.leads)
}

func TestConfirmUnknownBatch(t *testing.T) {
	svc, _, _ := newImportFixture()

	_, err := svc.Confirm(context.Background(), masterActor(), "99999999-9999-9999-9999-999999999999", false)
	appErr, ok := apperror.Is(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "Importacao nao encontrada", appErr.Message)
}

func TestCancel(t *testing.T) {
	svc, _, batches := newImportFixture()

	sheet := &spreadsheet.Sheet{
		Headers: importHeaders(),
		Rows:    []spreadsheet.Row{sheetRow("Ana Souza", "ana@example.com", testValidPhoneBR, "EC Toronto", "Toronto")},
	}
	res, err := svc.Preview(context.Background(), testPartnerID, testUploaderID, "leads.xlsx", sheet)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), partnerActor(testPartnerID), res.ImportID))
	batch, _ := batches.FindBatch(context.Background(), res.ImportID)
	assert.Equal(t, model.ImportStatusCanceled, batch.Status)

	// Terminal batches cannot be canceled again.
	err = svc.Cancel(context.Background(), partnerActor(testPartnerID), res.ImportID)
	appErr, ok := apperror.Is(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Nao e possivel cancelar importacao finalizada", appErr.Message)
}
