package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/internal/phone"
	"github.com/goguixter/leads-backend/internal/spreadsheet"
	"github.com/goguixter/leads-backend/internal/tenant"
	"github.com/goguixter/leads-backend/prometheus"
)

const duplicateErrorPrefix = "DUPLICATE_LEAD: "

// Cap on the error examples returned with a preview; the full list stays on
// the persisted rows.
const errorsSampleLimit = 10

// PreviewRow is the per-row projection returned by Preview.
type PreviewRow struct {
	RowNumber       int               `json:"row_number"`
	Data            map[string]string `json:"data"`
	Success         bool              `json:"success"`
	ErrorMessage    *string           `json:"error_message,omitempty"`
	IsDuplicate     bool              `json:"is_duplicate"`
	DuplicateFields []MatchedField    `json:"duplicate_fields,omitempty"`
}

// RowError pairs a row number with its failure reason.
type RowError struct {
	RowNumber int    `json:"row_number"`
	Message   string `json:"message"`
}

// PreviewResult summarizes a freshly parsed upload.
type PreviewResult struct {
	ImportID      string       `json:"import_id"`
	TotalRows     int          `json:"total_rows"`
	ValidRows     int          `json:"valid_rows"`
	InvalidRows   int          `json:"invalid_rows"`
	DuplicateRows int          `json:"duplicate_rows"`
	PreviewRows   []PreviewRow `json:"preview_rows"`
	ErrorsSample  []RowError   `json:"errors_sample"`
}

// ConfirmResult reports the outcome of materializing a batch into leads.
type ConfirmResult struct {
	ImportID    string `json:"import_id"`
	Status      string `json:"status"`
	TotalRows   int    `json:"total_rows"`
	SuccessRows int    `json:"success_rows"`
	ErrorRows   int    `json:"error_rows"`
}

// ImportService drives the spreadsheet import pipeline: preview, confirm and
// cancel.
type ImportService struct {
	batches ImportRepository
	dedup   *DuplicateDetector
	log     *zap.Logger
}

func NewImportService(batches ImportRepository, dedup *DuplicateDetector, log *zap.Logger) *ImportService {
	return &ImportService{batches: batches, dedup: dedup, log: log}
}

// Preview validates every row of an already-parsed sheet, persists the batch
// in DRAFT state with all rows, and returns the per-row verdicts. Nothing is
// turned into a lead yet.
func (s *ImportService) Preview(ctx context.Context, partnerID, uploaderID, filename string, sheet *spreadsheet.Sheet) (*PreviewResult, error) {
	if len(sheet.Rows) == 0 {
		return nil, apperror.BadRequest("Planilha nao contem linhas de dados")
	}
	if missing := sheet.MissingColumns(requiredImportColumns); len(missing) > 0 {
		return nil, apperror.BadRequestWithDetails(
			"Colunas obrigatorias ausentes",
			map[string]interface{}{"missing_columns": missing},
		)
	}

	batch := &model.ImportBatch{
		PartnerID:        partnerID,
		UploadedByUserID: uploaderID,
		Filename:         filename,
		Status:           model.ImportStatusDraft,
		TotalRows:        len(sheet.Rows),
	}

	rows := make([]model.ImportRow, 0, len(sheet.Rows))
	previewRows := make([]PreviewRow, 0, len(sheet.Rows))
	errorsSample := make([]RowError, 0, errorsSampleLimit)

	valid, invalid, duplicates := 0, 0, 0

	for i, raw := range sheet.Rows {
		// Row 1 is the header, so data rows start at 2.
		rowNumber := i + 2

		data := model.RowData{
			"student_name": pickString(raw, "student_name"),
			"email":        pickString(raw, "email"),
			"phone":        pickString(raw, "phone"),
			"school":       pickString(raw, "school"),
			"city":         pickString(raw, "city"),
		}

		var normalizedE164 *string
		errMsg, match := s.checkRow(ctx, partnerID, data, &normalizedE164)

		row := model.ImportRow{
			RowNumber:           rowNumber,
			RawData:             data,
			NormalizedPhoneE164: normalizedE164,
			Success:             errMsg == "",
		}
		if errMsg != "" {
			msg := errMsg
			row.ErrorMessage = &msg
			// Duplicates are a subset of invalid rows, counted both ways.
			invalid++
			if match != nil {
				duplicates++
				prometheus.DuplicateDetectedCounter.Inc()
			}
			if len(errorsSample) < errorsSampleLimit {
				errorsSample = append(errorsSample, RowError{RowNumber: rowNumber, Message: errMsg})
			}
		} else {
			valid++
		}

		previewRow := PreviewRow{
			RowNumber:    rowNumber,
			Data:         data,
			Success:      row.Success,
			ErrorMessage: row.ErrorMessage,
		}
		if match != nil {
			previewRow.IsDuplicate = true
			previewRow.DuplicateFields = match.Fields
		}

		rows = append(rows, row)
		previewRows = append(previewRows, previewRow)
	}

	if err := s.batches.CreateBatch(ctx, batch, rows); err != nil {
		return nil, err
	}

	prometheus.ImportBatchCounter.WithLabelValues(model.ImportStatusDraft).Inc()
	s.log.Info("import preview created",
		zap.String("import_id", batch.ID),
		zap.String("partner_id", partnerID),
		zap.Int("total_rows", len(sheet.Rows)),
		zap.Int("valid_rows", valid),
		zap.Int("invalid_rows", invalid),
		zap.Int("duplicate_rows", duplicates))

	return &PreviewResult{
		ImportID:      batch.ID,
		TotalRows:     len(sheet.Rows),
		ValidRows:     valid,
		InvalidRows:   invalid,
		DuplicateRows: duplicates,
		PreviewRows:   previewRows,
		ErrorsSample:  errorsSample,
	}, nil
}

// checkRow returns the pt-BR error message for a bad row, or "" when the row
// is importable, plus the colliding lead when the row is a duplicate. On
// success, normalizedE164 receives the canonical phone.
func (s *ImportService) checkRow(ctx context.Context, partnerID string, data map[string]string, normalizedE164 **string) (string, *DuplicateMatch) {
	if !validateLeadFields(data["student_name"], data["email"], data["phone"], data["school"], data["city"]) {
		return "Campos invalidos na linha", nil
	}
	if !strings.HasPrefix(data["phone"], "+") {
		return "Telefone deve iniciar com +", nil
	}

	norm, err := phone.FromInternational(data["phone"])
	if err != nil {
		return "Telefone invalido", nil
	}
	e164 := norm.E164
	*normalizedE164 = &e164

	match, err := s.dedup.FindDuplicate(ctx, partnerID, data["student_name"], data["email"], e164)
	if err != nil {
		s.log.Warn("duplicate lookup failed", zap.Error(err))
		return "Falha ao verificar duplicidade", nil
	}
	if match != nil {
		return fmt.Sprintf("%slead ja existe (%s)", duplicateErrorPrefix, duplicateFieldLabels(match.Fields)), match
	}
	return "", nil
}

// Confirm flips a DRAFT batch to PROCESSING and creates a lead for every
// valid row. Rows that failed in preview stay failed; rows that fail now are
// marked without aborting the batch.
func (s *ImportService) Confirm(ctx context.Context, actor tenant.Actor, batchID string, ignoreDuplicates bool) (*ConfirmResult, error) {
	batch, err := s.batches.FindBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, apperror.NotFound("Importacao nao encontrada")
	}
	if _, err := tenant.Resolve(actor, &batch.PartnerID); err != nil {
		return nil, err
	}
	if batch.Status != model.ImportStatusDraft {
		return nil, apperror.BadRequest("Apenas importacoes DRAFT podem ser confirmadas")
	}

	rows, err := s.batches.FindBatchRows(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if !ignoreDuplicates {
		for _, row := range rows {
			if row.ErrorMessage != nil && strings.HasPrefix(*row.ErrorMessage, duplicateErrorPrefix) {
				return nil, apperror.BadRequest("Existem leads duplicados no preview. Marque para ignorar duplicados antes de confirmar.")
			}
		}
	}

	flipped, err := s.batches.TransitionStatus(ctx, batchID, model.ImportStatusDraft, model.ImportStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, apperror.BadRequest("Apenas importacoes DRAFT podem ser confirmadas")
	}
	prometheus.ImportBatchCounter.WithLabelValues(model.ImportStatusProcessing).Inc()

	success, failed := 0, 0
	for i := range rows {
		row := &rows[i]
		if !row.Success || row.NormalizedPhoneE164 == nil {
			failed++
			prometheus.ImportRowCounter.WithLabelValues("failed").Inc()
			continue
		}

		// Re-validate the phone stored at preview time before materializing.
		data := row.RawData
		norm, err := phone.FromInternational(*row.NormalizedPhoneE164)
		if err != nil {
			s.failRow(ctx, row, "Telefone invalido")
			failed++
			continue
		}

		lead := &model.Lead{
			PartnerID:       batch.PartnerID,
			CreatedByUserID: batch.UploadedByUserID,
			StudentName:     data["student_name"],
			Email:           data["email"],
			School:          data["school"],
			City:            data["city"],
			Status:          model.LeadStatusNew,
			PhoneRaw:        data["phone"],
			PhoneE164:       norm.E164,
			PhoneCountry:    norm.Country,
			PhoneValid:      norm.Valid,
		}
		if err := s.batches.CreateLeadForRow(ctx, lead, row.ID); err != nil {
			s.log.Warn("import row failed",
				zap.String("import_id", batchID),
				zap.Int("row_number", row.RowNumber),
				zap.Error(err))
			s.failRow(ctx, row, "Falha ao criar lead")
			failed++
			continue
		}
		success++
		prometheus.ImportRowCounter.WithLabelValues("success").Inc()
		prometheus.LeadCreatedCounter.WithLabelValues("import").Inc()
	}

	finalStatus := model.ImportStatusDone
	if batch.TotalRows > 0 && failed == batch.TotalRows {
		finalStatus = model.ImportStatusFailed
	}
	if err := s.batches.Finalize(ctx, batchID, finalStatus, batch.TotalRows, success, failed); err != nil {
		return nil, err
	}
	prometheus.ImportBatchCounter.WithLabelValues(finalStatus).Inc()

	s.log.Info("import confirmed",
		zap.String("import_id", batchID),
		zap.String("status", finalStatus),
		zap.Int("success_rows", success),
		zap.Int("error_rows", failed))

	return &ConfirmResult{
		ImportID:    batchID,
		Status:      finalStatus,
		TotalRows:   batch.TotalRows,
		SuccessRows: success,
		ErrorRows:   failed,
	}, nil
}

func (s *ImportService) failRow(ctx context.Context, row *model.ImportRow, msg string) {
	prometheus.ImportRowCounter.WithLabelValues("failed").Inc()
	changes := map[string]interface{}{
		"success":       false,
		"error_message": msg,
	}
	if err := s.batches.UpdateRow(ctx, row.ID, changes); err != nil {
		s.log.Warn("failed to record row error",
			zap.String("row_id", row.ID),
			zap.Error(err))
	}
}

// Cancel marks a non-terminal batch as CANCELED.
func (s *ImportService) Cancel(ctx context.Context, actor tenant.Actor, batchID string) error {
	batch, err := s.batches.FindBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return apperror.NotFound("Importacao nao encontrada")
	}
	if _, err := tenant.Resolve(actor, &batch.PartnerID); err != nil {
		return err
	}
	if model.ImportTerminal(batch.Status) {
		return apperror.BadRequest("Nao e possivel cancelar importacao finalizada")
	}
	if err := s.batches.SetStatus(ctx, batchID, model.ImportStatusCanceled); err != nil {
		return err
	}
	prometheus.ImportBatchCounter.WithLabelValues(model.ImportStatusCanceled).Inc()
	return nil
}
