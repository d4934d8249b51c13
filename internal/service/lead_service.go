package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/internal/phone"
	"github.com/goguixter/leads-backend/internal/tenant"
	"github.com/goguixter/leads-backend/prometheus"
)

// MessageTemplateVersion tags every generated outreach message so future
// template changes stay distinguishable in the contact history.
const MessageTemplateVersion = "v1"

const messageTemplate = "Ola, %s! Somos especialistas em passagens para intercambio. Vimos seu interesse em %s, em %s. Posso te ajudar com as melhores opcoes de voo?"

const firstContactNote = "Status alterado na primeira geracao de mensagem"

// CreateLeadInput carries a manually created lead.
type CreateLeadInput struct {
	PartnerID    *string `json:"partner_id"`
	StudentName  string  `json:"student_name"`
	Email        string  `json:"email"`
	PhoneCountry string  `json:"phone_country"`
	Phone        string  `json:"phone"`
	School       string  `json:"school"`
	City         string  `json:"city"`
}

// PatchLeadInput carries a partial lead update; nil fields are untouched.
type PatchLeadInput struct {
	Status       *string `json:"status"`
	StudentName  *string `json:"student_name"`
	Email        *string `json:"email"`
	PhoneCountry *string `json:"phone_country"`
	Phone        *string `json:"phone"`
	School       *string `json:"school"`
	City         *string `json:"city"`
	Note         *string `json:"note"`
}

// LeadPage is one page of a lead listing.
type LeadPage struct {
	Items    []model.Lead `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// LeadHistory bundles the status audit trail with the outreach attempts.
type LeadHistory struct {
	StatusHistory []model.LeadStatusHistory `json:"status_history"`
	ContactEvents []model.ContactEvent      `json:"contact_events"`
}

// GeneratedMessage is the rendered outreach payload returned to the operator.
type GeneratedMessage struct {
	LeadID          string `json:"lead_id"`
	Channel         string `json:"channel"`
	To              string `json:"to"`
	Message         string `json:"message"`
	TemplateVersion string `json:"template_version"`
}

// LeadService implements the lead lifecycle: creation, listing, partial
// updates and outreach message generation.
type LeadService struct {
	leads            LeadRepository
	defaultPartnerID string
	log              *zap.Logger
}

func NewLeadService(leads LeadRepository, defaultPartnerID string, log *zap.Logger) *LeadService {
	return &LeadService{leads: leads, defaultPartnerID: defaultPartnerID, log: log}
}

// Create registers a single lead by hand. MASTER actors without an explicit
// partner fall back to the configured default partner.
func (s *LeadService) Create(ctx context.Context, actor tenant.Actor, in CreateLeadInput) (*model.Lead, error) {
	scope, err := tenant.Resolve(actor, in.PartnerID)
	if err != nil {
		return nil, err
	}
	if scope == nil || *scope == "" {
		if s.defaultPartnerID == "" {
			return nil, apperror.BadRequest("DEFAULT_PARTNER_ID obrigatorio para criar lead como MASTER")
		}
		scope = &s.defaultPartnerID
	}

	if !validateLeadFields(in.StudentName, in.Email, in.Phone, in.School, in.City) {
		return nil, apperror.BadRequest("Campos invalidos")
	}

	norm, err := phone.FromCountryAndNational(in.PhoneCountry, in.Phone)
	if err != nil {
		return nil, err
	}

	lead := &model.Lead{
		PartnerID:       *scope,
		CreatedByUserID: actor.UserID,
		StudentName:     in.StudentName,
		Email:           in.Email,
		School:          in.School,
		City:            in.City,
		Status:          model.LeadStatusNew,
		PhoneRaw:        norm.Raw,
		PhoneE164:       norm.E164,
		PhoneCountry:    norm.Country,
		PhoneValid:      norm.Valid,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}

	prometheus.LeadCreatedCounter.WithLabelValues("direct").Inc()
	s.log.Info("lead created",
		zap.String("lead_id", lead.ID),
		zap.String("partner_id", lead.PartnerID))
	return lead, nil
}

// List returns one page of leads inside the actor's tenant scope.
func (s *LeadService) List(ctx context.Context, actor tenant.Actor, filter LeadFilter) (*LeadPage, error) {
	scope, err := tenant.Resolve(actor, filter.PartnerID)
	if err != nil {
		return nil, err
	}
	filter.PartnerID = scope

	if filter.Status != "" && !model.ValidLeadStatus(filter.Status) {
		return nil, apperror.BadRequest("Status de lead invalido")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, total, err := s.leads.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &LeadPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// Get fetches one lead the actor may see. Unknown IDs answer 404 before any
// tenancy check so probing IDs leaks nothing either way.
func (s *LeadService) Get(ctx context.Context, actor tenant.Actor, leadID string) (*model.Lead, error) {
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, apperror.NotFound("Lead nao encontrado")
	}
	if _, err := tenant.Resolve(actor, &lead.PartnerID); err != nil {
		return nil, err
	}
	return lead, nil
}

// History returns the full audit trail of a lead.
func (s *LeadService) History(ctx context.Context, actor tenant.Actor, leadID string) (*LeadHistory, error) {
	if _, err := s.Get(ctx, actor, leadID); err != nil {
		return nil, err
	}
	statuses, events, err := s.leads.History(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return &LeadHistory{StatusHistory: statuses, ContactEvents: events}, nil
}

// Patch applies a partial update. All requested changes are validated before
// any write, so a rejected field leaves the lead untouched. A status history
// row is appended only when the status actually changes.
func (s *LeadService) Patch(ctx context.Context, actor tenant.Actor, leadID string, in PatchLeadInput) (*model.Lead, error) {
	lead, err := s.Get(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	var history *model.LeadStatusHistory

	if in.Status != nil {
		if err := tenant.RequireMaster(actor); err != nil {
			return nil, err
		}
		if !model.ValidLeadStatus(*in.Status) {
			return nil, apperror.BadRequest("Status de lead invalido")
		}
		if *in.Status != lead.Status {
			changes["status"] = *in.Status
			history = &model.LeadStatusHistory{
				LeadID:          lead.ID,
				OldStatus:       lead.Status,
				NewStatus:       *in.Status,
				ChangedByUserID: actor.UserID,
				Note:            in.Note,
			}
		}
	}
	if in.StudentName != nil {
		if !minLen(*in.StudentName, 2) {
			return nil, apperror.BadRequest("Nome do estudante invalido")
		}
		changes["student_name"] = *in.StudentName
	}
	if in.Email != nil {
		if !isValidEmail(*in.Email) {
			return nil, apperror.BadRequest("Email invalido")
		}
		changes["email"] = *in.Email
	}
	if in.School != nil {
		if !minLen(*in.School, 2) {
			return nil, apperror.BadRequest("Escola invalida")
		}
		changes["school"] = *in.School
	}
	if in.City != nil {
		if !minLen(*in.City, 2) {
			return nil, apperror.BadRequest("Cidade invalida")
		}
		changes["city"] = *in.City
	}

	if in.Phone != nil || in.PhoneCountry != nil {
		country := lead.PhoneCountry
		national := lead.PhoneRaw
		if in.PhoneCountry != nil {
			country = *in.PhoneCountry
		}
		if in.Phone != nil {
			national = *in.Phone
		}
		norm, err := phone.FromCountryAndNational(country, national)
		if err != nil {
			return nil, err
		}
		changes["phone_raw"] = norm.Raw
		changes["phone_e164"] = norm.E164
		changes["phone_country"] = norm.Country
		changes["phone_valid"] = norm.Valid
	}

	if len(changes) == 0 {
		return nil, apperror.BadRequest("Informe ao menos um campo para atualizar")
	}

	if err := s.leads.Update(ctx, lead.ID, changes, history); err != nil {
		return nil, err
	}
	return s.leads.FindByID(ctx, lead.ID)
}

// GenerateMessage renders the outreach template for a lead and records the
// attempt. Every call appends a contact event, including rejected ones, so
// the history shows each time an operator tried to reach the lead.
//
// The first successful generation on a NEW lead moves it to FIRST_CONTACT
// when the actor is MASTER; later generations only touch last_contacted_at.
func (s *LeadService) GenerateMessage(ctx context.Context, actor tenant.Actor, leadID string) (*GeneratedMessage, error) {
	lead, err := s.Get(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf(messageTemplate, lead.FirstName(), lead.School, lead.City)

	if !lead.PhoneValid {
		reason := "phone_valid=false"
		event := &model.ContactEvent{
			LeadID:                 lead.ID,
			UserID:                 actor.UserID,
			Channel:                model.ChannelWhatsApp,
			MessageTemplateVersion: MessageTemplateVersion,
			MessageRendered:        message,
			ToAddress:              lead.PhoneE164,
			Success:                false,
			ErrorReason:            &reason,
		}
		if err := s.leads.RecordContact(ctx, event, nil, nil); err != nil {
			return nil, err
		}
		prometheus.ContactEventCounter.WithLabelValues("failure").Inc()
		return nil, &apperror.AppError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "INVALID_PHONE",
			Message: "Lead com telefone invalido",
		}
	}

	now := time.Now()
	changes := map[string]interface{}{"last_contacted_at": now}
	if lead.FirstContactedAt == nil {
		changes["first_contacted_at"] = now
	}

	var history *model.LeadStatusHistory
	if lead.Status == model.LeadStatusNew && actor.IsMaster() {
		note := firstContactNote
		changes["status"] = model.LeadStatusFirstContact
		history = &model.LeadStatusHistory{
			LeadID:          lead.ID,
			OldStatus:       model.LeadStatusNew,
			NewStatus:       model.LeadStatusFirstContact,
			ChangedByUserID: actor.UserID,
			Note:            &note,
		}
	}

	event := &model.ContactEvent{
		LeadID:                 lead.ID,
		UserID:                 actor.UserID,
		Channel:                model.ChannelWhatsApp,
		MessageTemplateVersion: MessageTemplateVersion,
		MessageRendered:        message,
		ToAddress:              lead.PhoneE164,
		Success:                true,
	}
	if err := s.leads.RecordContact(ctx, event, changes, history); err != nil {
		return nil, err
	}
	prometheus.ContactEventCounter.WithLabelValues("success").Inc()

	return &GeneratedMessage{
		LeadID:          lead.ID,
		Channel:         model.ChannelWhatsApp,
		To:              lead.PhoneE164,
		Message:         message,
		TemplateVersion: MessageTemplateVersion,
	}, nil
}
