package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"synapselab/internal/engine/registration"
	apierrors "synapselab/internal/pkg/errors"
	"synapselab/internal/pkg/validator"
)

const maxRegisterBodyBytes = 64 << 10

// Registrar is satisfied by *registration.Service.
type Registrar interface {
	Register(ctx context.Context, in registration.Input) (*registration.Result, error)
}

type RegisterHandler struct {
	svc     Registrar
	metrics *Metrics
}

func NewRegisterHandler(svc Registrar, metrics *Metrics) *RegisterHandler {
	return &RegisterHandler{svc: svc, metrics: metrics}
}

// RegisterRequest is the checkout form body. cpf and cpf_cnpj are accepted
// as synonyms; cpf wins when both are set.
type RegisterRequest struct {
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Senha    string `json:"senha"`
	Empresa  string `json:"empresa"`
	CPF      string `json:"cpf"`
	CPFCNPJ  string `json:"cpf_cnpj"`
	Whatsapp string `json:"whatsapp"`
	Plano    string `json:"plano"`
	Metodo   string `json:"metodo"`
}

func (req RegisterRequest) Input() registration.Input {
	taxID := req.CPF
	if taxID == "" {
		taxID = req.CPFCNPJ
	}
	return registration.Input{
		Name:             req.Nome,
		Email:            req.Email,
		Password:         req.Senha,
		OrganizationName: req.Empresa,
		TaxID:            taxID,
		Whatsapp:         req.Whatsapp,
		Plan:             req.Plano,
		PaymentMethod:    req.Metodo,
	}
}

type RegisterResponse struct {
	Success        bool   `json:"success"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Notification   string `json:"notification"`
}

// wireFields maps Input json names back to the form's field names.
var wireFields = map[string]string{
	"name":             "nome",
	"email":            "email",
	"password":         "senha",
	"organizationName": "empresa",
	"taxId":            "cpf_cnpj",
	"whatsapp":         "whatsapp",
	"plan":             "plano",
	"paymentMethod":    "metodo",
}

func (h *RegisterHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRegisterBodyBytes)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Corpo da requisição inválido", nil)
		return
	}

	start := time.Now()
	result, err := h.svc.Register(r.Context(), req.Input())
	if h.metrics != nil {
		h.metrics.ObserveRegistration(result, err, time.Since(start))
	}
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}

	notification := "sent"
	if !result.Notified() {
		notification = "failed"
	}

	apierrors.WriteJSON(w, http.StatusOK, RegisterResponse{
		Success:        true,
		Status:         "success",
		Message:        "Cadastro realizado com sucesso",
		OrganizationID: result.Organization.ID,
		UserID:         result.User.ID,
		Notification:   notification,
	})
}

// writeRegistrationError maps the failure kind to a response. Store and
// relay error text stays in the logs.
func (h *RegisterHandler) writeRegistrationError(w http.ResponseWriter, r *http.Request, err error) {
	kind := registration.KindOf(err)
	logger := zerolog.Ctx(r.Context())

	if kind.ClientError() {
		logger.Warn().Err(err).Str("kind", string(kind)).Msg("Registration rejected")
	} else {
		logger.Error().Err(err).Str("kind", string(kind)).Msg("Registration failed")
	}

	switch kind {
	case registration.KindInvalidInput:
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Dados de cadastro inválidos", invalidFields(err))
	case registration.KindDuplicateOrganization:
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeOrganizationExists, "Empresa já cadastrada", nil)
	case registration.KindOrganizationCreateFailed:
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeOrganizationCreateFailed, "Não foi possível criar a empresa", nil)
	case registration.KindUserCreateFailed:
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeUserCreateFailed, "Não foi possível criar o usuário administrador", nil)
	case registration.KindUpstreamUnavailable:
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeUpstreamUnavailable, "Serviço temporariamente indisponível, tente novamente", nil)
	default:
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Erro interno ao processar o cadastro", nil)
	}
}

func invalidFields(err error) []validator.FieldError {
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}

	fields := make([]validator.FieldError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		if wire, ok := wireFields[f.Field]; ok {
			f.Message = strings.Replace(f.Message, f.Field, wire, 1)
			f.Field = wire
		}
		fields = append(fields, f)
	}
	return fields
}
