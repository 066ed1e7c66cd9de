package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nova-jack/novafusion/internal/util"
	"github.com/nova-jack/novafusion/types"
)

const (
	MaxNameLength    = 100
	MaxEmailLength   = 255
	MaxMessageLength = 5000
	MaxPhoneLength   = 30
	MaxFieldLength   = 100
	MaxSourceLength  = 50

	DefaultEnquirySource = "website"
)

// EnquiryRepository defines persistence operations for enquiries.
type EnquiryRepository interface {
	List(ctx context.Context, filter types.ListFilter) ([]types.Enquiry, int, error)
	GetByID(ctx context.Context, id string) (types.Enquiry, error)
	Create(ctx context.Context, enquiry types.Enquiry) (types.Enquiry, error)
	UpdateStatus(ctx context.Context, id string, status types.EnquiryStatus) (types.Enquiry, error)
	Delete(ctx context.Context, id string) error
}

// Publisher sends a message to a named channel. *mq.MQ satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// EnquiryInput is the public contact form payload.
type EnquiryInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Service string `json:"service"`
	Budget  string `json:"budget"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

type EnquiryService struct {
	repo      EnquiryRepository
	publisher Publisher
	topic     string
	logger    zerolog.Logger
}

// EnquiryOption configures an EnquiryService.
type EnquiryOption func(*EnquiryService)

// WithPublisher announces every stored enquiry on topic.
func WithPublisher(p Publisher, topic string) EnquiryOption {
	return func(s *EnquiryService) {
		s.publisher = p
		s.topic = topic
	}
}

func WithLogger(logger zerolog.Logger) EnquiryOption {
	return func(s *EnquiryService) {
		s.logger = logger
	}
}

func NewEnquiryService(repo EnquiryRepository, opts ...EnquiryOption) *EnquiryService {
	s := &EnquiryService{repo: repo, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores a public enquiry with status new.
func (s *EnquiryService) Submit(ctx context.Context, in EnquiryInput) (types.Enquiry, error) {
	name := util.Clean(in.Name, MaxNameLength)
	email := strings.ToLower(util.Clean(in.Email, MaxEmailLength))
	message := util.Clean(in.Message, MaxMessageLength)
	if name == "" || email == "" || message == "" {
		return types.Enquiry{}, invalid("Name, email, and message are required")
	}
	if !util.IsValidEmail(email) {
		return types.Enquiry{}, invalid("Invalid email address")
	}

	phone := util.Clean(in.Phone, MaxPhoneLength)
	if phone != "" && !util.IsValidPhone(phone) {
		return types.Enquiry{}, invalid("Invalid phone number")
	}

	source := util.Clean(in.Source, MaxSourceLength)
	if source == "" {
		source = DefaultEnquirySource
	}

	enquiry, err := s.repo.Create(ctx, types.Enquiry{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Company: util.Clean(in.Company, MaxFieldLength),
		Service: util.Clean(in.Service, MaxFieldLength),
		Budget:  util.Clean(in.Budget, MaxFieldLength),
		Message: message,
		Source:  source,
		Status:  types.EnquiryNew,
	})
	if err != nil {
		return types.Enquiry{}, err
	}

	s.announce(ctx, enquiry)
	return enquiry, nil
}

// announce publishes the enquiry event. Failures are logged and never
// fail the submission.
func (s *EnquiryService) announce(ctx context.Context, e types.Enquiry) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(types.EnquiryEvent{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Phone:     e.Phone,
		Service:   e.Service,
		Message:   e.Message,
		Source:    e.Source,
		CreatedAt: e.CreatedAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("enquiry_id", e.ID).Msg("encode enquiry event")
		return
	}
	id, err := s.publisher.Publish(ctx, s.topic, data, map[string]string{
		"type":   "enquiry.created",
		"source": e.Source,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("enquiry_id", e.ID).Str("topic", s.topic).Msg("publish enquiry event")
		return
	}
	s.logger.Debug().Str("enquiry_id", e.ID).Str("message_id", id).Msg("enquiry event published")
}

// List returns one page of enquiries, newest first, optionally filtered by status.
func (s *EnquiryService) List(ctx context.Context, filter types.ListFilter) ([]types.Enquiry, types.Pagination, error) {
	if filter.Status != "" && !types.EnquiryStatus(filter.Status).Valid() {
		return nil, types.Pagination{}, invalid("Invalid status filter")
	}
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return items, types.NewPagination(total, filter.Page, filter.Limit), nil
}

func (s *EnquiryService) Get(ctx context.Context, id string) (types.Enquiry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Enquiry{}, invalid("Enquiry ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves an enquiry to status. Any known status may follow any other.
func (s *EnquiryService) UpdateStatus(ctx context.Context, id string, status types.EnquiryStatus) (types.Enquiry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Enquiry{}, invalid("Enquiry ID is required")
	}
	status = types.EnquiryStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return types.Enquiry{}, invalid("Invalid status")
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *EnquiryService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("Enquiry ID is required")
	}
	return s.repo.Delete(ctx, id)
}
