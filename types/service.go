package types

// Service is an agency service listing.
type Service struct {
	Content

	// Icon is an icon identifier understood by the front end.
	Icon       string `json:"icon" db:"icon"`
	CoverImage string `json:"coverImage" db:"cover_image"`

	// Features are short bullet points shown on the service page.
	Features []string `json:"features" db:"features"`

	// Order controls display position; lower values come first.
	Order int `json:"order" db:"sort_order"`
}

func (s Service) Core() Content { return s.Content }

func (s Service) WithCore(c Content) Service {
	s.Content = c
	return s
}

// ServicePatch is a partial update of a Service.
type ServicePatch struct {
	ContentPatch
	Icon       Optional[string]   `json:"icon"`
	CoverImage Optional[string]   `json:"coverImage"`
	Features   Optional[[]string] `json:"features"`
	Order      Optional[int]      `json:"order"`
}

func (p ServicePatch) Core() ContentPatch { return p.ContentPatch }

func (p ServicePatch) Apply(s Service) Service {
	s.Content = p.ContentPatch.ApplyTo(s.Content)
	apply(&s.Icon, p.Icon)
	apply(&s.CoverImage, p.CoverImage)
	apply(&s.Features, p.Features)
	apply(&s.Order, p.Order)
	return s
}
