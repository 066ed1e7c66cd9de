package types

import "time"

// EnquiryStatus tracks how far an enquiry has been handled.
// Any status may move to any other.
type EnquiryStatus string

const (
	EnquiryNew       EnquiryStatus = "new"
	EnquiryRead      EnquiryStatus = "read"
	EnquiryContacted EnquiryStatus = "contacted"
	EnquiryReplied   EnquiryStatus = "replied"
	EnquiryClosed    EnquiryStatus = "closed"
)

// Valid reports whether s is a known enquiry status.
func (s EnquiryStatus) Valid() bool {
	switch s {
	case EnquiryNew, EnquiryRead, EnquiryContacted, EnquiryReplied, EnquiryClosed:
		return true
	}
	return false
}

// Enquiry is a contact request submitted from the public site.
type Enquiry struct {
	ID string `json:"id" db:"id"`

	Name    string `json:"name" db:"name"`
	Email   string `json:"email" db:"email"`
	Phone   string `json:"phone,omitempty" db:"phone"`
	Company string `json:"company,omitempty" db:"company"`

	// Service is the slug or name of the service the visitor is interested in.
	Service string `json:"service,omitempty" db:"service"`
	Budget  string `json:"budget,omitempty" db:"budget"`
	Message string `json:"message" db:"message"`

	// Source tags where the form was submitted from; defaults to "website".
	Source string        `json:"source" db:"source"`
	Status EnquiryStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// EnquiryEvent is published to the message queue after an enquiry is stored.
type EnquiryEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Service   string    `json:"service,omitempty"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}
