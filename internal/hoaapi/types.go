package hoaapi

import (
	"fmt"
	"strings"
	"time"
)

// Validator is implemented by response types that check their own required
// fields after decoding.
type Validator interface {
	Validate() error
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func (r LoginResponse) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return fmt.Errorf("%w: token missing", ErrInvalidResponse)
	}
	if strings.TrimSpace(r.Role) == "" {
		return fmt.Errorf("%w: role missing", ErrInvalidResponse)
	}
	return nil
}

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone,omitempty"`
	CommunityID string `json:"communityId,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse is the generic {message} body the backend sends for
// actions without a resource payload.
type MessageResponse struct {
	Message string `json:"message"`
}

type InitiatePaymentRequest struct {
	Amount   float64 `json:"amount"`
	BillType string  `json:"billType"`
	Method   string  `json:"method"`
}

type InitiatePaymentResponse struct {
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message,omitempty"`
}

func (r InitiatePaymentResponse) Validate() error {
	if strings.TrimSpace(r.PaymentID) == "" {
		return fmt.Errorf("%w: paymentId missing", ErrInvalidResponse)
	}
	if strings.TrimSpace(r.TransactionID) == "" {
		return fmt.Errorf("%w: transactionId missing", ErrInvalidResponse)
	}
	return nil
}

type CompletePaymentResponse struct {
	Message string   `json:"message,omitempty"`
	Payment *Payment `json:"payment,omitempty"`
}

// ---------------- Resources ----------------

type Community struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	AdminID   string    `json:"adminId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (c Community) Validate() error { return requireID("community", c.ID) }

type Resident struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	CommunityID string `json:"communityId,omitempty"`
}

func (r Resident) Validate() error { return requireID("resident", r.ID) }

type Complaint struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	ResidentID  string    `json:"residentId,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

func (c Complaint) Validate() error { return requireID("complaint", c.ID) }

type Announcement struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (a Announcement) Validate() error { return requireID("announcement", a.ID) }

type Amenity struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (a Amenity) Validate() error { return requireID("amenity", a.ID) }

type Meeting struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	MeetingDate time.Time `json:"meetingDate,omitempty"`
}

func (m Meeting) Validate() error { return requireID("meeting", m.ID) }

type Document struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	FileName string `json:"fileName,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
}

func (d Document) Validate() error { return requireID("document", d.ID) }

type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID       string       `json:"_id"`
	Question string       `json:"question"`
	Options  []PollOption `json:"options,omitempty"`
	Active   bool         `json:"isActive,omitempty"`
}

func (p Poll) Validate() error { return requireID("poll", p.ID) }

type Notification struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"isRead,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (n Notification) Validate() error { return requireID("notification", n.ID) }

type Payment struct {
	ID            string    `json:"_id"`
	TransactionID string    `json:"transactionId,omitempty"`
	Amount        float64   `json:"amount"`
	BillType      string    `json:"billType,omitempty"`
	Method        string    `json:"method,omitempty"`
	Status        string    `json:"status,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

func (p Payment) Validate() error { return requireID("payment", p.ID) }

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s without _id", ErrInvalidResponse, kind)
	}
	return nil
}
