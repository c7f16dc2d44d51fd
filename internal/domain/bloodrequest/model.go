package bloodrequest

import "encoding/json"

// MsgSomethingWentWrong is the single user-facing failure message.
const MsgSomethingWentWrong = "কিছু ভুল হয়েছে"

// Urgency levels understood by the backend.
const (
	UrgencyNormal    = "normal"
	UrgencyUrgent    = "urgent"
	UrgencyEmergency = "emergency"
)

// BloodRequest is forwarded to the backend unchanged. Every field is a string
// because the backend owns validation; only the JSON shape is enforced here.
type BloodRequest struct {
	RequesterID    string `json:"requesterId,omitempty"`
	RequesterName  string `json:"requesterName,omitempty"`
	RequesterPhone string `json:"requesterPhone,omitempty"`
	RequesterEmail string `json:"requesterEmail,omitempty"`

	PatientName   string `json:"patientName,omitempty"`
	PatientAge    string `json:"patientAge,omitempty"`
	PatientGender string `json:"patientGender,omitempty"`
	BloodGroup    string `json:"bloodGroup,omitempty"`
	BloodQuantity string `json:"bloodQuantity,omitempty"`
	UrgencyLevel  string `json:"urgencyLevel,omitempty"`
	RequiredDate  string `json:"requiredDate,omitempty"`
	RequiredTime  string `json:"requiredTime,omitempty"`

	HospitalName        string `json:"hospitalName,omitempty"`
	HospitalAddress     string `json:"hospitalAddress,omitempty"`
	ContactPerson       string `json:"contactPerson,omitempty"`
	ContactPhone        string `json:"contactPhone,omitempty"`
	AlternativePhone    string `json:"alternativePhone,omitempty"`
	RelationWithPatient string `json:"relationWithPatient,omitempty"`
	MedicalReason       string `json:"medicalReason,omitempty"`
	HemoglobinLevel     string `json:"hemoglobinLevel,omitempty"`
	AdditionalInfo      string `json:"additionalInfo,omitempty"`

	DivisionID string `json:"divisionId,omitempty"`
	DistrictID string `json:"districtId,omitempty"`
	ThanaID    string `json:"thanaId,omitempty"`
	Address    string `json:"address,omitempty"`

	SeekerDivisionID string `json:"seekerDivisionId,omitempty"`
	SeekerDistrictID string `json:"seekerDistrictId,omitempty"`
	SeekerThanaID    string `json:"seekerThanaId,omitempty"`

	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
}

// Result is either Success or Failure. The unexported method closes the set.
type Result interface {
	isResult()
	Envelope() Envelope
}

// Success carries the backend's response body unchanged.
type Success struct {
	Payload json.RawMessage
}

// Failure carries the internal reason; the envelope always shows
// MsgSomethingWentWrong to the user.
type Failure struct {
	Reason string
}

func (Success) isResult() {}
func (Failure) isResult() {}

func (s Success) Envelope() Envelope {
	return Envelope{Success: true, Data: s.Payload}
}

func (Failure) Envelope() Envelope {
	return Envelope{Success: false, Message: MsgSomethingWentWrong}
}

// Envelope is the wire shape of a submission result.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
