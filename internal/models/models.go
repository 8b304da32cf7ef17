package models

import (
	"time"
)

// Role names a user's responsibility during the fest
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleEventAdmin       Role = "event_admin"
	RoleCoordinator      Role = "coordinator"
	RoleRegistration     Role = "registration"
	RoleProgramReporting Role = "program_reporting"
	RoleScoring          Role = "scoring"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleEventAdmin, RoleCoordinator, RoleRegistration, RoleProgramReporting, RoleScoring:
		return true
	}
	return false
}

// User is a staff account (admins, coordinators, desk staff, judges)
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	Role         Role       `json:"role" db:"role"`
	CollegeID    *string    `json:"college_id,omitempty" db:"college_id"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Event groups programs, e.g. one edition of the fest
type Event struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Venue       string     `json:"venue" db:"venue"`
	StartDate   *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedBy   string     `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// College is a participating institution
type College struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	Location  string    `json:"location" db:"location"`
	LogoURL   string    `json:"logo_url" db:"logo_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Student belongs to exactly one college
type Student struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	Phone     string    `json:"phone" db:"phone"`
	Gender    string    `json:"gender" db:"gender"`
	CollegeID string    `json:"college_id" db:"college_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProgramType decides how many students make up one registration
type ProgramType string

const (
	ProgramTypeSingle ProgramType = "SINGLE"
	ProgramTypeGroup  ProgramType = "GROUP"
)

// Valid reports whether t is a known program type
func (t ProgramType) Valid() bool {
	return t == ProgramTypeSingle || t == ProgramTypeGroup
}

// Gender restrictions accepted on a program
const (
	GenderAny    = "ANY"
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

// FirstChestNumber is the value of a fresh program's chest counter
const FirstChestNumber = 100

// Program is a single competitive item within an event
type Program struct {
	ID                 string      `json:"id" db:"id"`
	EventID            string      `json:"event_id" db:"event_id"`
	Name               string      `json:"name" db:"name"`
	Type               ProgramType `json:"type" db:"type"`
	Category           string      `json:"category" db:"category"`
	Venue              string      `json:"venue" db:"venue"`
	StartTime          *time.Time  `json:"start_time,omitempty" db:"start_time"`
	MaxParticipants    *int        `json:"max_participants,omitempty" db:"max_participants"`
	GenderRestriction  string      `json:"gender_restriction" db:"gender_restriction"`
	LastChestNumber    int         `json:"last_chest_number" db:"last_chest_number"`
	IsCancelled        bool        `json:"is_cancelled" db:"is_cancelled"`
	CancellationReason string      `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	IsResultPublished  bool        `json:"is_result_published" db:"is_result_published"`
	CreatedBy          string      `json:"created_by" db:"created_by"`
	LastUpdatedBy      string      `json:"last_updated_by" db:"last_updated_by"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// ProgramPatch carries the fields an update may change; nil means unchanged
type ProgramPatch struct {
	Name              *string    `json:"name,omitempty"`
	Category          *string    `json:"category,omitempty"`
	Venue             *string    `json:"venue,omitempty"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	MaxParticipants   *int       `json:"max_participants,omitempty"`
	GenderRestriction *string    `json:"gender_restriction,omitempty"`
}

// ProgramFilter narrows program listings
type ProgramFilter struct {
	EventID          string
	IncludeCancelled bool
	PublishedOnly    bool
	Type             ProgramType
	StartsAfter      *time.Time
	StartsBefore     *time.Time
}

// RegistrationStatus is a state of the registration lifecycle
type RegistrationStatus string

const (
	StatusOpen         RegistrationStatus = "OPEN"
	StatusConfirmed    RegistrationStatus = "CONFIRMED"
	StatusReported     RegistrationStatus = "REPORTED"
	StatusParticipated RegistrationStatus = "PARTICIPATED"
	StatusAbsent       RegistrationStatus = "ABSENT"
	StatusCompleted    RegistrationStatus = "COMPLETED"
	StatusCancelled    RegistrationStatus = "CANCELLED"
	StatusRejected     RegistrationStatus = "REJECTED"
)

// Valid reports whether s is a known status
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusConfirmed, StatusReported, StatusParticipated,
		StatusAbsent, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further mutation is allowed from s
func (s RegistrationStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

// Registration binds one or more students to a program as one competing unit
type Registration struct {
	ID                 string             `json:"id" db:"id"`
	ProgramID          string             `json:"program_id" db:"program_id"`
	ParticipantIDs     []string           `json:"participant_ids" db:"-"`
	ChestNumber        *string            `json:"chest_number,omitempty" db:"chest_number"`
	Status             RegistrationStatus `json:"status" db:"status"`
	PointsObtained     float64            `json:"points_obtained" db:"points_obtained"`
	CancellationReason string             `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedBy          string             `json:"created_by" db:"created_by"`
	LastUpdatedBy      string             `json:"last_updated_by" db:"last_updated_by"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// Score is one judge's evaluation of one registration
type Score struct {
	ID             string             `json:"id" db:"id"`
	ProgramID      string             `json:"program_id" db:"program_id"`
	RegistrationID string             `json:"registration_id" db:"registration_id"`
	JudgeID        string             `json:"judge_id" db:"judge_id"`
	Criteria       map[string]float64 `json:"criteria" db:"criteria"`
	TotalPoints    float64            `json:"total_points" db:"total_points"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// RegistrationQuery holds listing filters and paging for registrations of one program
type RegistrationQuery struct {
	Statuses  []RegistrationStatus
	Search    string
	CollegeID string
	Page      int
	Limit     int
}

// RegistrationView is a registration enriched with its participants and
// its rank within the program (nil until the registration is completed)
type RegistrationView struct {
	Registration
	Participants []Student `json:"participants"`
	College      *College  `json:"college,omitempty"`
	Rank         *int      `json:"rank,omitempty"`
}

// Pagination describes a page of a larger result
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// RegistrationPage is one page of a program's registrations
type RegistrationPage struct {
	Registrations []RegistrationView `json:"registrations"`
	Pagination    Pagination         `json:"pagination"`
}

// CollegeStanding is one row of the college leaderboard
type CollegeStanding struct {
	CollegeID string  `json:"college_id"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	LogoURL   string  `json:"logo_url,omitempty"`
	Points    float64 `json:"points"`
	Rank      int     `json:"rank"`
}

// PlacementAward records points earned for one top-3 placement
type PlacementAward struct {
	ProgramID   string  `json:"program_id"`
	ProgramName string  `json:"program_name"`
	Rank        int     `json:"rank"`
	Points      float64 `json:"points"`
}

// StudentStanding is one row of the individual leaderboard
type StudentStanding struct {
	StudentID   string           `json:"student_id"`
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	CollegeID   string           `json:"college_id"`
	CollegeName string           `json:"college_name"`
	Points      float64          `json:"points"`
	Rank        int              `json:"rank"`
	Breakdown   []PlacementAward `json:"breakdown"`
}

// ProgramResult is the published podium of a program
type ProgramResult struct {
	Program Program            `json:"program"`
	Winners []RegistrationView `json:"winners"`
}

// Stats are public headline counters
type Stats struct {
	Colleges      int `json:"colleges"`
	Students      int `json:"students"`
	Programs      int `json:"programs"`
	Registrations int `json:"registrations"`
}

// ReminderResult summarises a reminder run
type ReminderResult struct {
	SentCount    int `json:"sent_count"`
	ProgramCount int `json:"program_count"`
}
