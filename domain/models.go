package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role represents the access level of a user.
// The wire values match the backend's role literals.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleOperator    Role = "OPERATOR"
	RoleCoordinator Role = "COORDINATOR"
	RoleSupervisor  Role = "SUPERVISOR"
	RoleTechnician  Role = "TECHNICIAN"
	RoleAssistant   Role = "ASSISTANT"
)

// Roles returns every recognized role, in display order.
func Roles() []Role {
	return []Role{
		RoleAdmin,
		RoleOperator,
		RoleCoordinator,
		RoleSupervisor,
		RoleTechnician,
		RoleAssistant,
	}
}

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleCoordinator, RoleSupervisor, RoleTechnician, RoleAssistant:
		return true
	}
	return false
}

// Label returns the pt-BR display name used by the dashboard.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleOperator:
		return "Operador"
	case RoleCoordinator:
		return "Coordenador"
	case RoleSupervisor:
		return "Supervisor"
	case RoleTechnician:
		return "Técnico"
	case RoleAssistant:
		return "Assistente"
	}
	return string(r)
}

// Status represents the pipeline position of a work order.
// The values are the kanban column labels.
type Status string

const (
	StatusPending    Status = "Pendente"
	StatusInProgress Status = "Em Progresso"
	StatusInReview   Status = "Em Revisão"
	StatusCompleted  Status = "Concluído"
)

// Statuses returns the pipeline in order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusInReview, StatusCompleted}
}

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusInReview, StatusCompleted:
		return true
	}
	return false
}

// Priority represents the urgency of a work order.
type Priority string

const (
	PriorityLow    Priority = "Baixa"
	PriorityMedium Priority = "Média"
	PriorityHigh   Priority = "Alta"
	PriorityUrgent Priority = "Urgente"
)

// Valid reports whether p is a recognized priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// usernameRe restricts logins to the backend's charset: lowercase
// alphanumerics plus dot, underscore and hyphen.
var usernameRe = regexp.MustCompile(`^[a-z0-9._-]+$`)

// ValidUsername reports whether the login satisfies the charset and length
// rules. Comparison elsewhere is case-insensitive; the stored form is the
// lowercased one.
func ValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 32 {
		return false
	}
	return usernameRe.MatchString(username)
}

// NormalizeUsername lowercases a login for storage and comparison.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// User is a member of the maintenance team.
// Password is write-only: read paths always return users with it blanked.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Username     string   `json:"username"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Role         Role     `json:"role"`
	CanLogin     bool     `json:"can_login"`
	Password     string   `json:"password,omitempty"`
	PlantIDs     []string `json:"plantIds"`
	SupervisorID string   `json:"supervisor_id,omitempty"`
}

// HasPlant reports whether the user is linked to the given plant.
func (u User) HasPlant(plantID string) bool {
	for _, id := range u.PlantIDs {
		if id == plantID {
			return true
		}
	}
	return false
}

// Sanitized returns a copy safe to hand to read paths: the password is never
// echoed back.
func (u User) Sanitized() User {
	u.Password = ""
	u.PlantIDs = append([]string(nil), u.PlantIDs...)
	return u
}

// SubPlant is a section of a plant. IDs are sequential starting at 1 and the
// list is fixed at plant creation time.
type SubPlant struct {
	ID            int `json:"id"`
	InverterCount int `json:"inverterCount"`
}

// Assignments holds the four role-scoped membership lists of one plant.
// It is the single source of truth for the plant↔user relationship;
// User.PlantIDs is a projection recomputed from it.
type Assignments struct {
	CoordinatorID *string  `json:"coordinatorId"`
	SupervisorIDs []string `json:"supervisorIds"`
	TechnicianIDs []string `json:"technicianIds"`
	AssistantIDs  []string `json:"assistantIds"`
}

// Contains reports whether the user id appears in any of the four lists.
func (a *Assignments) Contains(userID string) bool {
	if a.CoordinatorID != nil && *a.CoordinatorID == userID {
		return true
	}
	for _, lists := range [][]string{a.SupervisorIDs, a.TechnicianIDs, a.AssistantIDs} {
		for _, id := range lists {
			if id == userID {
				return true
			}
		}
	}
	return false
}

// Normalized returns a copy with nil slices replaced by empty ones, matching
// the wire shape the assignments endpoint expects.
func (a Assignments) Normalized() Assignments {
	if a.SupervisorIDs == nil {
		a.SupervisorIDs = []string{}
	}
	if a.TechnicianIDs == nil {
		a.TechnicianIDs = []string{}
	}
	if a.AssistantIDs == nil {
		a.AssistantIDs = []string{}
	}
	return a
}

// Plant is a solar generation site owned by a client.
type Plant struct {
	ID           string      `json:"id"`
	Client       string      `json:"client"`
	Name         string      `json:"name"`
	SubPlants    []SubPlant  `json:"subPlants"`
	StringCount  int         `json:"stringCount"`
	TrackerCount int         `json:"trackerCount"`
	Assets       []string    `json:"assets"`
	Assignments  Assignments `json:"assignments,omitempty"`
}

// StatusChange records a pipeline transition carried by a log entry.
type StatusChange struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

// OSLog is one immutable history entry of a work order. Logs are kept
// newest-first and are never edited or reordered after creation.
type OSLog struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	AuthorID     string        `json:"authorId"`
	Comment      string        `json:"comment"`
	StatusChange *StatusChange `json:"statusChange,omitempty"`
}

// ImageAttachment is an image linked to a work order. The URL is either
// server-relative (uploaded) or content-addressed (spooled locally while the
// upload could not be completed). Captions stay editable after upload.
type ImageAttachment struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Caption    string    `json:"caption,omitempty"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// WorkOrder is a unit of maintenance work (an "OS") tracked through the
// status pipeline. Title is always derived as "<id> - <activity>" and is
// recomputed on every save, as is UpdatedAt. SupervisorID follows the
// technician's current supervisor at save time.
type WorkOrder struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Status             Status            `json:"status"`
	Priority           Priority          `json:"priority"`
	PlantID            string            `json:"plantId"`
	TechnicianID       string            `json:"technicianId"`
	SupervisorID       string            `json:"supervisorId"`
	StartDate          time.Time         `json:"startDate"`
	EndDate            *time.Time        `json:"endDate,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
	Activity           string            `json:"activity"`
	Assets             []string          `json:"assets"`
	AttachmentsEnabled bool              `json:"attachmentsEnabled"`
	ImageAttachments   []ImageAttachment `json:"imageAttachments"`
	Logs               []OSLog           `json:"logs"`
}

// ComposeTitle derives the display title of a work order.
func ComposeTitle(id, activity string) string {
	return id + " - " + activity
}

// Notification is a per-user message created as a side effect of work-order
// mutations. Notifications accumulate until individually marked read.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}
