package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SolarProject is a completed installation shown in the solar gallery
type SolarProject struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Location    *string    `json:"location"`
	Image       string     `json:"image"`
	Description *string    `json:"description"`
	Kva         *string    `json:"kva"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SolarProjectPatch is a partial update of a solar project. Fields which are
// not set are left untouched. Optional fields set to null (or empty) are cleared.
type SolarProjectPatch struct {
	Title       Field[string]
	Image       Field[string]
	Location    Field[string]
	Description Field[string]
	Kva         Field[string]
	CompletedAt Field[time.Time]
}

// Empty returns true if the patch would not change any field
func (p SolarProjectPatch) Empty() bool {
	return !p.Title.Set && !p.Image.Set && !p.Location.Set &&
		!p.Description.Set && !p.Kva.Set && !p.CompletedAt.Set
}

// MissingForCreate returns the names of required fields which are absent or empty
func (p SolarProjectPatch) MissingForCreate() []string {
	var missing []string
	if p.Title.Blank() {
		missing = append(missing, "title")
	}
	if p.Image.Blank() {
		missing = append(missing, "image")
	}
	return missing
}

// Validate rejects patches which would clear a required field
func (p SolarProjectPatch) Validate() error {
	var blank []string
	if p.Title.Set && p.Title.Blank() {
		blank = append(blank, "title")
	}
	if p.Image.Set && p.Image.Blank() {
		blank = append(blank, "image")
	}
	if len(blank) > 0 {
		return &ValidationError{
			Message: strings.Join(blank, " and ") + " cannot be empty",
			Fields:  blank,
		}
	}
	return nil
}

// Apply writes all set fields into project. Empty optional strings are stored as null.
func (p SolarProjectPatch) Apply(project *SolarProject) {
	if p.Title.Present() {
		project.Title = strings.TrimSpace(*p.Title.Value)
	}
	if p.Image.Present() {
		project.Image = strings.TrimSpace(*p.Image.Value)
	}
	if p.Location.Set {
		project.Location = nullIfEmpty(p.Location.Value)
	}
	if p.Description.Set {
		project.Description = nullIfEmpty(p.Description.Value)
	}
	if p.Kva.Set {
		project.Kva = nullIfEmpty(p.Kva.Value)
	}
	if p.CompletedAt.Set {
		project.CompletedAt = p.CompletedAt.Value
	}
}

func nullIfEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// MatchesQuery returns true if q is a case-insensitive substring of the title or the location.
// An empty query matches every project.
func (sp SolarProject) MatchesQuery(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(sp.Title), q) {
		return true
	}
	return sp.Location != nil && strings.Contains(strings.ToLower(*sp.Location), q)
}
