package profile

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/devnet/internal/domain/user"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrEntryNotFound = errors.New("profile entry not found")
)

// DateLayout is the wire format of experience/education dates.
const DateLayout = "2006-01-02"

type Social struct {
	YouTube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type Experience struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"-"`
}

type Education struct {
	ID           string     `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"-"`
}

// Profile is owned 1:1 by a user. Experience and Education are newest first.
type Profile struct {
	ID             string       `json:"id"`
	User           user.Summary `json:"user"`
	Company        string       `json:"company,omitempty"`
	Website        string       `json:"website,omitempty"`
	Location       string       `json:"location,omitempty"`
	Status         string       `json:"status"`
	Skills         []string     `json:"skills"`
	Bio            string       `json:"bio,omitempty"`
	GitHubUsername string       `json:"githubusername,omitempty"`
	Social         Social       `json:"social"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	CreatedAt      time.Time    `json:"date"`
	UpdatedAt      time.Time    `json:"-"`
}

// Fields is the writable part of a profile used by create-or-update.
type Fields struct {
	Company        string
	Website        string
	Location       string
	Status         string
	Skills         []string
	Bio            string
	GitHubUsername string
	Social         Social
}

type UpsertRequest struct {
	Company        string `json:"company" binding:"omitempty,max=120"`
	Website        string `json:"website" binding:"omitempty,url" msg:"Website must be a valid URL"`
	Location       string `json:"location" binding:"omitempty,max=120"`
	Status         string `json:"status" binding:"required,notblank" msg:"Status is required"`
	Skills         string `json:"skills" binding:"required,skills" msg:"Skills is required"`
	Bio            string `json:"bio" binding:"omitempty,max=2000"`
	GitHubUsername string `json:"githubusername" binding:"omitempty,max=39"`
	YouTube        string `json:"youtube" binding:"omitempty,url"`
	Twitter        string `json:"twitter" binding:"omitempty,url"`
	Facebook       string `json:"facebook" binding:"omitempty,url"`
	LinkedIn       string `json:"linkedin" binding:"omitempty,url"`
	Instagram      string `json:"instagram" binding:"omitempty,url"`
}

func (r UpsertRequest) Fields() Fields {
	return Fields{
		Company:        strings.TrimSpace(r.Company),
		Website:        strings.TrimSpace(r.Website),
		Location:       strings.TrimSpace(r.Location),
		Status:         strings.TrimSpace(r.Status),
		Skills:         SplitSkills(r.Skills),
		Bio:            r.Bio,
		GitHubUsername: strings.TrimSpace(r.GitHubUsername),
		Social: Social{
			YouTube:   r.YouTube,
			Twitter:   r.Twitter,
			Facebook:  r.Facebook,
			LinkedIn:  r.LinkedIn,
			Instagram: r.Instagram,
		},
	}
}

// SplitSkills turns "go, sql ,k8s" into [go sql k8s], dropping empty items.
func SplitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

// HasSkills reports whether raw holds at least one non-empty comma-separated skill.
func HasSkills(raw string) bool {
	return len(SplitSkills(raw)) > 0
}

type ExperienceRequest struct {
	Title       string `json:"title" binding:"required,notblank" msg:"Title is required"`
	Company     string `json:"company" binding:"required,notblank" msg:"Company is required"`
	Location    string `json:"location" binding:"omitempty,max=120"`
	From        string `json:"from" binding:"required,datetime=2006-01-02" msg:"From date is required"`
	To          string `json:"to" binding:"omitempty,datetime=2006-01-02"`
	Current     bool   `json:"current"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

type EducationRequest struct {
	School       string `json:"school" binding:"required,notblank" msg:"School is required"`
	Degree       string `json:"degree" binding:"required,notblank" msg:"Degree is required"`
	FieldOfStudy string `json:"fieldofstudy" binding:"required,notblank" msg:"Field of study is required"`
	From         string `json:"from" binding:"required,datetime=2006-01-02" msg:"From date is required"`
	To           string `json:"to" binding:"omitempty,datetime=2006-01-02"`
	Current      bool   `json:"current"`
	Description  string `json:"description" binding:"omitempty,max=2000"`
}
