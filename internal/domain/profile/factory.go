package profile

import (
	"time"

	"github.com/google/uuid"
)

// NewExperience builds an entry from a validated request. A current entry has no end date.
func NewExperience(req ExperienceRequest) (Experience, error) {
	from, to, err := parseRange(req.From, req.To, req.Current)
	if err != nil {
		return Experience{}, err
	}

	return Experience{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        from,
		To:          to,
		Current:     req.Current,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func NewEducation(req EducationRequest) (Education, error) {
	from, to, err := parseRange(req.From, req.To, req.Current)
	if err != nil {
		return Education{}, err
	}

	return Education{
		ID:           uuid.NewString(),
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      req.Current,
		Description:  req.Description,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func parseRange(fromRaw, toRaw string, current bool) (time.Time, *time.Time, error) {
	from, err := time.Parse(DateLayout, fromRaw)
	if err != nil {
		return time.Time{}, nil, err
	}

	if current || toRaw == "" {
		return from, nil, nil
	}

	to, err := time.Parse(DateLayout, toRaw)
	if err != nil {
		return time.Time{}, nil, err
	}

	return from, &to, nil
}
