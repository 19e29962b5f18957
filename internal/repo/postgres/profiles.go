package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/devnet/internal/domain/profile"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfilesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProfilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProfilesRepo {
	return &ProfilesRepo{pool: pool, prom: prom}
}

const selectProfile = `
	SELECT p.id, p.user_id, u.name, u.avatar,
		p.company, p.website, p.location, p.status, p.skills, p.bio, p.github_username,
		p.youtube, p.twitter, p.facebook, p.linkedin, p.instagram,
		p.created_at, p.updated_at
	FROM profiles p
	JOIN users u ON u.id = p.user_id`

func scanProfile(row pgx.Row) (profile.Profile, error) {
	var p profile.Profile

	err := row.Scan(
		&p.ID,
		&p.User.ID,
		&p.User.Name,
		&p.User.Avatar,
		&p.Company,
		&p.Website,
		&p.Location,
		&p.Status,
		&p.Skills,
		&p.Bio,
		&p.GitHubUsername,
		&p.Social.YouTube,
		&p.Social.Twitter,
		&p.Social.Facebook,
		&p.Social.LinkedIn,
		&p.Social.Instagram,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		return profile.Profile{}, err
	}

	p.Experience = []profile.Experience{}
	p.Education = []profile.Education{}

	return p, nil
}

// Upsert creates the caller's profile or replaces its writable fields.
func (r *ProfilesRepo) Upsert(ctx context.Context, userID string, f profile.Fields) (profile.Profile, error) {
	now := time.Now().UTC()

	if f.Skills == nil {
		f.Skills = []string{}
	}

	err := r.prom.ObserveDB("profiles.upsert", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO profiles (id, user_id, company, website, location, status, skills, bio, github_username,
				youtube, twitter, facebook, linkedin, instagram, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
			ON CONFLICT ON CONSTRAINT profiles_user_uniq DO UPDATE SET
				company = EXCLUDED.company,
				website = EXCLUDED.website,
				location = EXCLUDED.location,
				status = EXCLUDED.status,
				skills = EXCLUDED.skills,
				bio = EXCLUDED.bio,
				github_username = EXCLUDED.github_username,
				youtube = EXCLUDED.youtube,
				twitter = EXCLUDED.twitter,
				facebook = EXCLUDED.facebook,
				linkedin = EXCLUDED.linkedin,
				instagram = EXCLUDED.instagram,
				updated_at = EXCLUDED.updated_at
		`,
			uuid.NewString(), userID, f.Company, f.Website, f.Location, f.Status, f.Skills, f.Bio, f.GitHubUsername,
			f.Social.YouTube, f.Social.Twitter, f.Social.Facebook, f.Social.LinkedIn, f.Social.Instagram, now,
		)
		return e
	})

	if err != nil {
		if code, _ := pgCode(err); code == codeForeignKeyViolation {
			return profile.Profile{}, user.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	return r.GetByUserID(ctx, userID)
}

func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID string) (profile.Profile, error) {
	var p profile.Profile

	err := r.prom.ObserveDB("profiles.get_by_user", func() error {
		var e error
		p, e = scanProfile(r.pool.QueryRow(ctx, selectProfile+` WHERE p.user_id = $1`, userID))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, err
	}

	out := []profile.Profile{p}
	if err := r.attachEntries(ctx, out); err != nil {
		return profile.Profile{}, err
	}

	return out[0], nil
}

func (r *ProfilesRepo) List(ctx context.Context) ([]profile.Profile, error) {
	out := []profile.Profile{}

	err := r.prom.ObserveDB("profiles.list", func() error {
		rows, e := r.pool.Query(ctx, selectProfile+` ORDER BY p.created_at DESC`)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			p, e := scanProfile(rows)
			if e != nil {
				return e
			}
			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if err := r.attachEntries(ctx, out); err != nil {
		return nil, err
	}

	return out, nil
}

// attachEntries loads experience and education for all profiles in two queries, newest first.
func (r *ProfilesRepo) attachEntries(ctx context.Context, profiles []profile.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	ids := make([]string, len(profiles))
	index := make(map[string]int, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
		index[p.ID] = i
	}

	err := r.prom.ObserveDB("profiles.experience.list", func() error {
		rows, e := r.pool.Query(ctx, `
			SELECT id, profile_id, title, company, location, from_date, to_date, is_current, description, created_at
			FROM profile_experience
			WHERE profile_id = ANY($1::text[]::uuid[])
			ORDER BY created_at DESC, id DESC
		`, ids)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var (
				x         profile.Experience
				profileID string
			)
			if e := rows.Scan(&x.ID, &profileID, &x.Title, &x.Company, &x.Location, &x.From, &x.To, &x.Current, &x.Description, &x.CreatedAt); e != nil {
				return e
			}
			i := index[profileID]
			profiles[i].Experience = append(profiles[i].Experience, x)
		}

		return rows.Err()
	})

	if err != nil {
		return fmt.Errorf("load experience: %w", err)
	}

	err = r.prom.ObserveDB("profiles.education.list", func() error {
		rows, e := r.pool.Query(ctx, `
			SELECT id, profile_id, school, degree, field_of_study, from_date, to_date, is_current, description, created_at
			FROM profile_education
			WHERE profile_id = ANY($1::text[]::uuid[])
			ORDER BY created_at DESC, id DESC
		`, ids)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var (
				x         profile.Education
				profileID string
			)
			if e := rows.Scan(&x.ID, &profileID, &x.School, &x.Degree, &x.FieldOfStudy, &x.From, &x.To, &x.Current, &x.Description, &x.CreatedAt); e != nil {
				return e
			}
			i := index[profileID]
			profiles[i].Education = append(profiles[i].Education, x)
		}

		return rows.Err()
	})

	if err != nil {
		return fmt.Errorf("load education: %w", err)
	}

	return nil
}

func (r *ProfilesRepo) AddExperience(ctx context.Context, userID string, x profile.Experience) (profile.Profile, error) {
	var affected int64

	err := r.prom.ObserveDB("profiles.experience.add", func() error {
		tag, e := r.pool.Exec(ctx, `
			INSERT INTO profile_experience (id, profile_id, title, company, location, from_date, to_date, is_current, description, created_at)
			SELECT $1::uuid, p.id, $3::text, $4::text, $5::text, $6::date, $7::date, $8::boolean, $9::text, $10::timestamptz
			FROM profiles p
			WHERE p.user_id = $2
		`, x.ID, userID, x.Title, x.Company, x.Location, x.From, x.To, x.Current, x.Description, x.CreatedAt)
		affected = tag.RowsAffected()
		return e
	})

	return r.afterEntryWrite(ctx, userID, affected, err)
}

func (r *ProfilesRepo) AddEducation(ctx context.Context, userID string, x profile.Education) (profile.Profile, error) {
	var affected int64

	err := r.prom.ObserveDB("profiles.education.add", func() error {
		tag, e := r.pool.Exec(ctx, `
			INSERT INTO profile_education (id, profile_id, school, degree, field_of_study, from_date, to_date, is_current, description, created_at)
			SELECT $1::uuid, p.id, $3::text, $4::text, $5::text, $6::date, $7::date, $8::boolean, $9::text, $10::timestamptz
			FROM profiles p
			WHERE p.user_id = $2
		`, x.ID, userID, x.School, x.Degree, x.FieldOfStudy, x.From, x.To, x.Current, x.Description, x.CreatedAt)
		affected = tag.RowsAffected()
		return e
	})

	return r.afterEntryWrite(ctx, userID, affected, err)
}

func (r *ProfilesRepo) afterEntryWrite(ctx context.Context, userID string, affected int64, err error) (profile.Profile, error) {
	if err != nil {
		if isBadID(err) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, err
	}

	if affected == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}

	return r.GetByUserID(ctx, userID)
}

// ExperienceOwner returns the user id owning the experience entry.
func (r *ProfilesRepo) ExperienceOwner(ctx context.Context, id string) (string, error) {
	return r.entryOwner(ctx, "profiles.experience.owner", `
		SELECT p.user_id FROM profile_experience e JOIN profiles p ON p.id = e.profile_id WHERE e.id = $1`, id)
}

func (r *ProfilesRepo) EducationOwner(ctx context.Context, id string) (string, error) {
	return r.entryOwner(ctx, "profiles.education.owner", `
		SELECT p.user_id FROM profile_education e JOIN profiles p ON p.id = e.profile_id WHERE e.id = $1`, id)
}

func (r *ProfilesRepo) entryOwner(ctx context.Context, op, query, id string) (string, error) {
	var owner string

	err := r.prom.ObserveDB(op, func() error {
		return r.pool.QueryRow(ctx, query, id).Scan(&owner)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
			return "", profile.ErrEntryNotFound
		}
		return "", err
	}

	return owner, nil
}

func (r *ProfilesRepo) DeleteExperience(ctx context.Context, userID, id string) (profile.Profile, error) {
	return r.deleteEntry(ctx, "profiles.experience.delete", `
		DELETE FROM profile_experience e USING profiles p
		WHERE e.id = $1 AND e.profile_id = p.id AND p.user_id = $2`, userID, id)
}

func (r *ProfilesRepo) DeleteEducation(ctx context.Context, userID, id string) (profile.Profile, error) {
	return r.deleteEntry(ctx, "profiles.education.delete", `
		DELETE FROM profile_education e USING profiles p
		WHERE e.id = $1 AND e.profile_id = p.id AND p.user_id = $2`, userID, id)
}

func (r *ProfilesRepo) deleteEntry(ctx context.Context, op, query, userID, id string) (profile.Profile, error) {
	var affected int64

	err := r.prom.ObserveDB(op, func() error {
		tag, e := r.pool.Exec(ctx, query, id, userID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		if isBadID(err) {
			return profile.Profile{}, profile.ErrEntryNotFound
		}
		return profile.Profile{}, err
	}

	if affected == 0 {
		return profile.Profile{}, profile.ErrEntryNotFound
	}

	return r.GetByUserID(ctx, userID)
}
