package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/internal/domain/skills"
	"github.com/okian/vmatch/pkg/metrics"
)

const (
	backend = "postgres"

	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

var _ repository.Store = (*Store)(nil)

// Store implements repository.Store.
type Store struct {
	db *DB
}

// NewStore wraps an open DB.
func NewStore(db *DB) *Store { return &Store{db: db} }

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(backend, op, time.Since(start))
	if err != nil && !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrConflict) {
		metrics.RecordErrorByComponent("repository", op)
	}
}

// Seed inserts the demo roster and catalog, leaving existing rows alone.
func (s *Store) Seed(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("seed", start, err) }(time.Now())

	batch := &pgx.Batch{}
	for _, v := range repository.DemoVolunteers() {
		batch.Queue(`INSERT INTO volunteers (id, name, city, email, phone, skills)
			VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			v.ID, v.Name, v.City, v.Email, v.Phone, v.Skills.Slice())
	}
	for _, e := range repository.DemoEvents() {
		batch.Queue(`INSERT INTO events (id, name, event_date, location, description, required_skills, capacity)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			e.ID, e.Name, e.Date, e.Location, e.Description, e.RequiredSkills.Slice(), e.Capacity)
	}
	if err = s.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

const volunteerCols = `id, name, city, email, phone, skills`

func scanVolunteer(row pgx.Row) (model.Volunteer, error) {
	var v model.Volunteer
	var tags []string
	if err := row.Scan(&v.ID, &v.Name, &v.City, &v.Email, &v.Phone, &tags); err != nil {
		return model.Volunteer{}, err
	}
	v.Skills = skills.New(tags...)
	return v, nil
}

const eventCols = `id, name, event_date, location, description, required_skills, capacity`

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	var tags []string
	if err := row.Scan(&e.ID, &e.Name, &e.Date, &e.Location, &e.Description, &tags, &e.Capacity); err != nil {
		return model.Event{}, err
	}
	e.RequiredSkills = skills.New(tags...)
	return e, nil
}

func (s *Store) ListVolunteers(ctx context.Context) (out []model.Volunteer, err error) {
	defer func(start time.Time) { observe("list_volunteers", start, err) }(time.Now())
	rows, err := s.db.Pool.Query(ctx, `SELECT `+volunteerCols+` FROM volunteers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()
	out = make([]model.Volunteer, 0)
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) ListEvents(ctx context.Context) (out []model.Event, err error) {
	defer func(start time.Time) { observe("list_events", start, err) }(time.Now())
	rows, err := s.db.Pool.Query(ctx, `SELECT `+eventCols+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	out = make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetVolunteer(ctx context.Context, id int64) (v model.Volunteer, err error) {
	defer func(start time.Time) { observe("get_volunteer", start, err) }(time.Now())
	v, err = scanVolunteer(s.db.Pool.QueryRow(ctx, `SELECT `+volunteerCols+` FROM volunteers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Volunteer{}, fmt.Errorf("volunteer %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return model.Volunteer{}, fmt.Errorf("get volunteer: %w", err)
	}
	return v, nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (e model.Event, err error) {
	defer func(start time.Time) { observe("get_event", start, err) }(time.Now())
	e, err = scanEvent(s.db.Pool.QueryRow(ctx, `SELECT `+eventCols+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateVolunteer(ctx context.Context, v model.Volunteer) (out model.Volunteer, err error) {
	defer func(start time.Time) { observe("update_volunteer", start, err) }(time.Now())
	out, err = scanVolunteer(s.db.Pool.QueryRow(ctx, `
		UPDATE volunteers SET name = $2, city = $3, email = $4, phone = $5, skills = $6
		WHERE id = $1
		RETURNING `+volunteerCols,
		v.ID, v.Name, v.City, v.Email, v.Phone, v.Skills.Slice()))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Volunteer{}, fmt.Errorf("volunteer %d: %w", v.ID, repository.ErrNotFound)
	}
	if err != nil {
		return model.Volunteer{}, fmt.Errorf("update volunteer: %w", err)
	}
	return out, nil
}

// CreateEvent takes its id from events_id_seq.
func (s *Store) CreateEvent(ctx context.Context, e model.Event) (out model.Event, err error) {
	defer func(start time.Time) { observe("create_event", start, err) }(time.Now())
	out, err = scanEvent(s.db.Pool.QueryRow(ctx, `
		INSERT INTO events (name, event_date, location, description, required_skills, capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+eventCols,
		e.Name, e.Date, e.Location, e.Description, e.RequiredSkills.Slice(), e.Capacity))
	if err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e model.Event) (out model.Event, err error) {
	defer func(start time.Time) { observe("update_event", start, err) }(time.Now())
	out, err = scanEvent(s.db.Pool.QueryRow(ctx, `
		UPDATE events
		SET name = $2, event_date = $3, location = $4, description = $5, required_skills = $6, capacity = $7
		WHERE id = $1
		RETURNING `+eventCols,
		e.ID, e.Name, e.Date, e.Location, e.Description, e.RequiredSkills.Slice(), e.Capacity))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %d: %w", e.ID, repository.ErrNotFound)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	return out, nil
}

// DeleteEvent relies on ON DELETE CASCADE to drop the event's registrations.
func (s *Store) DeleteEvent(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_event", start, err) }(time.Now())
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

// Register relies on the partial unique index: a second active row for the
// pair inserts nothing and returns no row, which maps to ErrConflict.
func (s *Store) Register(ctx context.Context, volunteerID, eventID int64, at time.Time) (reg model.Registration, err error) {
	defer func(start time.Time) { observe("register", start, err) }(time.Now())

	var createdAt time.Time
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO registrations (volunteer_id, event_id, status, created_at)
		VALUES ($1, $2, 'registered', $3)
		ON CONFLICT (volunteer_id, event_id) WHERE status = 'registered' DO NOTHING
		RETURNING created_at`,
		volunteerID, eventID, at.UTC()).Scan(&createdAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.Registration{}, fmt.Errorf("registration %d/%d: %w", volunteerID, eventID, repository.ErrConflict)
	case err != nil:
		return model.Registration{}, fmt.Errorf("register: %w", translate(err))
	}
	return model.Registration{
		VolunteerID: volunteerID,
		EventID:     eventID,
		Status:      model.StatusRegistered,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

func (s *Store) Cancel(ctx context.Context, volunteerID, eventID int64) (err error) {
	defer func(start time.Time) { observe("cancel", start, err) }(time.Now())
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE registrations SET status = 'cancelled'
		WHERE volunteer_id = $1 AND event_id = $2 AND status = 'registered'`,
		volunteerID, eventID)
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registration %d/%d: %w", volunteerID, eventID, repository.ErrNotFound)
	}
	return nil
}

func (s *Store) RegisteredEventIDs(ctx context.Context, volunteerID int64) (ids []int64, err error) {
	defer func(start time.Time) { observe("registered_event_ids", start, err) }(time.Now())
	rows, err := s.db.Pool.Query(ctx, `
		SELECT event_id FROM registrations
		WHERE volunteer_id = $1 AND status = 'registered'
		ORDER BY event_id`, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("registered event ids: %w", err)
	}
	ids, err = pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("registered event ids: %w", err)
	}
	return ids, nil
}

func (s *Store) CountRegistered(ctx context.Context, volunteerID, eventID int64) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM registrations
		WHERE volunteer_id = $1 AND event_id = $2 AND status = 'registered'`,
		volunteerID, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registered: %w", err)
	}
	return n, nil
}

func (s *Store) CreateNotification(ctx context.Context, n model.Notification) (err error) {
	defer func(start time.Time) { observe("create_notification", start, err) }(time.Now())
	created := n.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, message, event_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, string(n.Type), n.Message, n.EventID, n.IsRead, created.UTC())
	if err != nil {
		return fmt.Errorf("create notification: %w", translate(err))
	}
	return nil
}

const notificationCols = `id, user_id, type, message, event_id, is_read, created_at`

func scanNotification(row pgx.Row) (model.Notification, error) {
	var n model.Notification
	var typ string
	if err := row.Scan(&n.ID, &n.UserID, &typ, &n.Message, &n.EventID, &n.IsRead, &n.CreatedAt); err != nil {
		return model.Notification{}, err
	}
	n.Type = model.NotificationType(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID int64) (out []model.Notification, err error) {
	defer func(start time.Time) { observe("list_notifications", start, err) }(time.Now())
	rows, err := s.db.Pool.Query(ctx, `SELECT `+notificationCols+` FROM notifications
		WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	out = make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) (n model.Notification, err error) {
	defer func(start time.Time) { observe("mark_notification_read", start, err) }(time.Now())
	n, err = scanNotification(s.db.Pool.QueryRow(ctx, `UPDATE notifications SET is_read = TRUE
		WHERE id = $1 RETURNING `+notificationCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Notification{}, fmt.Errorf("notification %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return model.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *Store) AppendHistory(ctx context.Context, e model.HistoryEntry) (out model.HistoryEntry, err error) {
	defer func(start time.Time) { observe("append_history", start, err) }(time.Now())
	if e.VolunteerID <= 0 {
		return model.HistoryEntry{}, fmt.Errorf("history: %w", repository.ErrInvalid)
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO volunteer_history (volunteer_id, event_id, description, hours, status, volunteer_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		e.VolunteerID, e.EventID, e.Description, e.Hours, e.Status, e.VolunteerDate, created.UTC()).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("append history: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (s *Store) ListHistory(ctx context.Context, volunteerID int64) (out []model.HistoryEntry, err error) {
	defer func(start time.Time) { observe("list_history", start, err) }(time.Now())
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, volunteer_id, event_id, description, hours, status, volunteer_date, created_at
		FROM volunteer_history
		WHERE $1::bigint = 0 OR volunteer_id = $1
		ORDER BY created_at DESC, id DESC`, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	out = make([]model.HistoryEntry, 0)
	for rows.Next() {
		var h model.HistoryEntry
		if err := rows.Scan(&h.ID, &h.VolunteerID, &h.EventID, &h.Description, &h.Hours, &h.Status, &h.VolunteerDate, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		h.CreatedAt = h.CreatedAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) DeleteHistory(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_history", start, err) }(time.Now())
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM volunteer_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("history %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (s *Store) HistorySummary(ctx context.Context) (sum model.HistorySummary, err error) {
	defer func(start time.Time) { observe("history_summary", start, err) }(time.Now())
	err = s.db.Pool.QueryRow(ctx, `
		SELECT count(DISTINCT volunteer_id), count(*), COALESCE(sum(hours), 0)
		FROM volunteer_history
		WHERE hours > 0`).Scan(&sum.TotalVolunteers, &sum.TotalEntries, &sum.TotalHours)
	if err != nil {
		return model.HistorySummary{}, fmt.Errorf("history summary: %w", err)
	}
	return sum, nil
}

func (s *Store) VolunteerHistorySummary(ctx context.Context) (out []model.VolunteerHours, err error) {
	defer func(start time.Time) { observe("volunteer_history_summary", start, err) }(time.Now())
	rows, err := s.db.Pool.Query(ctx, `
		SELECT v.id, v.name, v.email, v.phone, count(h.id), sum(h.hours)
		FROM volunteers v
		JOIN volunteer_history h ON h.volunteer_id = v.id AND h.hours > 0
		GROUP BY v.id, v.name, v.email, v.phone
		ORDER BY v.name, v.id`)
	if err != nil {
		return nil, fmt.Errorf("volunteer history summary: %w", err)
	}
	out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.VolunteerHours, error) {
		var vh model.VolunteerHours
		err := row.Scan(&vh.VolunteerID, &vh.Name, &vh.Email, &vh.Phone, &vh.EntryCount, &vh.TotalHours)
		return vh, err
	})
	if err != nil {
		return nil, fmt.Errorf("volunteer history summary: %w", err)
	}
	return out, nil
}

// translate maps constraint violations onto repository sentinels.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, repository.ErrNotFound)
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, repository.ErrConflict)
	default:
		return err
	}
}
