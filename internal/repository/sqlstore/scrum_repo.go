package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
)

// The statements stick to syntax shared by PostgreSQL and SQLite 3.24+.
const schema = `
CREATE TABLE IF NOT EXISTS scrum_times (
    channel_id TEXT PRIMARY KEY,
    scrum_time TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

type ScrumRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewScrumRepo(db *sql.DB) *ScrumRepo {
	return &ScrumRepo{db: db, now: time.Now}
}

// Migrate creates the table when it does not exist yet.
func (r *ScrumRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "create scrum_times")
	}
	return nil
}

func (r *ScrumRepo) Save(ctx context.Context, s scrum.Setting) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO scrum_times (channel_id, scrum_time, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (channel_id)
        DO UPDATE SET scrum_time = excluded.scrum_time, updated_at = excluded.updated_at
    `, s.ChannelID, s.Time, r.now().UTC())
	if err != nil {
		return errors.Wrapf(err, "save scrum time for %s", s.ChannelID)
	}
	return nil
}

func (r *ScrumRepo) Get(ctx context.Context, channelID string) (scrum.Setting, error) {
	s := scrum.Setting{ChannelID: channelID}
	err := r.db.QueryRowContext(ctx, `
        SELECT scrum_time
        FROM scrum_times
        WHERE channel_id = $1
    `, channelID).Scan(&s.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return scrum.Setting{}, scrum.ErrNotSet
	}
	if err != nil {
		return scrum.Setting{}, errors.Wrapf(err, "get scrum time for %s", channelID)
	}
	return s, nil
}

func (r *ScrumRepo) List(ctx context.Context) ([]scrum.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT channel_id, scrum_time
        FROM scrum_times
        ORDER BY channel_id
    `)
	if err != nil {
		return nil, errors.Wrap(err, "list scrum times")
	}
	defer rows.Close()

	var res []scrum.Setting
	for rows.Next() {
		var s scrum.Setting
		if err := rows.Scan(&s.ChannelID, &s.Time); err != nil {
			return nil, errors.Wrap(err, "scan scrum time")
		}
		res = append(res, s)
	}
	return res, errors.Wrap(rows.Err(), "iterate scrum times")
}
