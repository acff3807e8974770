package filestore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
)

// legacyKey marks the old single-channel layout {"scrum_time": "09:00"}.
const legacyKey = "scrum_time"

type record struct {
	ScrumTime string `json:"scrum_time"`
}

// ScrumRepo keeps scrum times in a JSON file keyed by channel ID:
// {"C123": {"scrum_time": "09:00"}}.
type ScrumRepo struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	settings map[string]string
}

// NewScrumRepo loads path. A missing file starts empty.
func NewScrumRepo(path string, logger *slog.Logger) (*ScrumRepo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &ScrumRepo{
		path:     path,
		logger:   logger.With("module", "scrum_filestore"),
		settings: make(map[string]string),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ScrumRepo) Save(ctx context.Context, s scrum.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.settings[s.ChannelID]
	r.settings[s.ChannelID] = s.Time
	if err := r.flush(); err != nil {
		if had {
			r.settings[s.ChannelID] = prev
		} else {
			delete(r.settings, s.ChannelID)
		}
		return err
	}
	return nil
}

func (r *ScrumRepo) Get(ctx context.Context, channelID string) (scrum.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.settings[channelID]
	if !ok {
		return scrum.Setting{}, scrum.ErrNotSet
	}
	return scrum.Setting{ChannelID: channelID, Time: t}, nil
}

func (r *ScrumRepo) List(ctx context.Context) ([]scrum.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]scrum.Setting, 0, len(r.settings))
	for channelID, t := range r.settings {
		res = append(res, scrum.Setting{ChannelID: channelID, Time: t})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ChannelID < res[j].ChannelID })
	return res, nil
}

func (r *ScrumRepo) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", r.path)
	}
	if len(data) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrapf(err, "decode %s", r.path)
	}

	var legacy string
	if msg, ok := raw[legacyKey]; ok && json.Unmarshal(msg, &legacy) == nil {
		r.logger.Warn("legacy scrum file layout detected, starting empty",
			"event", "scrum_file_legacy",
			"path", r.path,
		)
		return nil
	}

	for channelID, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil || rec.ScrumTime == "" {
			r.logger.Warn("skipping unreadable scrum entry",
				"event", "scrum_file_bad_entry",
				"channel_id", channelID,
			)
			continue
		}
		r.settings[channelID] = rec.ScrumTime
	}
	return nil
}

// flush rewrites the file through a temp file so readers never see a
// partial write.
func (r *ScrumRepo) flush() error {
	out := make(map[string]record, len(r.settings))
	for channelID, t := range r.settings {
		out[channelID] = record{ScrumTime: t}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode scrum times")
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "replace %s", r.path)
	}
	return nil
}
