package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/repository"
	"github.com/cppla/waldo/utils"
)

const (
	secretCodeBytes = 8
	maxCodeAttempts = 3
)

// Notifier tells the chosen user their secret code. Delivery is best effort.
type Notifier interface {
	NotifyWaldo(ctx context.Context, user models.User, code string, day time.Time) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, user models.User, code string, day time.Time) error

func (f NotifierFunc) NotifyWaldo(ctx context.Context, user models.User, code string, day time.Time) error {
	return f(ctx, user, code, day)
}

// WaldoView is today's Waldo as shown to players. It never carries the secret code.
type WaldoView struct {
	ID      uint               `json:"id"`
	Waldo   string             `json:"waldo"`
	Image   string             `json:"image"`
	Date    string             `json:"date"`
	Hints   []models.WaldoHint `json:"hints"`
	Finders int64              `json:"finders"`
}

// ClaimResult is the outcome of a successful found-Waldo claim.
type ClaimResult struct {
	PointsAwarded int `json:"points_awarded"`
	TotalPoints   int `json:"total_points"`
}

// WaldoService runs the daily Waldo lifecycle: selection, claims, hints.
type WaldoService struct {
	store           Store
	notifier        Notifier
	logger          *zap.Logger
	excludePrevious bool

	now     func() time.Time
	pick    func(n int) (int, error)
	newCode func() (string, error)
}

// NewWaldoService builds the engine over store. A nil logger disables logging.
func NewWaldoService(store Store, logger *zap.Logger) *WaldoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaldoService{
		store:   store,
		logger:  logger,
		now:     time.Now,
		pick:    randomIndex,
		newCode: NewSecretCode,
	}
}

// WithNotifier sets who gets told the secret code after selection.
func (s *WaldoService) WithNotifier(n Notifier) *WaldoService {
	s.notifier = n
	return s
}

// ExcludePrevious keeps yesterday's Waldo out of the draw when other users exist.
func (s *WaldoService) ExcludePrevious(on bool) *WaldoService {
	s.excludePrevious = on
	return s
}

// Today returns today's Waldo, selecting one first if none exists yet.
func (s *WaldoService) Today(ctx context.Context) (WaldoView, error) {
	day := DayOf(s.now())
	waldo, err := s.store.WaldoByDate(ctx, day)
	if err == nil {
		return s.viewOf(ctx, waldo)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return WaldoView{}, Internal(err)
	}

	view, err := s.SelectWaldo(ctx)
	if errors.Is(err, ErrWaldoExists) {
		// Lost the race to a concurrent selection: fetch the winner.
		waldo, err = s.store.WaldoByDate(ctx, day)
		if err != nil {
			return WaldoView{}, Internal(err)
		}
		return s.viewOf(ctx, waldo)
	}
	return view, err
}

// SelectWaldo draws today's Waldo uniformly at random among registered users
// and issues its secret code. Fails with ErrWaldoExists when the day already has one.
func (s *WaldoService) SelectWaldo(ctx context.Context) (WaldoView, error) {
	day := DayOf(s.now())

	candidates, err := s.candidates(ctx, day)
	if err != nil {
		return WaldoView{}, err
	}
	idx, err := s.pick(len(candidates))
	if err != nil {
		return WaldoView{}, Internal(err)
	}
	user, err := s.store.UserByID(ctx, candidates[idx])
	if err != nil {
		return WaldoView{}, Internal(err)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return WaldoView{}, Internal(err)
		}
		waldo := models.DailyWaldo{UserID: user.ID, Date: day, SecretCode: code, CreatedAt: s.now().UTC()}
		err = s.store.CreateWaldo(ctx, &waldo)
		if err == nil {
			s.logger.Info("daily waldo selected",
				zap.Uint("waldo_id", waldo.ID),
				zap.Uint("user_id", user.ID),
				zap.String("date", day.Format(time.DateOnly)))
			s.notify(ctx, user, code, day)
			return s.view(ctx, waldo, user)
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return WaldoView{}, Internal(err)
		}
		// Either the date or the code collided; only the former is final.
		if _, ferr := s.store.WaldoByDate(ctx, day); ferr == nil {
			return WaldoView{}, ErrWaldoExists
		} else if !errors.Is(ferr, repository.ErrNotFound) {
			return WaldoView{}, Internal(ferr)
		}
	}
	return WaldoView{}, Internal(errors.New("could not issue a unique secret code"))
}

// Claim records that userID found today's Waldo using code and credits the decayed points.
func (s *WaldoService) Claim(ctx context.Context, userID uint, code string) (ClaimResult, error) {
	now := s.now().UTC()
	day := DayOf(now)

	waldo, err := s.todayWaldo(ctx, day)
	if err != nil {
		return ClaimResult{}, err
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(waldo.SecretCode)) != 1 {
		return ClaimResult{}, ErrInvalidCode
	}
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ClaimResult{}, NotFound("user")
		}
		return ClaimResult{}, Internal(err)
	}

	found, err := s.store.HasFound(ctx, userID, waldo.ID)
	if err != nil {
		return ClaimResult{}, Internal(err)
	}
	if found {
		return ClaimResult{}, ErrAlreadyFound
	}

	points := PointsAt(now)
	find := models.WaldoFound{
		DailyWaldoID: waldo.ID,
		UserID:       userID,
		PointsEarned: points,
		Date:         day,
		CreatedAt:    now,
	}
	total, err := s.store.RecordFind(ctx, &find)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ClaimResult{}, ErrAlreadyFound
	case errors.Is(err, repository.ErrNotFound):
		return ClaimResult{}, NotFound("user")
	case err != nil:
		return ClaimResult{}, Internal(err)
	}

	s.logger.Info("waldo found",
		zap.Uint("user_id", userID),
		zap.Uint("waldo_id", waldo.ID),
		zap.Int("points", points),
		zap.Int("total", total))
	return ClaimResult{PointsAwarded: points, TotalPoints: total}, nil
}

// AddHint appends a clue to today's Waldo. At least one of text or imageURL must be set.
// Text is stored as plain text; imageURL must be http or https.
func (s *WaldoService) AddHint(ctx context.Context, text, imageURL string) (models.WaldoHint, error) {
	text = strings.TrimSpace(utils.Sanitize(text))
	imageURL = strings.TrimSpace(imageURL)
	if text == "" && imageURL == "" {
		return models.WaldoHint{}, ErrEmptyHint
	}
	if imageURL != "" && !utils.IsWebURL(imageURL) {
		return models.WaldoHint{}, ErrInvalidImageURL
	}

	waldo, err := s.todayWaldo(ctx, DayOf(s.now()))
	if err != nil {
		return models.WaldoHint{}, err
	}

	hint := models.WaldoHint{
		DailyWaldoID: waldo.ID,
		HintText:     text,
		HintImageURL: imageURL,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateHint(ctx, &hint); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.WaldoHint{}, ErrNoWaldoToday
		}
		return models.WaldoHint{}, Internal(err)
	}
	return hint, nil
}

// Hints lists today's hints in creation order.
func (s *WaldoService) Hints(ctx context.Context) ([]models.WaldoHint, error) {
	waldo, err := s.todayWaldo(ctx, DayOf(s.now()))
	if err != nil {
		return nil, err
	}
	byWaldo, err := s.store.HintsByWaldoIDs(ctx, []uint{waldo.ID})
	if err != nil {
		return nil, Internal(err)
	}
	hints := byWaldo[waldo.ID]
	if hints == nil {
		hints = []models.WaldoHint{}
	}
	return hints, nil
}

// SecretCode returns today's code.
func (s *WaldoService) SecretCode(ctx context.Context) (string, error) {
	waldo, err := s.todayWaldo(ctx, DayOf(s.now()))
	if err != nil {
		return "", err
	}
	return waldo.SecretCode, nil
}

// Stats returns table counts, with today's finder count for the current UTC day.
func (s *WaldoService) Stats(ctx context.Context) (repository.Stats, error) {
	st, err := s.store.Stats(ctx, DayOf(s.now()))
	if err != nil {
		return repository.Stats{}, Internal(err)
	}
	return st, nil
}

func (s *WaldoService) todayWaldo(ctx context.Context, day time.Time) (models.DailyWaldo, error) {
	waldo, err := s.store.WaldoByDate(ctx, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.DailyWaldo{}, ErrNoWaldoToday
		}
		return models.DailyWaldo{}, Internal(err)
	}
	return waldo, nil
}

func (s *WaldoService) candidates(ctx context.Context, day time.Time) ([]uint, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	if len(ids) == 0 {
		return nil, ErrNoUsersAvailable
	}
	if !s.excludePrevious || len(ids) < 2 {
		return ids, nil
	}

	prev, err := s.store.WaldoByDate(ctx, day.AddDate(0, 0, -1))
	if errors.Is(err, repository.ErrNotFound) {
		return ids, nil
	}
	if err != nil {
		return nil, Internal(err)
	}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != prev.UserID {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return ids, nil
	}
	return out, nil
}

func (s *WaldoService) viewOf(ctx context.Context, waldo models.DailyWaldo) (WaldoView, error) {
	user, err := s.store.UserByID(ctx, waldo.UserID)
	if err != nil {
		return WaldoView{}, Internal(err)
	}
	return s.view(ctx, waldo, user)
}

func (s *WaldoService) view(ctx context.Context, waldo models.DailyWaldo, user models.User) (WaldoView, error) {
	byWaldo, err := s.store.HintsByWaldoIDs(ctx, []uint{waldo.ID})
	if err != nil {
		return WaldoView{}, Internal(err)
	}
	finders, err := s.store.CountFinds(ctx, waldo.ID)
	if err != nil {
		return WaldoView{}, Internal(err)
	}
	hints := byWaldo[waldo.ID]
	if hints == nil {
		hints = []models.WaldoHint{}
	}
	return WaldoView{
		ID:      waldo.ID,
		Waldo:   user.Username,
		Image:   user.ProfileImageURL,
		Date:    waldo.Date.UTC().Format(time.DateOnly),
		Hints:   hints,
		Finders: finders,
	}, nil
}

func (s *WaldoService) notify(ctx context.Context, user models.User, code string, day time.Time) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyWaldo(ctx, user, code, day); err != nil {
		s.logger.Warn("failed to notify waldo", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

// NewSecretCode returns 8 random bytes from crypto/rand, hex encoded.
func NewSecretCode() (string, error) {
	b := make([]byte, secretCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
