package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samims/birthday/internal/birthday"
	appErr "github.com/samims/birthday/internal/errors"
	"github.com/samims/birthday/internal/logger"
	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/internal/storage"
)

type UserService interface {
	Create(ctx context.Context, req model.CreateUserRequest) error
	Delete(ctx context.Context, fullName string) error
	Edit(ctx context.Context, req model.EditUserRequest) error
}

type userService struct {
	store    storage.UserStorage
	notifier BirthdayNotifier
	logger   *zap.Logger
}

func NewUserService(store storage.UserStorage, notifier BirthdayNotifier, l *zap.Logger) UserService {
	return &userService{
		store:    store,
		notifier: notifier,
		logger:   logger.Component(l, "service", "userService"),
	}
}

func (s *userService) Create(ctx context.Context, req model.CreateUserRequest) error {
	if missing := missingFields(map[string]string{
		"fullName":      req.FullName,
		"customMessage": req.CustomMessage,
		"birthday":      req.Birthday,
		"location":      req.Location,
		"email":         req.Email,
	}); len(missing) > 0 {
		return appErr.NewValidation("missing fields %s", strings.Join(missing, ", "))
	}

	bday, err := ParseBirthday(req.Birthday)
	if err != nil {
		return err
	}

	user := model.User{
		FullName:      req.FullName,
		CustomMessage: req.CustomMessage,
		Birthday:      bday,
		Location:      req.Location,
		Email:         req.Email,
	}
	if err := s.store.Insert(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.String("fullName", req.FullName), zap.Error(err))
		return appErr.NewPersistence(err, "create user %q", req.FullName)
	}

	s.logger.Info("user created", zap.String("fullName", user.FullName))
	return nil
}

// Delete removes the user. Anything other than exactly one removed row is
// reported as not found, so a delete of a duplicated name still commits.
func (s *userService) Delete(ctx context.Context, fullName string) error {
	affected, err := s.store.DeleteByFullName(ctx, fullName)
	if err != nil {
		s.logger.Error("failed to delete user", zap.String("fullName", fullName), zap.Error(err))
		return appErr.NewPersistence(err, "delete user %q", fullName)
	}
	if affected != 1 {
		return appErr.NewNotFound("user %q (%d rows affected)", fullName, affected)
	}

	s.logger.Info("user deleted", zap.String("fullName", fullName))
	return nil
}

// Edit updates birthday, location and email. When the birthday moved to
// another month/day, the user is notified right away with the new data.
func (s *userService) Edit(ctx context.Context, req model.EditUserRequest) error {
	if missing := missingFields(map[string]string{
		"fullName":    req.FullName,
		"newBirthday": req.NewBirthday,
		"location":    req.Location,
		"newEmail":    req.NewEmail,
	}); len(missing) > 0 {
		return appErr.NewValidation("missing fields %s", strings.Join(missing, ", "))
	}

	bday, err := ParseBirthday(req.NewBirthday)
	if err != nil {
		return err
	}

	res, err := s.store.UpdateByFullName(ctx, model.UserUpdate{
		FullName: req.FullName,
		Birthday: bday,
		Location: req.Location,
		Email:    req.NewEmail,
	})
	if err != nil {
		s.logger.Error("failed to update user", zap.String("fullName", req.FullName), zap.Error(err))
		return appErr.NewPersistence(err, "update user %q", req.FullName)
	}
	if res.Affected != 1 {
		return appErr.NewNotFound("user %q (%d rows affected)", req.FullName, res.Affected)
	}

	s.logger.Info("user updated", zap.String("fullName", req.FullName))

	if !birthday.SameDay(res.Previous.Birthday, res.Current.Birthday) {
		s.logger.Info("birthday changed, notifying",
			zap.String("fullName", req.FullName),
			zap.String("previous", res.Previous.Birthday.Format(time.DateOnly)),
			zap.String("current", res.Current.Birthday.Format(time.DateOnly)))
		s.notifier.Notify(ctx, res.Current, model.TriggerBirthdayChanged)
	}
	return nil
}

// ParseBirthday accepts YYYY-MM-DD or RFC 3339 and keeps only the calendar
// date as written, at UTC midnight.
func ParseBirthday(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, appErr.NewValidation("birthday %q is not a date", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// missingFields returns the sorted names of blank fields.
func missingFields(fields map[string]string) []string {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
