package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/logger"
	"blogsphere/services/contact/internal/entity"
	"blogsphere/services/contact/internal/repo/persistent"
)

const maxMessageLength = 5000

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactUseCase interface {
	Submit(ctx context.Context, name, email, message string) (*entity.Message, error)
}

type contactUseCase struct {
	messageRepo persistent.MessageRepository
	logger      *logger.Logger
}

func NewContactUseCase(messageRepo persistent.MessageRepository, logger *logger.Logger) ContactUseCase {
	return &contactUseCase{
		messageRepo: messageRepo,
		logger:      logger,
	}
}

func (uc *contactUseCase) Submit(ctx context.Context, name, email, message string) (*entity.Message, error) {
	msg := &entity.Message{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, fmt.Errorf("%w: please fill in all fields", apperrors.ErrValidation)
	}
	if !emailPattern.MatchString(msg.Email) {
		return nil, fmt.Errorf("%w: please enter a valid email address", apperrors.ErrValidation)
	}
	if len(msg.Message) > maxMessageLength {
		return nil, fmt.Errorf("%w: message is too long", apperrors.ErrValidation)
	}

	if err := uc.messageRepo.Create(ctx, msg); err != nil {
		uc.logger.Error("Failed to store contact message from %s: %v", msg.Email, err)
		return nil, err
	}

	uc.logger.Info("Contact message %s received from %s", msg.ID, msg.Email)
	return msg, nil
}
