package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"storyrunner/internal/config"
	"storyrunner/internal/generation"
	"storyrunner/internal/interfaces"
	"storyrunner/internal/messaging"
	"storyrunner/internal/models"
	"storyrunner/internal/prompt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// continuationTemplate is appended to a session's initial prompt to ask for
// the next chapter. The initial prompt carries the full story setup; this part
// carries only what changed since.
const continuationTemplate = `

Continue the story.
Chapter number: {{CHAPTER_INDEX}}
The previous chapter was:
{{PREVIOUS_CHAPTER}}
The reader chose: {{CHOSEN_BRANCH}}`

// SessionService drives play sessions: starting them, advancing them chapter
// by chapter, and closing them out.
type SessionService interface {
	// Start validates the story and flavors, charges the first chapter,
	// creates the session and generates its opening chapter.
	Start(ctx context.Context, userID, storyID uuid.UUID, toneStyleID, timeFlavorID string) (*models.Session, *models.Chapter, error)
	// Advance charges one chapter, generates it from the chosen branch and
	// moves the chapter counter forward.
	Advance(ctx context.Context, userID, sessionID uuid.UUID, choice string) (*models.Chapter, error)
	Complete(ctx context.Context, userID, sessionID uuid.UUID, rating *int) error
	Abandon(ctx context.Context, userID, sessionID uuid.UUID) error
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error)
	ListChapters(ctx context.Context, userID, sessionID uuid.UUID) ([]*models.Chapter, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Session, error)
}

type sessionServiceImpl struct {
	db           interfaces.DBTX
	txRunner     interfaces.TxRunner
	sessionRepo  interfaces.SessionRepository
	chapterRepo  interfaces.ChapterRepository
	storyRepo    interfaces.StoryRepository
	settingsRepo interfaces.SettingsRepository
	walletRepo   interfaces.WalletRepository
	generator    generation.Client
	publisher    messaging.EventPublisher
	cfg          *config.Config
	logger       *zap.Logger
}

// NewSessionService creates the session service.
func NewSessionService(
	db interfaces.DBTX,
	txRunner interfaces.TxRunner,
	sessionRepo interfaces.SessionRepository,
	chapterRepo interfaces.ChapterRepository,
	storyRepo interfaces.StoryRepository,
	settingsRepo interfaces.SettingsRepository,
	walletRepo interfaces.WalletRepository,
	generator generation.Client,
	publisher messaging.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) SessionService {
	return &sessionServiceImpl{
		db:           db,
		txRunner:     txRunner,
		sessionRepo:  sessionRepo,
		chapterRepo:  chapterRepo,
		storyRepo:    storyRepo,
		settingsRepo: settingsRepo,
		walletRepo:   walletRepo,
		generator:    generator,
		publisher:    publisher,
		cfg:          cfg,
		logger:       logger.Named("SessionService"),
	}
}

func (s *sessionServiceImpl) Start(ctx context.Context, userID, storyID uuid.UUID, toneStyleID, timeFlavorID string) (*models.Session, *models.Chapter, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))

	tone, err := s.settingsRepo.GetFlavor(ctx, s.db, models.FlavorKindTone, toneStyleID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %q", models.ErrInvalidToneStyle, toneStyleID)
		}
		return nil, nil, err
	}
	timeFlavor, err := s.settingsRepo.GetFlavor(ctx, s.db, models.FlavorKindTime, timeFlavorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %q", models.ErrInvalidTimeFlavor, timeFlavorID)
		}
		return nil, nil, err
	}

	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return nil, nil, err
	}
	if !story.IsPublished() {
		return nil, nil, models.ErrStoryNotPublished
	}

	initialPrompt := composeInitialPrompt(story, tone, timeFlavor)

	session := &models.Session{
		UserID:        userID,
		StoryID:       storyID,
		ToneStyleID:   toneStyleID,
		TimeFlavorID:  timeFlavorID,
		InitialPrompt: initialPrompt,
		Status:        models.SessionStatusActive,
	}

	// The debit and the session row commit together: either the user is
	// charged and has a session, or neither happened.
	var debitTxn *models.Transaction
	err = s.txRunner.WithTx(ctx, func(querier interfaces.DBTX) error {
		var txErr error
		debitTxn, txErr = applyDebit(ctx, querier, s.walletRepo, userID, story.CostPerChapter, models.SourceSessionStart)
		if txErr != nil {
			return txErr
		}
		return s.sessionRepo.Create(ctx, querier, session)
	})
	if err != nil {
		return nil, nil, err
	}

	log = log.With(zap.Stringer("sessionID", session.ID))
	log.Info("Session started", zap.Int64("balanceAfter", debitTxn.BalanceAfter))
	s.publishWalletTransaction(ctx, debitTxn)
	s.publishEvent(ctx, func() error {
		return s.publisher.PublishSessionStarted(ctx, messaging.SessionStartedPayload{
			SessionID: session.ID,
			UserID:    userID,
			StoryID:   storyID,
		})
	})

	// The opening chapter is generated outside the transaction; a failure
	// leaves the session active at chapter 0 so the next advance retries it.
	chapter, err := s.generateAndPersist(ctx, session, story, initialPrompt, 1)
	if err != nil {
		s.compensateDebit(ctx, userID, story.CostPerChapter, err, log)
		return nil, nil, err
	}

	session.CurrentChapter = 1
	session.ChaptersGenerated = 1
	return session, chapter, nil
}

func (s *sessionServiceImpl) Advance(ctx context.Context, userID, sessionID uuid.UUID, choice string) (*models.Chapter, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("sessionID", sessionID))

	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, models.ErrSessionNotActive
	}

	story, err := s.storyRepo.GetByID(ctx, s.db, session.StoryID)
	if err != nil {
		return nil, err
	}

	nextIndex := session.CurrentChapter + 1
	composed := s.composeContinuationPrompt(ctx, session, choice, nextIndex)

	var debitTxn *models.Transaction
	err = s.txRunner.WithTx(ctx, func(querier interfaces.DBTX) error {
		var txErr error
		debitTxn, txErr = applyDebit(ctx, querier, s.walletRepo, userID, story.CostPerChapter, models.SourceChapterAdvance)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.publishWalletTransaction(ctx, debitTxn)

	chapter, err := s.generateAndPersist(ctx, session, story, composed, nextIndex)
	if err != nil {
		s.compensateDebit(ctx, userID, story.CostPerChapter, err, log)
		return nil, err
	}

	log.Info("Session advanced", zap.Int("chapterIndex", nextIndex))
	return chapter, nil
}

// generateAndPersist runs the generator and, on success, commits the chapter
// row together with the CAS move of the session's chapter counter.
func (s *sessionServiceImpl) generateAndPersist(ctx context.Context, session *models.Session, story *models.Story, composedPrompt string, index int) (*models.Chapter, error) {
	generated, err := s.generator.GenerateChapter(ctx, composedPrompt, index)
	if err != nil {
		return nil, err
	}

	chapter := &models.Chapter{
		SessionID: session.ID,
		Index:     index,
		Prompt:    composedPrompt,
		Title:     generated.Title,
		Body:      generated.Body,
		Choices:   generated.Choices,
	}
	err = s.txRunner.WithTx(ctx, func(querier interfaces.DBTX) error {
		if advErr := s.sessionRepo.AdvanceChapter(ctx, querier, session.ID, index-1); advErr != nil {
			return advErr
		}
		return s.chapterRepo.Create(ctx, querier, chapter)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, func() error {
		return s.publisher.PublishChapterGenerated(ctx, messaging.ChapterGeneratedPayload{
			SessionID:    session.ID,
			StoryID:      story.ID,
			ChapterIndex: index,
			CreditsSpent: story.CostPerChapter,
		})
	})
	return chapter, nil
}

// compensateDebit reverses the chapter charge after the chapter failed to land.
// A lost CAS race is always refunded; a generation failure follows the
// configured policy.
func (s *sessionServiceImpl) compensateDebit(ctx context.Context, userID uuid.UUID, amount int64, cause error, log *zap.Logger) {
	source := ""
	switch {
	case errors.Is(cause, models.ErrSessionConflict):
		source = models.SourceRefundRaceLoss
	case errors.Is(cause, models.ErrGenerationFailed):
		if !s.cfg.RefundOnGenerationFailure {
			log.Warn("Keeping debit after generation failure per refund policy", zap.Error(cause))
			return
		}
		source = models.SourceRefundGeneration
	default:
		source = models.SourceRefundGeneration
	}

	var refundTxn *models.Transaction
	err := s.txRunner.WithTx(ctx, func(querier interfaces.DBTX) error {
		var txErr error
		refundTxn, txErr = applyCredit(ctx, querier, s.walletRepo, userID, amount, source)
		return txErr
	})
	if err != nil {
		// The user paid for a chapter that does not exist; this needs an
		// operator to reconcile from the transaction log.
		log.Error("Failed to refund debit", zap.Error(err), zap.Int64("amount", amount), zap.String("source", source))
		return
	}
	log.Info("Debit refunded", zap.String("source", source), zap.Int64("balanceAfter", refundTxn.BalanceAfter))
	s.publishWalletTransaction(ctx, refundTxn)
}

func (s *sessionServiceImpl) Complete(ctx context.Context, userID, sessionID uuid.UUID, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", models.ErrInvalidInput)
	}
	return s.finish(ctx, userID, sessionID, models.SessionStatusFinished, rating)
}

func (s *sessionServiceImpl) Abandon(ctx context.Context, userID, sessionID uuid.UUID) error {
	return s.finish(ctx, userID, sessionID, models.SessionStatusAbandoned, nil)
}

func (s *sessionServiceImpl) finish(ctx context.Context, userID, sessionID uuid.UUID, status models.SessionStatus, rating *int) error {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.UpdateStatus(ctx, s.db, sessionID, status, rating); err != nil {
		return err
	}

	s.logger.Info("Session closed",
		zap.Stringer("sessionID", sessionID), zap.String("status", string(status)))
	s.publishEvent(ctx, func() error {
		return s.publisher.PublishSessionCompleted(ctx, messaging.SessionCompletedPayload{
			SessionID: sessionID,
			StoryID:   session.StoryID,
			Rating:    rating,
		})
	})
	return nil
}

func (s *sessionServiceImpl) Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	return s.getOwnedSession(ctx, userID, sessionID)
}

func (s *sessionServiceImpl) ListChapters(ctx context.Context, userID, sessionID uuid.UUID) ([]*models.Chapter, error) {
	if _, err := s.getOwnedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.chapterRepo.ListBySession(ctx, s.db, sessionID)
}

func (s *sessionServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Session, error) {
	return s.sessionRepo.ListByUser(ctx, s.db, userID, limit, offset)
}

// getOwnedSession loads a session and hides its existence from non-owners.
func (s *sessionServiceImpl) getOwnedSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrNotFound
	}
	return session, nil
}

// composeInitialPrompt resolves the story template against the chosen flavors.
// Continuation tokens stay in place for composeContinuationPrompt to resolve
// chapter by chapter.
func composeInitialPrompt(story *models.Story, tone, timeFlavor *models.FlavorOption) string {
	return prompt.Compose(story.Template, map[string]string{
		prompt.TokenToneStyle:             tone.Label,
		prompt.TokenToneStyleDescription:  tone.Description,
		prompt.TokenTimeFlavor:            timeFlavor.Label,
		prompt.TokenTimeFlavorDescription: timeFlavor.Description,
		prompt.TokenStoryTitle:            story.Title,
		prompt.TokenStoryAuthor:           story.Author,
		prompt.TokenStoryDescription:      story.Description,
		prompt.TokenOpeningBeats:          prompt.FormatList(story.OpeningBeats),
		prompt.TokenGuardrails:            prompt.FormatList(story.Guardrails),
	})
}

func (s *sessionServiceImpl) composeContinuationPrompt(ctx context.Context, session *models.Session, choice string, nextIndex int) string {
	previousBody := "(the story has not begun yet)"
	if session.CurrentChapter > 0 {
		previous, err := s.chapterRepo.GetBySessionAndIndex(ctx, s.db, session.ID, session.CurrentChapter)
		if err != nil {
			// Continuation still works without the previous body, just with
			// less context for the generator.
			s.logger.Warn("Failed to load previous chapter for prompt",
				zap.Error(err), zap.Stringer("sessionID", session.ID), zap.Int("idx", session.CurrentChapter))
		} else {
			previousBody = previous.Body
		}
	}
	if choice == "" {
		choice = "(no explicit choice; continue naturally)"
	}

	return prompt.Compose(session.InitialPrompt+continuationTemplate, map[string]string{
		prompt.TokenChapterIndex:    strconv.Itoa(nextIndex),
		prompt.TokenPreviousChapter: previousBody,
		prompt.TokenChosenBranch:    choice,
	})
}

func (s *sessionServiceImpl) publishWalletTransaction(ctx context.Context, txn *models.Transaction) {
	s.publishEvent(ctx, func() error {
		return s.publisher.PublishWalletTransaction(ctx, messaging.WalletTransactionPayload{Transaction: *txn})
	})
}

// publishEvent runs a publish call, logging failures instead of surfacing
// them: events are advisory and never fail a player operation.
func (s *sessionServiceImpl) publishEvent(ctx context.Context, publish func() error) {
	if s.publisher == nil {
		return
	}
	if err := publish(); err != nil {
		s.logger.Warn("Failed to publish event", zap.Error(err))
	}
}
