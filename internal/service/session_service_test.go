package service_test

import (
	"context"
	"testing"

	"storyrunner/internal/config"
	interfaceMocks "storyrunner/internal/interfaces/mocks"
	messagingMocks "storyrunner/internal/messaging/mocks"
	"storyrunner/internal/models"
	"storyrunner/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// stubGenerator returns a fixed chapter or error.
type stubGenerator struct {
	chapter *models.GeneratedChapter
	err     error

	prompts []string
	indices []int
}

func (s *stubGenerator) GenerateChapter(ctx context.Context, prompt string, chapterIndex int) (*models.GeneratedChapter, error) {
	s.prompts = append(s.prompts, prompt)
	s.indices = append(s.indices, chapterIndex)
	if s.err != nil {
		return nil, s.err
	}
	return s.chapter, nil
}

type sessionFixture struct {
	sessionRepo  *interfaceMocks.SessionRepository
	chapterRepo  *interfaceMocks.ChapterRepository
	storyRepo    *interfaceMocks.StoryRepository
	settingsRepo *interfaceMocks.SettingsRepository
	walletRepo   *interfaceMocks.WalletRepository
	generator    *stubGenerator
	publisher    *messagingMocks.EventPublisher
	cfg          *config.Config
	svc          service.SessionService
}

func newSessionFixture(generator *stubGenerator, cfg *config.Config) *sessionFixture {
	f := &sessionFixture{
		sessionRepo:  new(interfaceMocks.SessionRepository),
		chapterRepo:  new(interfaceMocks.ChapterRepository),
		storyRepo:    new(interfaceMocks.StoryRepository),
		settingsRepo: new(interfaceMocks.SettingsRepository),
		walletRepo:   new(interfaceMocks.WalletRepository),
		generator:    generator,
		publisher:    new(messagingMocks.EventPublisher),
		cfg:          cfg,
	}
	f.svc = service.NewSessionService(
		nil, stubTxRunner{},
		f.sessionRepo, f.chapterRepo, f.storyRepo, f.settingsRepo, f.walletRepo,
		f.generator, f.publisher, f.cfg, zap.NewNop())
	return f
}

func publishedStory(cost int64) *models.Story {
	return &models.Story{
		ID:             uuid.New(),
		Title:          "The Glass Harbor",
		Author:         "N. Weaver",
		Description:    "A smuggler inherits a lighthouse.",
		Template:       "Tone: {{TONE_STYLE}}. Era: {{TIME_FLAVOR}}. {{OPENING_BEATS}}",
		OpeningBeats:   []string{"the lamp goes out"},
		CostPerChapter: cost,
		Status:         models.StoryStatusPublished,
	}
}

func expectFlavors(f *sessionFixture, ctx context.Context) {
	f.settingsRepo.On("GetFlavor", ctx, mock.Anything, models.FlavorKindTone, "noir").
		Return(&models.FlavorOption{ID: "noir", Label: "Noir", Description: "shadows and rain"}, nil).Once()
	f.settingsRepo.On("GetFlavor", ctx, mock.Anything, models.FlavorKindTime, "modern").
		Return(&models.FlavorOption{ID: "modern", Label: "Modern", Description: "the present day"}, nil).Once()
}

func TestSessionServiceStart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Successful start charges once and generates the opening chapter", func(t *testing.T) {
		generator := &stubGenerator{chapter: &models.GeneratedChapter{
			Title: "The Lamp Goes Out", Body: "Rain fell.", Choices: []string{"a", "b", "c"},
		}}
		f := newSessionFixture(generator, &config.Config{RefundOnGenerationFailure: true})
		story := publishedStory(10)

		expectFlavors(f, ctx)
		f.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		f.walletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(90), nil).Once()
		f.walletRepo.On("InsertTransaction", ctx, mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Source == models.SourceSessionStart && txn.Amount == 10 && txn.BalanceAfter == 90
		})).Return(nil).Once()
		f.sessionRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.UserID == userID && s.StoryID == story.ID && s.Status == models.SessionStatusActive && s.CurrentChapter == 0
		})).Return(nil).Once()
		f.sessionRepo.On("AdvanceChapter", ctx, mock.Anything, mock.Anything, 0).Return(nil).Once()
		f.chapterRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(c *models.Chapter) bool {
			return c.Index == 1 && c.Title == "The Lamp Goes Out" && c.Prompt != ""
		})).Return(nil).Once()
		f.publisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishSessionStarted", ctx, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishChapterGenerated", ctx, mock.Anything).Return(nil).Once()

		session, chapter, err := f.svc.Start(ctx, userID, story.ID, "noir", "modern")

		assert.NoError(t, err)
		assert.Equal(t, 1, session.CurrentChapter)
		assert.Equal(t, 1, chapter.Index)
		// The composed prompt has the flavor tokens resolved.
		assert.Contains(t, generator.prompts[0], "Tone: Noir")
		assert.Contains(t, generator.prompts[0], "Era: Modern")
		assert.Contains(t, generator.prompts[0], "- the lamp goes out")
		f.sessionRepo.AssertExpectations(t)
		f.walletRepo.AssertExpectations(t)
		f.chapterRepo.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("Unknown tone style fails before any charge", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		f.settingsRepo.On("GetFlavor", ctx, mock.Anything, models.FlavorKindTone, "bogus").
			Return(nil, models.ErrNotFound).Once()

		_, _, err := f.svc.Start(ctx, userID, uuid.New(), "bogus", "modern")

		assert.ErrorIs(t, err, models.ErrInvalidToneStyle)
		f.walletRepo.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Draft story cannot be started", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		story := publishedStory(10)
		story.Status = models.StoryStatusDraft

		expectFlavors(f, ctx)
		f.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()

		_, _, err := f.svc.Start(ctx, userID, story.ID, "noir", "modern")

		assert.ErrorIs(t, err, models.ErrStoryNotPublished)
		f.sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Insufficient credits creates no session", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		story := publishedStory(10)

		expectFlavors(f, ctx)
		f.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		f.walletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(10)).
			Return(int64(0), models.ErrInsufficientCredits).Once()

		_, _, err := f.svc.Start(ctx, userID, story.ID, "noir", "modern")

		assert.ErrorIs(t, err, models.ErrInsufficientCredits)
		f.sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Opening generation failure refunds the charge", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{err: models.ErrGenerationFailed},
			&config.Config{RefundOnGenerationFailure: true})
		story := publishedStory(10)

		expectFlavors(f, ctx)
		f.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		f.walletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(90), nil).Once()
		f.walletRepo.On("CreditBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(100), nil).Once()
		f.walletRepo.On("InsertTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Twice()
		f.sessionRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Twice()
		f.publisher.On("PublishSessionStarted", ctx, mock.Anything).Return(nil).Once()

		_, _, err := f.svc.Start(ctx, userID, story.ID, "noir", "modern")

		assert.ErrorIs(t, err, models.ErrGenerationFailed)
		f.walletRepo.AssertExpectations(t)
	})
}

func TestSessionServiceAdvance(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	activeSession := func(storyID uuid.UUID, current int) *models.Session {
		return &models.Session{
			ID:             uuid.New(),
			UserID:         userID,
			StoryID:        storyID,
			ToneStyleID:    "noir",
			TimeFlavorID:   "modern",
			InitialPrompt:  "Tone: Noir. Era: Modern. - the lamp goes out",
			Status:         models.SessionStatusActive,
			CurrentChapter: current,
		}
	}

	t.Run("Successful advance produces the next contiguous chapter", func(t *testing.T) {
		generator := &stubGenerator{chapter: &models.GeneratedChapter{
			Title: "Undertow", Body: "The tide turned.", Choices: []string{"x", "y", "z"},
		}}
		f := newSessionFixture(generator, &config.Config{RefundOnGenerationFailure: true})
		story := publishedStory(10)
		session := activeSession(story.ID, 2)

		f.sessionRepo.On("GetByID", ctx, mock.Anything, session.ID).Return(session, nil).Once()
		f.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		f.chapterRepo.On("GetBySessionAndIndex", ctx, mock.Anything, session.ID, 2).
			Return(&models.Chapter{Index: 2, Body: "Waves crashed."}, nil).Once()
		f.walletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(70), nil).Once()
		f.walletRepo.On("InsertTransaction", ctx, mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Source == models.SourceChapterAdvance && txn.BalanceAfter == 70
		})).Return(nil).Once()
		f.sessionRepo.On("AdvanceChapter", ctx, mock.Anything, session.ID, 2).Return(nil).Once()
		f.chapterRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(c *models.Chapter) bool {
			return c.SessionID == session.ID && c.Index == 3
		})).Return(nil).Once()
		f.publisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishChapterGenerated", ctx, mock.Anything).Return(nil).Once()

		chapter, err := f.svc.Advance(ctx, userID, session.ID, "follow the light")

		assert.NoError(t, err)
		assert.Equal(t, 3, chapter.Index)
		// The continuation prompt carries the previous chapter and the choice.
		assert.Contains(t, generator.prompts[0], "Waves crashed.")
		assert.Contains(t, generator.prompts[0], "follow the light")
		assert.Contains(t, generator.prompts[0], "Chapter number: 3")
		f.sessionRepo.AssertExpectations(t)
		f.chapterRepo.AssertExpectations(t)
	})

	t.Run("Finished session cannot advance", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		session := activeSession(uuid.New(), 3)
		session.Status = models.SessionStatusFinished

		f.sessionRepo.On("GetByID", ctx, mock.Anything, session.ID).Return(session, nil).Once()

		_, err := f.svc.Advance(ctx, userID, session.ID, "anything")

		assert.ErrorIs(t, err, models.ErrSessionNotActive)
		f.walletRepo.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Foreign session reads as not found", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		session := activeSession(uuid.New(), 1)
		session.UserID = uuid.New()

		f.sessionRepo.On("GetByID", ctx, mock.Anything, session.ID).Return(session, nil).Once()

		_, err := f.svc.Advance(ctx, userID, session.ID, "anything")

		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Lost advance race refunds and reports the conflict", func(t *testing.T) {
		generator := &stubGenerator{chapter: &models.GeneratedChapter{Title: "t", Body: "b"}}
		f := newSessionFixture(generator, &config.Config{RefundOnGenerationFailure: false})
		story := publishedStory(10)
		session := activeSession(story.ID, 1)

		f.sessionRepo.On("GetByID", ctx, mock.Anything, session.ID).Return(session, nil).Once()
		f.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		f.chapterRepo.On("GetBySessionAndIndex", ctx, mock.Anything, session.ID, 1).
			Return(&models.Chapter{Index: 1, Body: "old"}, nil).Once()
		f.walletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(60), nil).Once()
		f.sessionRepo.On("AdvanceChapter", ctx, mock.Anything, session.ID, 1).
			Return(models.ErrSessionConflict).Once()
		// The race refund happens even with the generation refund policy off.
		f.walletRepo.On("CreditBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(70), nil).Once()
		f.walletRepo.On("InsertTransaction", ctx, mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Type == models.TransactionDebit || txn.Source == models.SourceRefundRaceLoss
		})).Return(nil).Twice()
		f.publisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Twice()

		_, err := f.svc.Advance(ctx, userID, session.ID, "branch")

		assert.ErrorIs(t, err, models.ErrSessionConflict)
		f.walletRepo.AssertExpectations(t)
	})

	t.Run("Generation failure keeps the debit when refunds are off", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{err: models.ErrGenerationFailed},
			&config.Config{RefundOnGenerationFailure: false})
		story := publishedStory(10)
		session := activeSession(story.ID, 1)

		f.sessionRepo.On("GetByID", ctx, mock.Anything, session.ID).Return(session, nil).Once()
		f.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		f.chapterRepo.On("GetBySessionAndIndex", ctx, mock.Anything, session.ID, 1).
			Return(&models.Chapter{Index: 1, Body: "old"}, nil).Once()
		f.walletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(60), nil).Once()
		f.walletRepo.On("InsertTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Once()

		_, err := f.svc.Advance(ctx, userID, session.ID, "branch")

		assert.ErrorIs(t, err, models.ErrGenerationFailed)
		f.walletRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSessionServiceComplete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Complete records the rating and publishes the event", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		session := &models.Session{ID: uuid.New(), UserID: userID, StoryID: uuid.New(), Status: models.SessionStatusActive}
		rating := 5

		f.sessionRepo.On("GetByID", ctx, mock.Anything, session.ID).Return(session, nil).Once()
		f.sessionRepo.On("UpdateStatus", ctx, mock.Anything, session.ID, models.SessionStatusFinished, &rating).Return(nil).Once()
		f.publisher.On("PublishSessionCompleted", ctx, mock.Anything).Return(nil).Once()

		err := f.svc.Complete(ctx, userID, session.ID, &rating)

		assert.NoError(t, err)
		f.sessionRepo.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("Out-of-range rating is rejected", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		rating := 9

		err := f.svc.Complete(ctx, userID, uuid.New(), &rating)

		assert.ErrorIs(t, err, models.ErrInvalidInput)
		f.sessionRepo.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Completing twice reports not active", func(t *testing.T) {
		f := newSessionFixture(&stubGenerator{}, &config.Config{})
		session := &models.Session{ID: uuid.New(), UserID: userID, StoryID: uuid.New(), Status: models.SessionStatusFinished}

		f.sessionRepo.On("GetByID", ctx, mock.Anything, session.ID).Return(session, nil).Once()
		f.sessionRepo.On("UpdateStatus", ctx, mock.Anything, session.ID, models.SessionStatusAbandoned, (*int)(nil)).
			Return(models.ErrSessionNotActive).Once()

		err := f.svc.Abandon(ctx, userID, session.ID)

		assert.ErrorIs(t, err, models.ErrSessionNotActive)
	})
}
