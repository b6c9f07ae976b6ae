package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"urbangen/internal/domain"
	"urbangen/internal/infra"
	"urbangen/internal/providers/grsai"
)

// ErrSettlementIncomplete reports a partial settlement: the artifact was
// persisted but the debit or the audit record did not land. The system is
// recoverable by reconciliation; the error is never swallowed.
var ErrSettlementIncomplete = errors.New("billing: settlement incomplete, manual reconciliation required")

// ArtifactStore persists canonical image artifacts.
type ArtifactStore interface {
	SaveImage(ctx context.Context, imageID, imageData string) (string, error)
}

// Options wires the settlement service dependencies.
type Options struct {
	Users   domain.UserRepository
	Records domain.RecordRepository
	Orders  domain.OrderRepository
	Store   ArtifactStore
	Logger  *infra.Logger
}

// Service couples artifact persistence, credit debits and audit records so a
// successful generation settles exactly once.
type Service struct {
	users   domain.UserRepository
	records domain.RecordRepository
	orders  domain.OrderRepository
	store   ArtifactStore
	logger  *infra.Logger
}

// NewService constructs the settlement service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Service{
		users:   opts.Users,
		records: opts.Records,
		orders:  opts.Orders,
		store:   opts.Store,
		logger:  logger,
	}
}

// RecordMeta names the request attributes written onto the audit record.
type RecordMeta struct {
	Model       string
	Resolution  string
	AspectRatio string
	ImageSize   string
	Prompt      string
	UserPrompt  string
	ModuleName  string
}

// SettlementResult reports the outcome of a successful settlement.
type SettlementResult struct {
	NewBalance int
	RecordID   string
	LocalPath  string
}

// Settle persists the artifact, debits the user and writes the success record.
// The artifact is stored first so a later failure never loses an image the
// user already saw. The debit is a single conditional update, so two
// concurrent generations against a near-zero balance cannot both pass.
func (s *Service) Settle(ctx context.Context, userID string, cost int, artifact *grsai.Artifact, imageID string, meta RecordMeta) (*SettlementResult, error) {
	if artifact == nil || !strings.HasPrefix(artifact.ImageData, "data:image/") {
		return nil, fmt.Errorf("billing: artifact is not a canonical image data URI")
	}

	localPath, err := s.store.SaveImage(ctx, imageID, artifact.ImageData)
	if err != nil {
		return nil, fmt.Errorf("billing: persist artifact: %w", err)
	}

	newBalance, err := s.users.DebitCredits(ctx, userID, cost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			return nil, err
		}
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("image_id", imageID).
			Msg("billing: artifact saved but debit failed")
		return nil, fmt.Errorf("%w: debit: %v", ErrSettlementIncomplete, err)
	}

	record := &domain.GenerationRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		ImageID:     imageID,
		Model:       meta.Model,
		Resolution:  meta.Resolution,
		AspectRatio: meta.AspectRatio,
		ImageSize:   meta.ImageSize,
		Prompt:      meta.Prompt,
		UserPrompt:  meta.UserPrompt,
		ModuleName:  meta.ModuleName,
		Credits:     cost,
		Success:     true,
		CreatedAt:   time.Now(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("image_id", imageID).
			Int("credits", cost).
			Msg("billing: credits debited but record write failed")
		return nil, fmt.Errorf("%w: record: %v", ErrSettlementIncomplete, err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("image_id", imageID).
		Int("credits", cost).
		Int("balance", newBalance).
		Msg("billing: generation settled")
	return &SettlementResult{NewBalance: newBalance, RecordID: record.ID, LocalPath: localPath}, nil
}

// RecordFailure writes the success:false audit row for a failed or refused
// generation attempt. No credits are charged.
func (s *Service) RecordFailure(ctx context.Context, userID, imageID string, meta RecordMeta) error {
	record := &domain.GenerationRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		ImageID:     imageID,
		Model:       meta.Model,
		Resolution:  meta.Resolution,
		AspectRatio: meta.AspectRatio,
		ImageSize:   meta.ImageSize,
		Prompt:      meta.Prompt,
		UserPrompt:  meta.UserPrompt,
		ModuleName:  meta.ModuleName,
		Credits:     0,
		Success:     false,
		CreatedAt:   time.Now(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return fmt.Errorf("billing: write failure record: %w", err)
	}
	return nil
}
