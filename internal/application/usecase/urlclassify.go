package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"mobileshield/internal/infrastructure/urlcheck"
)

type URLChecker interface {
	Classify(ctx context.Context, target string) (*urlcheck.Classification, error)
}

type URLUseCase struct {
	checker URLChecker
	log     zerolog.Logger
}

func NewURLUseCase(c URLChecker, log zerolog.Logger) *URLUseCase {
	return &URLUseCase{checker: c, log: log}
}

// Classify asks the reputation vendor about a URL. Vendor failures fail
// open: an unreachable classifier never blocks the user's browsing.
func (uc *URLUseCase) Classify(ctx context.Context, target string) *urlcheck.Classification {
	result, err := uc.checker.Classify(ctx, target)
	if err != nil {
		uc.log.Warn().Err(err).Msg("url classification unavailable, failing open")
		return &urlcheck.Classification{Safe: true}
	}
	return result
}
