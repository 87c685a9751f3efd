package preverify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/florianilch/preverify/internal/verifyapi"
	"github.com/florianilch/preverify/internal/voter"
)

const tracerName = "github.com/florianilch/preverify/internal/preverify"

// Storage is the local credential storage used by Issuer.
type Storage interface {
	// VoterID returns the registered voter identifier. Storage faults read as absent.
	VoterID(ctx context.Context) (voter.ID, bool)

	// StoreToken replaces the stored pre-verification token.
	StoreToken(ctx context.Context, token voter.Token) error
}

// Client is the verification service used by Issuer.
type Client interface {
	RequestPreVerificationToken(ctx context.Context, id voter.ID) (*voter.TokenResponse, error)
	UpdateVoterStatus(ctx context.Context, id voter.ID, status voter.Status) error
}

// Outcome is the result of a successful Generate call.
type Outcome int

const (
	// OutcomeNotRegistered means no voter is registered on this device; nothing was done.
	OutcomeNotRegistered Outcome = iota + 1
	// OutcomeIssued means a token was issued, stored and the voter marked pre-verified.
	OutcomeIssued
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotRegistered:
		return "not_registered"
	case OutcomeIssued:
		return "issued"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Issuer runs the pre-verification workflow against injected collaborators.
type Issuer struct {
	storage Storage
	client  Client
	tracer  trace.Tracer
}

// New creates an Issuer.
func New(storage Storage, client Client) (*Issuer, error) {
	if storage == nil {
		return nil, fmt.Errorf("missing storage")
	}
	if client == nil {
		return nil, fmt.Errorf("missing verification client")
	}

	return &Issuer{
		storage: storage,
		client:  client,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Generate issues a pre-verification token for the registered voter.
//
// It returns OutcomeNotRegistered when no voter id is stored and OutcomeIssued
// once the token is stored and the voter's status updated. Any other result is
// a *StageError reporting the last stage reached.
func (i *Issuer) Generate(ctx context.Context) (Outcome, error) {
	ctx, span := i.tracer.Start(ctx, "preverify.Generate")
	defer span.End()

	outcome, err := i.generate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-verification failed")

		var stageErr *StageError
		if errors.As(err, &stageErr) {
			slog.ErrorContext(ctx, "pre-verification failed", "stage", stageErr.Stage, "error", stageErr.Err)
		}
		return 0, err
	}

	span.SetAttributes(attribute.String("preverify.outcome", outcome.String()))
	slog.InfoContext(ctx, "pre-verification finished", "outcome", outcome)
	return outcome, nil
}

func (i *Issuer) generate(ctx context.Context) (Outcome, error) {
	id, ok := i.storage.VoterID(ctx)
	if !ok || id.Empty() {
		return OutcomeNotRegistered, nil
	}

	resp, err := i.client.RequestPreVerificationToken(ctx, id)
	if err != nil {
		return 0, &StageError{Stage: StageIdle, Err: err}
	}
	if resp == nil || resp.Token.Empty() {
		return 0, &StageError{Stage: StageTokenRequested, Err: &verifyapi.Error{
			Kind: verifyapi.KindInvalidResponse,
			Op:   "request pre-verification token",
			Err:  errors.New("response has no token"),
		}}
	}
	slog.DebugContext(ctx, "pre-verification token received", "token", resp.Token.Masked())

	if err := i.storage.StoreToken(ctx, resp.Token); err != nil {
		return 0, &StageError{Stage: StageTokenRequested, Err: err}
	}

	if err := i.client.UpdateVoterStatus(ctx, id, voter.StatusPreVerified); err != nil {
		// The stored token stays; the next successful run supersedes it
		return 0, &StageError{Stage: StageTokenStored, Err: err}
	}

	return OutcomeIssued, nil
}
