package cmd

import (
	"errors"
	"fmt"
	"os"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	apperrors "github.com/namelens/brandlens/internal/errors"
	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/schema"
)

// ExitCodeFor maps a command error onto a foundry exit code.
func ExitCodeFor(err error) foundry.ExitCode {
	if err == nil {
		return foundry.ExitCode(0)
	}

	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return foundry.ExitConfigInvalid
	}

	var upstream *evaluate.UpstreamError
	var alignErr *evaluate.AlignmentError
	if errors.As(err, &upstream) || errors.As(err, &alignErr) {
		return foundry.ExitExternalServiceUnavailable
	}

	var envelope *gferrors.ErrorEnvelope
	if errors.As(err, &envelope) {
		switch envelope.Code {
		case apperrors.CodeConfigInvalid:
			return foundry.ExitConfigInvalid
		case apperrors.CodeExternalService, apperrors.CodeServiceUnavailable, apperrors.CodeTimeout:
			return foundry.ExitExternalServiceUnavailable
		case apperrors.CodeNotFound:
			return foundry.ExitFileNotFound
		}
	}

	if errors.Is(err, os.ErrNotExist) {
		return foundry.ExitFileNotFound
	}
	return foundry.ExitFailure
}

// ExitWithError exits with the code ExitCodeFor picks for err.
func ExitWithError(err error) {
	msg := "Command execution failed"
	if schema.IsValidationError(err) {
		msg = "Invalid input"
	}
	ExitWithCode(nil, ExitCodeFor(err), msg, err)
}

// ExitWithCode exits the program with a semantic foundry exit code and logs the error.
// A nil logger writes to stderr instead.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeFatal(msg, err)
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	if envelope, ok := err.(*gferrors.ErrorEnvelope); ok {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr is used before the logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	ExitWithCode(nil, exitCode, msg, err)
}

func writeFatal(msg string, err error) {
	if err == nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
		return
	}
	if envelope, ok := err.(*gferrors.ErrorEnvelope); ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %s\n", msg, envelope.Code, envelope.Message)
		return
	}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(os.Stderr, "FATAL: %s:\n", msg)
		for _, v := range verr.Violations {
			field := v.Field
			if field == "" {
				field = "/"
			}
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, v.Message)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
}
