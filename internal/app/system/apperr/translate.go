// internal/app/system/apperr/translate.go
package apperr

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Translate maps storage-layer and token faults into the operational
// taxonomy. Errors that are already classified pass through unchanged;
// anything unrecognized becomes Unexpected.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound("no document found with that ID").Wrap(err)

	case mongo.IsDuplicateKeyError(err):
		return Duplicate("duplicate field value, please use another value").Wrap(err)

	case errors.Is(err, primitive.ErrInvalidHex):
		return ValidationFailed("invalid ID").Wrap(err)

	case errors.Is(err, jwt.ErrTokenExpired):
		return Unauthorized("your token has expired, please log in again").Wrap(err)

	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return Unauthorized("invalid token, please log in again").Wrap(err)
	}

	// Server-side schema validators surface as write errors with code 121.
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 121 {
				return ValidationFailed("invalid input data").Wrap(err)
			}
		}
	}

	return Unexpected(err)
}

// InvalidID is the translation for a malformed entity identifier in a
// request path.
func InvalidID(raw string) *Error {
	return ValidationFailed(fmt.Sprintf("invalid ID: %s", raw))
}
