package toolchannel

import (
	"github.com/go-playground/validator/v10"

	"github.com/ipeerbhai/nudge/internal/nudgeerr"
)

// validate is a single shared validator instance, the same
// package-level-singleton idiom the teacher's api/middleware/validation.go
// uses, checking struct tags on decoded RPC params before they reach the
// store or the guard.
var validate = validator.New()

// validateParams runs struct-tag validation on a decoded param struct,
// translating the first failing field into an INVALID error.
func validateParams(p any) error {
	if err := validate.Struct(p); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nudgeerr.Newf(nudgeerr.Invalid, "%s failed validation: %s", fe.Field(), fe.Tag())
		}
		return nudgeerr.Newf(nudgeerr.Invalid, "invalid params: %v", err)
	}
	return nil
}
