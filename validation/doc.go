// Package validation checks wallet inputs and configuration.
//
// Struct tags are validated with go-playground/validator. Besides the stock
// tags, "base58" accepts strings that decode as base58, which is how
// addresses and exported keys are written.
//
//	type ImportSpec struct {
//	    Address      string `json:"address" validate:"required,base58"`
//	    B58Encrypted string `json:"b58encrypted" validate:"required_with=Password"`
//	}
//	err := validation.Validate(spec)
//
// Checks that do not fit tags use the fluent Validator:
//
//	err := validation.New().Required("passphrase", p).MinLength("passphrase", p, 8).Validate()
package validation
