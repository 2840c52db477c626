package models

import "errors"

var (
	ErrAuth                 = errors.New("authentication failed")
	ErrProfileWrite         = errors.New("failed to create profile")
	ErrAuthRequired         = errors.New("sign in required")
	ErrSelfContact          = errors.New("you cannot contact yourself")
	ErrNotFound             = errors.New("not found")
	ErrBackend              = errors.New("backend request failed")
	ErrForbidden            = errors.New("action forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrImagesRequired       = errors.New("please upload at least one image")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
)
