package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTOTPRequired       = errors.New("one-time code required")
	ErrInvalidTOTPCode    = errors.New("invalid TOTP code")

	ErrMediaNotFound  = errors.New("media not found")
	ErrVideoNotFound  = errors.New("video not found")
	ErrEmptyUpload    = errors.New("upload body is empty")
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	ErrInvalidFile    = errors.New("invalid file name")

	ErrInvalidService = errors.New("invalid service id")
)
